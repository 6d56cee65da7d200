// Package staging uploads CSV payloads to S3 (or an S3-compatible store) so
// the graph store's bulk loader can read them.
//
// Store implements graphload.ObjectStore. Every PutObject/GetObject call runs
// through a retry.Executor, so throttling, 5xx responses and dropped
// connections are retried with exponential backoff. The SDK's own retryer is
// disabled to keep a single retry policy.
//
// Stager places each file under a unique key:
//
//	<prefix>/<uuid>/<file name>
package staging
