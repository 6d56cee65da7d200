// Package loader submits bulk load jobs to a Neptune-compatible loader
// endpoint and polls them until they reach a stopping status.
//
// # Example Usage
//
//	client, err := loader.NewClient(loader.ClientConfig{Endpoint: "https://db:8182/loader"})
//	if err != nil {
//	    return err
//	}
//	tracker := loader.NewTracker(client, logger, loader.DefaultTiming())
//
//	handle, outcome, err := tracker.Upsert(ctx, spec, 60)
//
// # Polling Protocol
//
// After an accepted submission the Submitter waits a settle delay. The Poller
// then fetches the job status, waits the poll interval and classifies the code
// in a fixed order: LOAD_COMPLETED, LOAD_FAILED and LOAD_IN_QUEUE stop the
// loop; every other code is transitional and adds a backoff pause before the
// next fetch. A run that never sees a stopping code ends with
// BUDGET_EXHAUSTED and the last observed status.
//
// A non-200 status response aborts the loop with a *graphload.PollError. It is
// never retried. A remote LOAD_FAILED is returned as data, not as an error.
//
// # Thread Safety
//
// Client, Submitter, Poller and Tracker hold no per-job state and are safe for
// concurrent use. Each Poll call owns its own loop state.
package loader
