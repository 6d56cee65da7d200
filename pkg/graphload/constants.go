package graphload

import "time"

// Exit codes for semantic error classification.
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Load completed or was queued
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic
	ExitConfigError      = 10 // Invalid configuration or load request
	ExitSubmissionFailed = 11 // Loader rejected the submission
	ExitPollFailed       = 12 // Status check failed
	ExitLoadFailed       = 13 // Loader reported LOAD_FAILED
	ExitBudgetExhausted  = 14 // Polling budget exhausted, state unknown
	ExitStagingFailed    = 15 // Object storage upload or download failed
)

const (
	// DefaultSettleDelay is the pause after an accepted submission before the
	// first status check, so the loader has indexed the job.
	DefaultSettleDelay = 2 * time.Second

	// DefaultPollInterval is the wait after each status fetch.
	DefaultPollInterval = 1 * time.Second

	// DefaultBackoffDelay is the extra wait applied only on transitional status codes.
	DefaultBackoffDelay = 3 * time.Second

	// DefaultMaxIterations bounds the number of status fetches per job.
	DefaultMaxIterations = 60

	// DefaultParallelism is the loader concurrency hint when none is configured.
	DefaultParallelism = ParallelismMedium

	// DefaultRequestTimeout bounds a single HTTP exchange with the loader.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultRateLimit is the loader request rate (per second) shared by all
	// jobs driven through one client.
	DefaultRateLimit = 10.0

	// DefaultRateBurst is the limiter burst size.
	DefaultRateBurst = 5

	// DefaultRetryInitialDelay is the initial delay before retrying a staging call.
	DefaultRetryInitialDelay = 200 * time.Millisecond

	// DefaultRetryMaxDelay caps the delay between staging retries.
	DefaultRetryMaxDelay = 10 * time.Second

	// DefaultRetryMaxAttempts is the number of staging retries after the first attempt.
	DefaultRetryMaxAttempts = 3

	// DefaultStagingPrefix is the key prefix for staged CSV payloads.
	DefaultStagingPrefix = "graphload"

	// MaxErrorPreviewLength limits how much of a response body is quoted in errors.
	MaxErrorPreviewLength = 200

	// NeptuneSigningService is the SigV4 service name for IAM-authenticated loader calls.
	NeptuneSigningService = "neptune-db"
)
