package graphload

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sentinel errors for common failure scenarios.
// Callers distinguish them with errors.Is().
//
// Example usage:
//
//	handle, err := submitter.SubmitCreate(ctx, spec)
//	if errors.Is(err, graphload.ErrSubmission) {
//	    // the loader rejected the request; nothing to poll
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidRequest indicates a load request or polling budget is invalid.
	ErrInvalidRequest = errors.New("invalid load request")

	// ErrSubmission indicates the loader did not accept a submission.
	ErrSubmission = errors.New("load submission failed")

	// ErrPoll indicates a status check failed and polling was aborted.
	ErrPoll = errors.New("load status check failed")

	// ErrMalformedResponse indicates a loader response lacked a required field.
	ErrMalformedResponse = errors.New("malformed loader response")

	// ErrStaging indicates the CSV payload could not be written to or read from object storage.
	ErrStaging = errors.New("staging failed")

	// ErrLoadFailed indicates the loader reported the job as failed.
	ErrLoadFailed = errors.New("load job failed")

	// ErrBudgetExhausted indicates polling stopped before the job reached a stopping status.
	ErrBudgetExhausted = errors.New("polling budget exhausted")
)

// SubmissionError describes a rejected or unparseable submission.
type SubmissionError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *SubmissionError) Error() string {
	var b strings.Builder
	b.WriteString(ErrSubmission.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, " (body: %s)", e.Body)
	}
	return b.String()
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) Is(target error) bool { return target == ErrSubmission }

// PollError describes a status check that aborted the polling loop.
type PollError struct {
	JobID      string
	Iteration  int
	StatusCode int
	Body       string
	Err        error
}

func (e *PollError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for job %s at iteration %d", ErrPoll.Error(), e.JobID, e.Iteration)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, " (body: %s)", e.Body)
	}
	return b.String()
}

func (e *PollError) Unwrap() error { return e.Err }

func (e *PollError) Is(target error) bool { return target == ErrPoll }

// Preview truncates a response body for inclusion in error messages.
func Preview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > MaxErrorPreviewLength {
		cut := MaxErrorPreviewLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrInvalidRequest):
		return ExitConfigError
	case errors.Is(err, ErrSubmission):
		return ExitSubmissionFailed
	case errors.Is(err, ErrPoll):
		return ExitPollFailed
	case errors.Is(err, ErrLoadFailed):
		return ExitLoadFailed
	case errors.Is(err, ErrBudgetExhausted):
		return ExitBudgetExhausted
	case errors.Is(err, ErrStaging):
		return ExitStagingFailed
	}

	// cobra reports usage problems as plain errors
	errStr := err.Error()
	for _, pattern := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"requires at least",
		"required flag",
		"invalid argument",
	} {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}
