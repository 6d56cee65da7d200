package graphload_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/vvka-141/graphload/pkg/graphload"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, graphload.ExitSuccess},
		{"general error", errors.New("something went wrong"), graphload.ExitGeneralError},
		{"unknown flag", errors.New("unknown flag: --foo"), graphload.ExitUsageError},
		{"accepts args", errors.New("accepts 1 arg(s), received 0"), graphload.ExitUsageError},
		{"requires at least", errors.New("requires at least 1 arg(s), only received 0"), graphload.ExitUsageError},
		{"invalid config", fmt.Errorf("load config: %w", graphload.ErrInvalidConfig), graphload.ExitConfigError},
		{"invalid request", graphload.ErrInvalidRequest, graphload.ExitConfigError},
		{"submission error", &graphload.SubmissionError{StatusCode: 400}, graphload.ExitSubmissionFailed},
		{"poll error", &graphload.PollError{JobID: "abc", Iteration: 2, StatusCode: 500}, graphload.ExitPollFailed},
		{"load failed", fmt.Errorf("job abc: %w", graphload.ErrLoadFailed), graphload.ExitLoadFailed},
		{"budget exhausted", graphload.ErrBudgetExhausted, graphload.ExitBudgetExhausted},
		{"staging", fmt.Errorf("%w: put", graphload.ErrStaging), graphload.ExitStagingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := graphload.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestSubmissionError_MatchesSentinelAndCause(t *testing.T) {
	err := fmt.Errorf("create: %w", &graphload.SubmissionError{Err: graphload.ErrMalformedResponse})

	if !errors.Is(err, graphload.ErrSubmission) {
		t.Error("expected errors.Is(err, ErrSubmission)")
	}
	if !errors.Is(err, graphload.ErrMalformedResponse) {
		t.Error("expected errors.Is(err, ErrMalformedResponse)")
	}
	if errors.Is(err, graphload.ErrPoll) {
		t.Error("submission error must not match ErrPoll")
	}

	var subErr *graphload.SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatal("expected errors.As to find *SubmissionError")
	}
}

func TestPollError_Message(t *testing.T) {
	err := &graphload.PollError{JobID: "job-1", Iteration: 2, StatusCode: 500, Body: "boom"}

	msg := err.Error()
	for _, want := range []string{"job-1", "iteration 2", "HTTP 500", "boom"} {
		if !strings.Contains(msg, want) {
			t.Errorf("PollError message %q does not contain %q", msg, want)
		}
	}
	if !errors.Is(err, graphload.ErrPoll) {
		t.Error("expected errors.Is(err, ErrPoll)")
	}
}

func TestPreview_Truncates(t *testing.T) {
	long := strings.Repeat("x", graphload.MaxErrorPreviewLength+50)

	got := graphload.Preview([]byte(long))
	if len(got) != graphload.MaxErrorPreviewLength+3 {
		t.Errorf("Preview length = %d, want %d", len(got), graphload.MaxErrorPreviewLength+3)
	}
	if graphload.Preview([]byte("  short \n")) != "short" {
		t.Error("Preview should trim surrounding whitespace")
	}
}

func TestPreview_KeepsMultibyteRunesWhole(t *testing.T) {
	body := strings.Repeat("a", graphload.MaxErrorPreviewLength-1) + "é tail"

	got := graphload.Preview([]byte(body))
	if !utf8.ValidString(got) {
		t.Fatalf("Preview produced invalid UTF-8: %q", got)
	}
	if want := strings.Repeat("a", graphload.MaxErrorPreviewLength-1) + "..."; got != want {
		t.Errorf("Preview = %q, want %q", got, want)
	}
}
