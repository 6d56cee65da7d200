package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/graphload/pkg/graphload"
)

func newTestPoller(t *testing.T, statuses ...scriptedStatus) (*Poller, *fakeLoader, *recordingSleeper, *recordingLogger) {
	t.Helper()
	fake, srv := newFakeLoader(t, statuses...)
	sleeper := &recordingSleeper{}
	logger := &recordingLogger{}
	p := NewPoller(newTestClient(t, srv), logger,
		WithPollInterval(testInterval),
		WithBackoffDelay(testBackoff),
		WithSleeper(sleeper),
	)
	return p, fake, sleeper, logger
}

func handleFor(p *Poller) graphload.JobHandle {
	return graphload.JobHandle{ID: "load-123", Endpoint: p.client.Endpoint()}
}

func TestPoll_AllInProgress_ExhaustsBudgetAfterExactlyMaxIterations(t *testing.T) {
	for _, maxIterations := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("max=%d", maxIterations), func(t *testing.T) {
			p, fake, sleeper, _ := newTestPoller(t, inProgress())

			outcome, err := p.Poll(context.Background(), handleFor(p), maxIterations)
			require.NoError(t, err)

			assert.Equal(t, graphload.OutcomeBudgetExhausted, outcome.Outcome)
			assert.Equal(t, graphload.StatusInProgress, outcome.Last.Code)
			assert.Equal(t, maxIterations, outcome.Iterations)
			assert.Equal(t, maxIterations, fake.checks())
			assert.Len(t, sleeper.recorded(), 2*maxIterations, "interval and backoff per transitional iteration")
		})
	}
}

func TestPoll_FirstCompleted_SingleFetchWithoutBackoff(t *testing.T) {
	p, fake, sleeper, _ := newTestPoller(t, completed())

	outcome, err := p.Poll(context.Background(), handleFor(p), 10)
	require.NoError(t, err)

	assert.Equal(t, graphload.OutcomeCompleted, outcome.Outcome)
	assert.Equal(t, 1, outcome.Iterations)
	assert.Equal(t, 1, fake.checks())
	assert.Equal(t, []time.Duration{testInterval}, sleeper.recorded())
}

func TestPoll_InQueue_StopsImmediately(t *testing.T) {
	p, fake, sleeper, _ := newTestPoller(t, inQueue(), completed())

	outcome, err := p.Poll(context.Background(), handleFor(p), 10)
	require.NoError(t, err)

	assert.Equal(t, graphload.OutcomeQueued, outcome.Outcome)
	assert.Equal(t, graphload.StatusInQueue, outcome.Last.Code)
	assert.False(t, outcome.Terminal())
	assert.Equal(t, 1, fake.checks())
	assert.Equal(t, []time.Duration{testInterval}, sleeper.recorded())
}

func TestPoll_FailedAfterTransitional(t *testing.T) {
	p, fake, sleeper, logger := newTestPoller(t, inProgress(), inProgress(), failed())

	outcome, err := p.Poll(context.Background(), handleFor(p), 5)
	require.NoError(t, err, "a failed job is data, not an error")

	assert.Equal(t, graphload.OutcomeFailed, outcome.Outcome)
	assert.Equal(t, 3, outcome.Iterations)
	assert.Equal(t, 3, fake.checks())
	assert.Equal(t,
		[]time.Duration{testInterval, testBackoff, testInterval, testBackoff, testInterval},
		sleeper.recorded())
	assert.Empty(t, logger.errorRecords(), "create poller does not report failures")
	assert.Len(t, logger.infoRecords(), 3, "one info record per poll response")
}

func TestUpsertPoller_FailedEmitsOneDiagnosticRecord(t *testing.T) {
	fake, srv := newFakeLoader(t, inProgress(), inProgress(), failed())
	logger := &recordingLogger{}
	p := NewUpsertPoller(newTestClient(t, srv), logger, WithSleeper(&recordingSleeper{}))

	outcome, err := p.Poll(context.Background(), handleFor(p), 5)
	require.NoError(t, err)

	assert.Equal(t, graphload.OutcomeFailed, outcome.Outcome)
	assert.Equal(t, 3, fake.checks())
	records := logger.errorRecords()
	require.Len(t, records, 1)
	assert.Contains(t, records[0], "load-123")
	assert.Contains(t, records[0], `"LOAD_FAILED"`, "diagnostic carries the full payload")
}

func TestUpsertPoller_CompletedEmitsNoDiagnostic(t *testing.T) {
	_, srv := newFakeLoader(t, completed())
	logger := &recordingLogger{}
	p := NewUpsertPoller(newTestClient(t, srv), logger, WithSleeper(&recordingSleeper{}))

	outcome, err := p.Poll(context.Background(), handleFor(p), 5)
	require.NoError(t, err)
	assert.Equal(t, graphload.OutcomeCompleted, outcome.Outcome)
	assert.Empty(t, logger.errorRecords())
}

func TestPoll_UnknownSubStateIsTransitional(t *testing.T) {
	p, fake, _, _ := newTestPoller(t,
		scriptedStatus{http.StatusOK, "LOAD_STARTING"},
		scriptedStatus{http.StatusOK, "LOAD_CANCELLED_BY_USER"},
		completed(),
	)

	outcome, err := p.Poll(context.Background(), handleFor(p), 5)
	require.NoError(t, err)
	assert.Equal(t, graphload.OutcomeCompleted, outcome.Outcome)
	assert.Equal(t, 3, fake.checks())
}

func TestPoll_ErrorMidLoopAbortsImmediately(t *testing.T) {
	p, fake, _, logger := newTestPoller(t, inProgress(), httpError(http.StatusInternalServerError), inProgress(), completed())

	outcome, err := p.Poll(context.Background(), handleFor(p), 5)
	require.Error(t, err)

	assert.True(t, errors.Is(err, graphload.ErrPoll))
	var pollErr *graphload.PollError
	require.True(t, errors.As(err, &pollErr))
	assert.Equal(t, 2, pollErr.Iteration)
	assert.Equal(t, http.StatusInternalServerError, pollErr.StatusCode)
	assert.Equal(t, "load-123", pollErr.JobID)

	assert.Equal(t, 2, fake.checks(), "iterations 3 to 5 never execute")
	assert.Equal(t, graphload.StatusInProgress, outcome.Last.Code)
	assert.Len(t, logger.errorRecords(), 1)
}

func TestPoll_MalformedStatusIsPollError(t *testing.T) {
	p, _, _, _ := newTestPoller(t, scriptedStatus{http.StatusOK, ""})

	_, err := p.Poll(context.Background(), handleFor(p), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, graphload.ErrPoll))
	assert.True(t, errors.Is(err, graphload.ErrMalformedResponse))
}

func TestPoll_RejectsInvalidArguments(t *testing.T) {
	p, fake, _, _ := newTestPoller(t, completed())

	_, err := p.Poll(context.Background(), handleFor(p), 0)
	assert.ErrorIs(t, err, graphload.ErrInvalidRequest)

	_, err = p.Poll(context.Background(), graphload.JobHandle{}, 3)
	assert.ErrorIs(t, err, graphload.ErrInvalidRequest)

	_, err = p.Poll(context.Background(), graphload.JobHandle{ID: "load-123", Endpoint: "https://other:8182/loader"}, 3)
	assert.ErrorIs(t, err, graphload.ErrInvalidRequest)

	assert.Zero(t, fake.checks())
}

func TestPoll_HandleWithoutEndpointUsesClient(t *testing.T) {
	p, fake, _, _ := newTestPoller(t, completed())

	outcome, err := p.Poll(context.Background(), graphload.JobHandle{ID: "job/with space"}, 3)
	require.NoError(t, err)
	assert.Equal(t, graphload.OutcomeCompleted, outcome.Outcome)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.statusPaths, 1)
	assert.True(t, strings.HasPrefix(fake.statusPaths[0], "/loader/job"))
}

func TestPoll_CancelledContextStopsWaiting(t *testing.T) {
	fake, srv := newFakeLoader(t, inProgress())
	p := NewPoller(newTestClient(t, srv), &recordingLogger{},
		WithPollInterval(time.Hour),
		WithBackoffDelay(time.Hour),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	outcome, err := p.Poll(ctx, handleFor(p), 100)
	require.Error(t, err)

	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, fake.checks())
	assert.Equal(t, graphload.StatusInProgress, outcome.Last.Code)
}

func TestPoll_DeadlineDuringStatusRequestIsNotPollError(t *testing.T) {
	logger := &recordingLogger{}
	p := NewPoller(newTestClient(t, newStallingLoader(t)), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	outcome, err := p.Poll(ctx, graphload.JobHandle{ID: "x"}, 3)
	require.Error(t, err)

	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.False(t, errors.Is(err, graphload.ErrPoll), "got %v", err)
	assert.NotEqual(t, graphload.ExitPollFailed, graphload.ExitCodeForError(err))
	assert.Equal(t, 1, outcome.Iterations)
	assert.Empty(t, logger.errorRecords())
}

func TestClassify_FixedOrder(t *testing.T) {
	tests := []struct {
		code     graphload.StatusCode
		want     graphload.Outcome
		wantStop bool
	}{
		{graphload.StatusCompleted, graphload.OutcomeCompleted, true},
		{graphload.StatusFailed, graphload.OutcomeFailed, true},
		{graphload.StatusInQueue, graphload.OutcomeQueued, true},
		{graphload.StatusInProgress, "", false},
		{"LOAD_FAILED_INVALID_REQUEST", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			got, stop := classify(tt.code)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStop, stop)
		})
	}
}
