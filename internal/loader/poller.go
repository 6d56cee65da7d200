package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/graphload/internal/retry"
	"github.com/vvka-141/graphload/pkg/graphload"
)

// Poller queries job status until a stopping status or the iteration budget.
type Poller struct {
	client         *Client
	logger         graphload.Logger
	sleeper        graphload.Sleeper
	pollInterval   time.Duration
	backoffDelay   time.Duration
	reportFailures bool
}

// PollerOption is a functional option for configuring a Poller.
type PollerOption func(*Poller)

// WithPollInterval sets the wait after every status fetch.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.pollInterval = d
	}
}

// WithBackoffDelay sets the extra wait applied after a transitional status.
func WithBackoffDelay(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.backoffDelay = d
	}
}

// WithSleeper replaces the timer-based sleeper.
func WithSleeper(s graphload.Sleeper) PollerOption {
	return func(p *Poller) {
		if s != nil {
			p.sleeper = s
		}
	}
}

// WithFailureDiagnostics makes the poller log the full status payload at
// error level when a job reports LOAD_FAILED.
func WithFailureDiagnostics() PollerOption {
	return func(p *Poller) {
		p.reportFailures = true
	}
}

// NewPoller creates a poller with the default cadence.
func NewPoller(client *Client, logger graphload.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		client:       client,
		logger:       logger,
		sleeper:      retry.TimerSleeper{},
		pollInterval: graphload.DefaultPollInterval,
		backoffDelay: graphload.DefaultBackoffDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewUpsertPoller creates the poller used for upsert loads, which reports
// failed jobs with their full payload.
func NewUpsertPoller(client *Client, logger graphload.Logger, opts ...PollerOption) *Poller {
	return NewPoller(client, logger, append(opts, WithFailureDiagnostics())...)
}

// Poll fetches the status of handle at most maxIterations times.
//
// It returns a *graphload.PollError as soon as one status check fails;
// remaining iterations never run. LOAD_FAILED is reported through the
// outcome, not as an error. Cancellation of ctx, including during a status
// request, returns the wrapped context error instead of a PollError.
func (p *Poller) Poll(ctx context.Context, handle graphload.JobHandle, maxIterations int) (graphload.PollOutcome, error) {
	if maxIterations < 1 {
		return graphload.PollOutcome{}, fmt.Errorf("%w: max iterations must be at least 1, got %d", graphload.ErrInvalidRequest, maxIterations)
	}
	if handle.ID == "" {
		return graphload.PollOutcome{}, fmt.Errorf("%w: empty job id", graphload.ErrInvalidRequest)
	}
	if handle.Endpoint != "" && handle.Endpoint != p.client.Endpoint() {
		return graphload.PollOutcome{}, fmt.Errorf("%w: job %s was issued by %s, not %s",
			graphload.ErrInvalidRequest, handle.ID, handle.Endpoint, p.client.Endpoint())
	}

	var last graphload.JobStatus
	for iteration := 1; iteration <= maxIterations; iteration++ {
		status, err := p.fetch(ctx, handle, iteration)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return graphload.PollOutcome{Last: last, Iterations: iteration}, p.interrupted(handle, iteration, ctxErr)
			}
			p.logger.Error("%v", err)
			return graphload.PollOutcome{Last: last, Iterations: iteration}, err
		}
		last = status
		p.logger.Info("Load %s status: %s", handle.ID, status.Raw)

		if err := p.sleeper.Sleep(ctx, p.pollInterval); err != nil {
			return graphload.PollOutcome{Last: last, Iterations: iteration}, p.interrupted(handle, iteration, err)
		}

		outcome, stop := classify(status.Code)
		if !stop {
			p.logger.Verbose("Load %s is %s, backing off %v (iteration %d/%d)",
				handle.ID, status.Code, p.backoffDelay, iteration, maxIterations)
			if err := p.sleeper.Sleep(ctx, p.backoffDelay); err != nil {
				return graphload.PollOutcome{Last: last, Iterations: iteration}, p.interrupted(handle, iteration, err)
			}
			continue
		}

		if outcome == graphload.OutcomeFailed && p.reportFailures {
			p.logger.Error("Load %s failed: %s", handle.ID, status.Raw)
		}
		return graphload.PollOutcome{Outcome: outcome, Last: last, Iterations: iteration}, nil
	}

	p.logger.Info("Load %s still %s after %d status checks", handle.ID, last.Code, maxIterations)
	return graphload.PollOutcome{
		Outcome:    graphload.OutcomeBudgetExhausted,
		Last:       last,
		Iterations: maxIterations,
	}, nil
}

func (p *Poller) fetch(ctx context.Context, handle graphload.JobHandle, iteration int) (graphload.JobStatus, error) {
	resp, err := p.client.getStatus(ctx, handle.ID)
	if err != nil {
		return graphload.JobStatus{}, &graphload.PollError{JobID: handle.ID, Iteration: iteration, Err: err}
	}
	if !resp.ok() {
		return graphload.JobStatus{}, &graphload.PollError{
			JobID:      handle.ID,
			Iteration:  iteration,
			StatusCode: resp.StatusCode,
			Body:       graphload.Preview(resp.Body),
		}
	}
	status, err := parseStatus(resp.Body)
	if err != nil {
		return graphload.JobStatus{}, &graphload.PollError{
			JobID:     handle.ID,
			Iteration: iteration,
			Err:       err,
			Body:      graphload.Preview(resp.Body),
		}
	}
	return status, nil
}

func (p *Poller) interrupted(handle graphload.JobHandle, iteration int, err error) error {
	return fmt.Errorf("polling load %s interrupted at iteration %d: %w", handle.ID, iteration, err)
}

// classify checks codes in a fixed order. LOAD_IN_QUEUE stops the loop even
// though the job has not finished.
func classify(code graphload.StatusCode) (graphload.Outcome, bool) {
	switch code {
	case graphload.StatusCompleted:
		return graphload.OutcomeCompleted, true
	case graphload.StatusFailed:
		return graphload.OutcomeFailed, true
	case graphload.StatusInQueue:
		return graphload.OutcomeQueued, true
	}
	return "", false
}
