package loader

import (
	"context"
	"time"

	"github.com/vvka-141/graphload/pkg/graphload"
)

// Timing holds the delays of the submit/poll protocol.
type Timing struct {
	SettleDelay  time.Duration
	PollInterval time.Duration
	BackoffDelay time.Duration
	// Sleeper is shared by the submitter and both pollers. Nil means retry.TimerSleeper.
	Sleeper graphload.Sleeper
}

// DefaultTiming returns the loader's documented cadence.
func DefaultTiming() Timing {
	return Timing{
		SettleDelay:  graphload.DefaultSettleDelay,
		PollInterval: graphload.DefaultPollInterval,
		BackoffDelay: graphload.DefaultBackoffDelay,
	}
}

// Tracker drives a load from submission to a polling outcome.
type Tracker struct {
	submitter    *Submitter
	createPoller *Poller
	upsertPoller *Poller
}

// NewTracker wires a submitter and both poller variants around one client.
func NewTracker(client *Client, logger graphload.Logger, timing Timing) *Tracker {
	opts := []PollerOption{
		WithPollInterval(timing.PollInterval),
		WithBackoffDelay(timing.BackoffDelay),
		WithSleeper(timing.Sleeper),
	}
	return &Tracker{
		submitter:    NewSubmitter(client, logger, timing.Sleeper, timing.SettleDelay),
		createPoller: NewPoller(client, logger, opts...),
		upsertPoller: NewUpsertPoller(client, logger, opts...),
	}
}

// Create submits spec in create mode and polls it.
func (t *Tracker) Create(ctx context.Context, spec graphload.LoadSpec, maxIterations int) (graphload.JobHandle, graphload.PollOutcome, error) {
	return t.Run(ctx, graphload.ModeCreate, spec, maxIterations)
}

// Upsert submits spec in upsert mode and polls it, logging failed payloads.
func (t *Tracker) Upsert(ctx context.Context, spec graphload.LoadSpec, maxIterations int) (graphload.JobHandle, graphload.PollOutcome, error) {
	return t.Run(ctx, graphload.ModeUpsert, spec, maxIterations)
}

// Run submits spec in the given mode and polls the accepted job.
// The poller is never invoked when submission fails.
func (t *Tracker) Run(ctx context.Context, mode graphload.Mode, spec graphload.LoadSpec, maxIterations int) (graphload.JobHandle, graphload.PollOutcome, error) {
	req, err := graphload.NewLoadRequest(mode, spec)
	if err != nil {
		return graphload.JobHandle{}, graphload.PollOutcome{}, err
	}
	handle, err := t.submitter.Submit(ctx, req)
	if err != nil {
		return handle, graphload.PollOutcome{}, err
	}
	outcome, err := t.PollerFor(mode).Poll(ctx, handle, maxIterations)
	return handle, outcome, err
}

// PollerFor returns the poller variant matching mode.
func (t *Tracker) PollerFor(mode graphload.Mode) *Poller {
	if mode == graphload.ModeUpsert {
		return t.upsertPoller
	}
	return t.createPoller
}
