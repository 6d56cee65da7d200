package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/graphload/internal/retry"
	"github.com/vvka-141/graphload/pkg/graphload"
)

// Submitter sends load requests and returns the handle of the accepted job.
type Submitter struct {
	client      *Client
	logger      graphload.Logger
	sleeper     graphload.Sleeper
	settleDelay time.Duration
}

// NewSubmitter creates a Submitter that waits settleDelay after every
// accepted submission. A nil sleeper uses retry.TimerSleeper.
func NewSubmitter(client *Client, logger graphload.Logger, sleeper graphload.Sleeper, settleDelay time.Duration) *Submitter {
	if sleeper == nil {
		sleeper = retry.TimerSleeper{}
	}
	return &Submitter{
		client:      client,
		logger:      logger,
		sleeper:     sleeper,
		settleDelay: settleDelay,
	}
}

// SubmitCreate submits spec in create mode: the request may be queued and
// single-cardinality properties are not overwritten.
func (s *Submitter) SubmitCreate(ctx context.Context, spec graphload.LoadSpec) (graphload.JobHandle, error) {
	return s.submitMode(ctx, graphload.ModeCreate, spec)
}

// SubmitUpsert submits spec in upsert mode: the request is not queued and
// single-cardinality properties are overwritten.
func (s *Submitter) SubmitUpsert(ctx context.Context, spec graphload.LoadSpec) (graphload.JobHandle, error) {
	return s.submitMode(ctx, graphload.ModeUpsert, spec)
}

func (s *Submitter) submitMode(ctx context.Context, mode graphload.Mode, spec graphload.LoadSpec) (graphload.JobHandle, error) {
	req, err := graphload.NewLoadRequest(mode, spec)
	if err != nil {
		return graphload.JobHandle{}, err
	}
	return s.Submit(ctx, req)
}

// Submit performs exactly one POST to the loader.
//
// If the settle delay is interrupted by ctx, the handle of the accepted job
// is returned together with the context error so the caller can still track it.
func (s *Submitter) Submit(ctx context.Context, req graphload.LoadRequest) (graphload.JobHandle, error) {
	s.logger.Verbose("Submitting %s load of %s (parallelism=%s)", req.Mode(), req.Source(), req.Parallelism())

	resp, err := s.client.postLoad(ctx, newLoadPayload(req))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return graphload.JobHandle{}, fmt.Errorf("submitting %s load of %s interrupted: %w", req.Mode(), req.Source(), ctxErr)
		}
		subErr := &graphload.SubmissionError{Err: err}
		s.logger.Error("%v", subErr)
		return graphload.JobHandle{}, subErr
	}
	if !resp.ok() {
		subErr := &graphload.SubmissionError{StatusCode: resp.StatusCode, Body: graphload.Preview(resp.Body)}
		s.logger.Error("%v", subErr)
		return graphload.JobHandle{}, subErr
	}

	id, err := parseLoadID(resp.Body)
	if err != nil {
		subErr := &graphload.SubmissionError{Err: err, Body: graphload.Preview(resp.Body)}
		s.logger.Error("%v", subErr)
		return graphload.JobHandle{}, subErr
	}

	handle := graphload.JobHandle{ID: id, Endpoint: s.client.Endpoint()}
	s.logger.Info("Load %s accepted (%s, source=%s)", id, req.Mode(), req.Source())

	if err := s.sleeper.Sleep(ctx, s.settleDelay); err != nil {
		return handle, fmt.Errorf("waiting for load %s to settle: %w", id, err)
	}
	return handle, nil
}
