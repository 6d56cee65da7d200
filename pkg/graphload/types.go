package graphload

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode selects how a bulk load treats vertices and edges that already exist.
type Mode int

const (
	// ModeCreate appends new property values and lets the store queue the request.
	ModeCreate Mode = iota
	// ModeUpsert overwrites single-cardinality properties so repeated loads converge.
	ModeUpsert
)

// String returns the lowercase name used by the CLI.
func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeUpsert:
		return "upsert"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a CLI or config value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "create", "":
		return ModeCreate, nil
	case "upsert":
		return ModeUpsert, nil
	default:
		return 0, fmt.Errorf("%w: unknown load mode %q (expected create or upsert)", ErrInvalidRequest, s)
	}
}

// Parallelism is the concurrency hint passed to the bulk loader.
type Parallelism string

const (
	ParallelismLow    Parallelism = "LOW"
	ParallelismMedium Parallelism = "MEDIUM"
	ParallelismHigh   Parallelism = "HIGH"
)

// ParseParallelism validates a parallelism hint. An empty value yields DefaultParallelism.
func ParseParallelism(s string) (Parallelism, error) {
	switch p := Parallelism(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return DefaultParallelism, nil
	case ParallelismLow, ParallelismMedium, ParallelismHigh:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown parallelism %q (expected LOW, MEDIUM or HIGH)", ErrInvalidRequest, s)
	}
}

// LoadSpec describes what to load. The submission entry point supplies the mode.
type LoadSpec struct {
	Source      string
	IAMRoleARN  string
	Region      string
	Parallelism Parallelism
}

// LoadRequest is an immutable description of one bulk load submission.
// Queueing and single-cardinality overwrite are derived from the mode and
// cannot be set independently.
type LoadRequest struct {
	source      string
	iamRoleARN  string
	region      string
	mode        Mode
	parallelism Parallelism
}

// NewLoadRequest validates spec and fixes the mode for the lifetime of the request.
func NewLoadRequest(mode Mode, spec LoadSpec) (LoadRequest, error) {
	if strings.TrimSpace(spec.Source) == "" {
		return LoadRequest{}, fmt.Errorf("%w: source location is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(spec.IAMRoleARN) == "" {
		return LoadRequest{}, fmt.Errorf("%w: IAM role ARN is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(spec.Region) == "" {
		return LoadRequest{}, fmt.Errorf("%w: region is required", ErrInvalidRequest)
	}
	if mode != ModeCreate && mode != ModeUpsert {
		return LoadRequest{}, fmt.Errorf("%w: unsupported mode %s", ErrInvalidRequest, mode)
	}
	parallelism, err := ParseParallelism(string(spec.Parallelism))
	if err != nil {
		return LoadRequest{}, err
	}
	return LoadRequest{
		source:      spec.Source,
		iamRoleARN:  spec.IAMRoleARN,
		region:      spec.Region,
		mode:        mode,
		parallelism: parallelism,
	}, nil
}

func (r LoadRequest) Source() string           { return r.source }
func (r LoadRequest) IAMRoleARN() string       { return r.iamRoleARN }
func (r LoadRequest) Region() string           { return r.region }
func (r LoadRequest) Mode() Mode               { return r.mode }
func (r LoadRequest) Parallelism() Parallelism { return r.parallelism }

// QueueRequest reports whether the store may queue this load behind others.
func (r LoadRequest) QueueRequest() bool { return r.mode == ModeCreate }

// UpdateSingleCardinality reports whether existing single-cardinality
// property values are replaced instead of appended.
func (r LoadRequest) UpdateSingleCardinality() bool { return r.mode == ModeUpsert }

// JobHandle identifies an accepted load job. It is only valid against the
// endpoint that issued it.
type JobHandle struct {
	ID       string
	Endpoint string
}

func (h JobHandle) String() string { return h.ID }

// StatusCode is the overall status reported by the loader for a job.
type StatusCode string

// Status codes the poller distinguishes. Any other value reported by the
// store is a transitional sub-state.
const (
	StatusInQueue    StatusCode = "LOAD_IN_QUEUE"
	StatusInProgress StatusCode = "LOAD_IN_PROGRESS"
	StatusCompleted  StatusCode = "LOAD_COMPLETED"
	StatusFailed     StatusCode = "LOAD_FAILED"
)

// JobStatus is the result of one status fetch.
type JobStatus struct {
	Code StatusCode
	// Raw is the full response body, kept for diagnostics.
	Raw json.RawMessage
}

// Outcome is the terminal classification of a polling run.
type Outcome string

const (
	OutcomeCompleted       Outcome = "COMPLETED"
	OutcomeFailed          Outcome = "FAILED"
	OutcomeQueued          Outcome = "QUEUED"
	OutcomeBudgetExhausted Outcome = "BUDGET_EXHAUSTED"
)

// PollOutcome is what a polling run hands back to its caller.
// BUDGET_EXHAUSTED means the job state is unknown, not that it failed.
type PollOutcome struct {
	Outcome Outcome
	// Last is the most recent status observed. It is set on every iteration.
	Last       JobStatus
	Iterations int
}

// Terminal reports whether the remote job reached a final state.
func (o PollOutcome) Terminal() bool {
	return o.Outcome == OutcomeCompleted || o.Outcome == OutcomeFailed
}
