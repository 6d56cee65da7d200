package loader

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vvka-141/graphload/pkg/graphload"
)

// Constant fields of every load submission.
const (
	formatCSV        = "csv"
	loaderModeAuto   = "AUTO"
	failOnErrorFalse = "FALSE"
)

// loadPayload is the JSON body of a load submission.
type loadPayload struct {
	Source                            string `json:"source"`
	Format                            string `json:"format"`
	Mode                              string `json:"mode"`
	IAMRoleARN                        string `json:"iamRoleArn"`
	Region                            string `json:"region"`
	FailOnError                       string `json:"failOnError"`
	Parallelism                       string `json:"parallelism"`
	QueueRequest                      string `json:"queueRequest"`
	UpdateSingleCardinalityProperties string `json:"updateSingleCardinalityProperties"`
}

func newLoadPayload(req graphload.LoadRequest) loadPayload {
	return loadPayload{
		Source:                            req.Source(),
		Format:                            formatCSV,
		Mode:                              loaderModeAuto,
		IAMRoleARN:                        req.IAMRoleARN(),
		Region:                            req.Region(),
		FailOnError:                       failOnErrorFalse,
		Parallelism:                       string(req.Parallelism()),
		QueueRequest:                      boolFlag(req.QueueRequest()),
		UpdateSingleCardinalityProperties: boolFlag(req.UpdateSingleCardinality()),
	}
}

// boolFlag renders booleans the way the loader expects them.
func boolFlag(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

type submitResponse struct {
	Status  string `json:"status"`
	Payload *struct {
		LoadID string `json:"loadId"`
	} `json:"payload"`
}

// parseLoadID extracts payload.loadId from an accepted submission.
func parseLoadID(body []byte) (string, error) {
	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", graphload.ErrMalformedResponse, err)
	}
	if resp.Payload == nil {
		return "", fmt.Errorf("%w: missing payload", graphload.ErrMalformedResponse)
	}
	id := strings.TrimSpace(resp.Payload.LoadID)
	if id == "" {
		return "", fmt.Errorf("%w: missing payload.loadId", graphload.ErrMalformedResponse)
	}
	return id, nil
}

type statusResponse struct {
	Status  string `json:"status"`
	Payload *struct {
		OverallStatus *struct {
			Status string `json:"status"`
		} `json:"overallStatus"`
	} `json:"payload"`
}

// parseStatus extracts payload.overallStatus.status and keeps the raw body.
func parseStatus(body []byte) (graphload.JobStatus, error) {
	var resp statusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return graphload.JobStatus{}, fmt.Errorf("%w: %v", graphload.ErrMalformedResponse, err)
	}
	switch {
	case resp.Payload == nil:
		return graphload.JobStatus{}, fmt.Errorf("%w: missing payload", graphload.ErrMalformedResponse)
	case resp.Payload.OverallStatus == nil:
		return graphload.JobStatus{}, fmt.Errorf("%w: missing payload.overallStatus", graphload.ErrMalformedResponse)
	case strings.TrimSpace(resp.Payload.OverallStatus.Status) == "":
		return graphload.JobStatus{}, fmt.Errorf("%w: missing payload.overallStatus.status", graphload.ErrMalformedResponse)
	}

	raw := make(json.RawMessage, len(body))
	copy(raw, body)
	return graphload.JobStatus{
		Code: graphload.StatusCode(strings.TrimSpace(resp.Payload.OverallStatus.Status)),
		Raw:  raw,
	}, nil
}
