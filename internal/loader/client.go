package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vvka-141/graphload/pkg/graphload"
)

// maxResponseBytes bounds how much of a loader response is read.
const maxResponseBytes = 4 << 20

// RequestSigner authenticates an outgoing loader request.
type RequestSigner interface {
	Sign(ctx context.Context, req *http.Request, body []byte) error
}

// ClientConfig configures the loader HTTP client.
type ClientConfig struct {
	// Endpoint is the loader URL, e.g. https://cluster:8182/loader.
	Endpoint string

	// Timeout bounds a single HTTP exchange (default: 30s).
	Timeout time.Duration

	// RateLimit is the request rate per second shared by every job using
	// this client (default: 10).
	RateLimit float64

	// RateBurst is the limiter burst size (default: 5).
	RateBurst int

	// Signer, when set, signs every request (IAM database authentication).
	Signer RequestSigner

	// Transport allows injecting a custom HTTP transport (for tests).
	Transport http.RoundTripper
}

// Client talks to the loader endpoint. It is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	signer     RequestSigner
}

// NewClient validates the endpoint and applies defaults.
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint := strings.TrimSuffix(strings.TrimSpace(cfg.Endpoint), "/")
	u, err := url.Parse(endpoint)
	if err != nil || endpoint == "" {
		return nil, fmt.Errorf("%w: loader endpoint %q is not a valid URL", graphload.ErrInvalidConfig, cfg.Endpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: loader endpoint %q must use http or https", graphload.ErrInvalidConfig, cfg.Endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: loader endpoint %q has no host", graphload.ErrInvalidConfig, cfg.Endpoint)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = graphload.DefaultRequestTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = graphload.DefaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = graphload.DefaultRateBurst
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		signer:  cfg.Signer,
	}, nil
}

// Endpoint returns the normalized loader URL. Job handles are only valid
// against the endpoint that issued them.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// response is a fully read loader response.
type response struct {
	StatusCode int
	Body       []byte
}

func (r *response) ok() bool {
	return r.StatusCode == http.StatusOK
}

// postLoad sends one load submission.
func (c *Client) postLoad(ctx context.Context, payload loadPayload) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode load request: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.endpoint, body)
}

// getStatus fetches the status of one job.
func (c *Client) getStatus(ctx context.Context, jobID string) (*response, error) {
	return c.do(ctx, http.MethodGet, c.endpoint+"/"+url.PathEscape(jobID), nil)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.signer != nil {
		if err := c.signer.Sign(ctx, req, body); err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &response{StatusCode: resp.StatusCode, Body: data}, nil
}
