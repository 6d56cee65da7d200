package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/aws/smithy-go"
)

// statusCoder is implemented by AWS SDK response errors
// (github.com/aws/aws-sdk-go-v2/aws/transport/http.ResponseError).
type statusCoder interface {
	HTTPStatusCode() int
}

// TransientErrorClassifier treats network failures, throttling and 5xx
// responses from object storage as retryable.
type TransientErrorClassifier struct{}

// NewTransientErrorClassifier creates a new classifier.
func NewTransientErrorClassifier() *TransientErrorClassifier {
	return &TransientErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *TransientErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// the caller gave up; retrying cannot help
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && transientCodes[apiErr.ErrorCode()] {
		return true
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return isTransientStatus(sc.HTTPStatusCode())
	}

	if c.isNetworkError(err) {
		return true
	}

	return c.hasTransientMessage(err)
}

// transientCodes are S3 error codes worth retrying.
var transientCodes = map[string]bool{
	"SlowDown":            true,
	"Throttling":          true,
	"ThrottlingException": true,
	"RequestTimeout":      true,
	"InternalError":       true,
	"ServiceUnavailable":  true,
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout ||
		code >= http.StatusInternalServerError
}

func (c *TransientErrorClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		if opErr.Err != nil {
			for _, errno := range []syscall.Errno{
				syscall.ECONNREFUSED,
				syscall.ECONNRESET,
				syscall.ENETUNREACH,
				syscall.EHOSTUNREACH,
			} {
				if errors.Is(opErr.Err, errno) {
					return true
				}
			}
		}
	}

	return false
}

func (c *TransientErrorClassifier) hasTransientMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"unexpected eof",
		"slowdown",
		"requesttimeout",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
