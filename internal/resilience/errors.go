// Package resilience classifies external-call failures for the extraction
// orchestrator. The only recoverable class is rate limiting (quota / 429);
// everything else is permanent and must not be retried.
package resilience

import (
	"errors"
	"strings"
)

// RateLimitError wraps an error caused by upstream quota exhaustion. The
// orchestrator retries these with a bounded wait; all other errors fail the
// strategy immediately.
type RateLimitError struct {
	Err        error
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return e.Err.Error()
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError wraps an error as rate-limited with an optional HTTP
// status code.
func NewRateLimitError(err error, statusCode int) *RateLimitError {
	return &RateLimitError{Err: err, StatusCode: statusCode}
}

// quotaPatterns are message fragments that identify quota errors from
// clients that do not classify their own failures.
var quotaPatterns = []string{
	"429",
	"quota",
	"rate limit",
	"resource_exhausted",
	"too many requests",
}

// IsRateLimited reports whether the error (or any error in its chain) is a
// RateLimitError, or whether its message matches common quota patterns.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range quotaPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
