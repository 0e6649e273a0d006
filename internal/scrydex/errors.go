package scrydex

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the upstream answers 2xx with no body.
var ErrEmptyResponse = errors.New("scrydex: empty response body")

// APIError is a non-2xx response from the upstream API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scrydex: api error %d: %s", e.StatusCode, e.Message)
}

// RateLimitError is the 429 case, split out so callers can apply the
// cooldown-and-retry-once policy instead of the skip policy.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("scrydex: rate limited: %s", e.Message)
}

// ParseError is a 2xx response whose body is not valid JSON.
type ParseError struct {
	RawBody []byte
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("scrydex: malformed response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransientError covers timeouts and connection-level failures that are
// worth retrying with backoff.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("scrydex: transient network error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsRateLimit reports whether err is the upstream rate limiter pushing back.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}
