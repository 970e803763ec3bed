package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrRateLimit is a 429 from the provider. RetryAfter is zero when the
// provider gave no hint.
type ErrRateLimit struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("%srate limited (retry after %s): %v", providerPrefix(e.Provider), e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers 5xx responses, timeouts and transport
// failures. Retried.
type ErrProviderUnavailable struct {
	Provider string
	Err      error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return providerPrefix(e.Provider) + "provider unavailable"
	}
	return fmt.Sprintf("%sprovider unavailable: %v", providerPrefix(e.Provider), e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrRequestRejected is a 4xx other than 429 or 408: a bad API key, an
// unknown model or a malformed request. Sending it again cannot help.
type ErrRequestRejected struct {
	Provider string
	Status   int
	Err      error
}

func (e *ErrRequestRejected) Error() string {
	return fmt.Sprintf("%srequest rejected (HTTP %d): %v", providerPrefix(e.Provider), e.Status, e.Err)
}

func (e *ErrRequestRejected) Unwrap() error { return e.Err }

// ErrInvalidResponse means the model answered, but not with JSON matching
// the requested schema. Content keeps the raw answer for the event log.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid model response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means a structured response was cut off at
// MaxTokens. The partial content cannot be trusted.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "model response truncated at max tokens"
}

// classifyStatus turns the HTTP status of a provider SDK error into one of
// the typed errors above.
func classifyStatus(provider string, status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Provider: provider, Err: err}
	case status == http.StatusRequestTimeout:
		return &ErrProviderUnavailable{Provider: provider, Err: err}
	case status >= 400 && status < 500:
		return &ErrRequestRejected{Provider: provider, Status: status, Err: err}
	default:
		return &ErrProviderUnavailable{Provider: provider, Err: err}
	}
}

// parseRetryAfter reads a Retry-After header given in seconds. Dates and
// junk yield zero, which falls back to exponential backoff.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func providerPrefix(provider string) string {
	if provider == "" {
		return ""
	}
	return provider + ": "
}
