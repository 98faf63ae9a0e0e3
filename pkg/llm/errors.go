package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a generation failure. The classification drives the
// retry/rotate policy: rate-limited and auth-rejected failures are
// credential-specific and trigger rotation, transient failures are retried
// on the same credential with backoff, permanent failures are not retried
// at all.
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimited
	KindAuthRejected
	KindTransient
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindAuthRejected:
		return "auth_rejected"
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// APIError is a non-2xx response from a generation endpoint.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API error %d: %s", e.Provider, e.Status, e.Body)
}

// Kind maps the HTTP status onto the retry policy: 429 rotates, 401/403
// rotate, 5xx backs off, anything else is a request-shape problem and is
// not retried.
func (e *APIError) Kind() Kind {
	switch {
	case e.Status == http.StatusTooManyRequests:
		return KindRateLimited
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return KindAuthRejected
	case e.Status >= 500:
		return KindTransient
	default:
		return KindPermanent
	}
}

// KindOf classifies an arbitrary error from a generation attempt.
// Timeouts and connection errors are transient; typed API errors carry
// their own classification.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	// Unrecognized transport-level failures are treated as transient rather
	// than permanent: rotating credentials cannot fix them, but a retry can.
	return KindTransient
}

// ExhaustedError reports that every credential in the pool failed for a
// single request. It carries the last error seen.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("llm: all %d credentials exhausted: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// UnavailableError reports that the primary service could not be reached
// (network error or timeout).
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("primary: unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RejectedError reports a non-2xx application response from the primary
// service.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("primary: rejected with status %d: %s", e.Status, e.Body)
}

// BothFailedError is the only terminal failure the calling pipeline sees:
// the primary provider and the rotating fallback both failed for the same
// request.
type BothFailedError struct {
	Primary  error
	Fallback error
}

func (e *BothFailedError) Error() string {
	return fmt.Sprintf("llm: both providers failed: primary: %v; fallback: %v", e.Primary, e.Fallback)
}

func (e *BothFailedError) Unwrap() []error {
	var errs []error
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}
