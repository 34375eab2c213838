package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Reason classifies why a provider call did not produce a payload.
type Reason string

const (
	ReasonUnavailable    Reason = "unavailable"
	ReasonTransportError Reason = "transport_error"
	ReasonRejected       Reason = "rejected"
)

// SourceFallback tags a payload that came from static data rather than a provider.
const SourceFallback = "fallback"

// Failure is the only error shape a provider client returns.
type Failure struct {
	Provider   string
	Reason     Reason
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	switch {
	case f.StatusCode != 0 && f.Err != nil:
		return fmt.Sprintf("%s: %s (status %d): %v", f.Provider, f.Reason, f.StatusCode, f.Err)
	case f.Err != nil:
		return fmt.Sprintf("%s: %s: %v", f.Provider, f.Reason, f.Err)
	default:
		return fmt.Sprintf("%s: %s", f.Provider, f.Reason)
	}
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// HTTPStatusCode reports the upstream status for rejected calls, 0 otherwise.
func (f *Failure) HTTPStatusCode() int {
	if f == nil {
		return 0
	}
	return f.StatusCode
}

func Unavailable(name string) *Failure {
	return &Failure{Provider: name, Reason: ReasonUnavailable, Err: errors.New("credential not configured")}
}

func Transport(name string, err error) *Failure {
	return &Failure{Provider: name, Reason: ReasonTransportError, Err: err}
}

// Rejected records a non-2xx answer. body is truncated by the caller.
func Rejected(name string, status int, body string) *Failure {
	return &Failure{Provider: name, Reason: ReasonRejected, StatusCode: status, Err: errors.New(body)}
}

// Malformed records a 2xx answer whose payload could not be normalized.
func Malformed(name string, err error) *Failure {
	return &Failure{Provider: name, Reason: ReasonRejected, Err: err}
}

// ReasonOf maps an arbitrary error to a failure reason.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonTransportError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ReasonTransportError
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ReasonTransportError
	}
	return ReasonRejected
}

// FromError returns err as a *Failure for provider name, classifying it when needed.
func FromError(name string, err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Provider: name, Reason: ReasonOf(err), Err: err}
}
