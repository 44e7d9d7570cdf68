package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// FailureKind classifies a backend call failure.
type FailureKind string

const (
	FailureTimeout   FailureKind = "timeout"
	FailureAuth      FailureKind = "auth"
	FailureQuota     FailureKind = "quota"
	FailureMalformed FailureKind = "malformed-response"
)

// Failure is a typed backend call failure. The router uses the kind to log
// fallback causes; nothing in the pipeline retries beyond the router's
// single fallback attempt.
type Failure struct {
	Backend string
	Kind    FailureKind
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s backend %s: %v", f.Backend, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure wraps err as a typed backend failure.
func NewFailure(backend string, kind FailureKind, err error) *Failure {
	return &Failure{Backend: backend, Kind: kind, Err: err}
}

// KindOf returns the failure kind for err, classifying untyped network
// timeouts as FailureTimeout. Unclassifiable errors report as malformed.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return FailureTimeout
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "authentication") || strings.Contains(msg, "api key"):
		return FailureAuth
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota") || strings.Contains(msg, "overloaded"):
		return FailureQuota
	default:
		return FailureMalformed
	}
}

// classifyStatus maps an HTTP status to a failure kind.
func classifyStatus(status int) FailureKind {
	switch {
	case status == 401 || status == 403:
		return FailureAuth
	case status == 429:
		return FailureQuota
	case status == 408 || status == 504:
		return FailureTimeout
	default:
		return FailureMalformed
	}
}
