package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a publish failure for the retry logic.
type Kind string

const (
	// KindTransient covers timeouts, connection errors, 5xx responses and
	// rate limits. Worth retrying.
	KindTransient Kind = "transient"
	// KindPermanent covers auth failures and rejected payloads. Retrying
	// cannot help.
	KindPermanent Kind = "permanent"
)

// Error is a publish failure with enough context for retry decisions.
type Error struct {
	Channel string
	Kind    Kind
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Channel, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Channel, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable failure.
func Transient(channel, reason string, err error) *Error {
	return &Error{Channel: channel, Kind: KindTransient, Reason: reason, Err: err}
}

// Permanent wraps err as a failure retrying cannot fix.
func Permanent(channel, reason string, err error) *Error {
	return &Error{Channel: channel, Kind: KindPermanent, Reason: reason, Err: err}
}

// FromHTTPStatus classifies a non-2xx response: 5xx and 429 are transient,
// any other 4xx is permanent.
func FromHTTPStatus(channel string, status int, body string) *Error {
	reason := fmt.Sprintf("unexpected status %d", status)
	err := fmt.Errorf("status %d: %s", status, body)
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		return Transient(channel, reason, err)
	}
	return Permanent(channel, reason, err)
}

// IsPermanent reports whether retrying err is pointless. Unknown errors
// count as transient so a flaky network gets its retries; the attempt
// ceiling bounds the damage.
func IsPermanent(err error) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind == KindPermanent
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return false
}

// Reason extracts the short failure reason for status records.
func Reason(err error) string {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Reason
	}
	return err.Error()
}
