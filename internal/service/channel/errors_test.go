package channel

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{status: 500, kind: KindTransient},
		{status: 503, kind: KindTransient},
		{status: 429, kind: KindTransient},
		{status: 400, kind: KindPermanent},
		{status: 401, kind: KindPermanent},
		{status: 404, kind: KindPermanent},
	}
	for _, tt := range tests {
		err := FromHTTPStatus("facebook", tt.status, "body")
		assert.Equal(t, tt.kind, err.Kind, "status %d", tt.status)
		assert.Equal(t, "facebook", err.Channel)
	}
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(Permanent("twitter", "unauthorized", errors.New("status 401"))))
	assert.False(t, IsPermanent(Transient("twitter", "unexpected status 503", errors.New("status 503"))))

	// Wrapped channel errors still classify.
	wrapped := fmt.Errorf("publish failed: %w", Permanent("email", "bad recipient", nil))
	assert.True(t, IsPermanent(wrapped))

	// A cancelled caller must not burn retries.
	assert.True(t, IsPermanent(context.Canceled))

	// Anything unclassified gets the benefit of the doubt.
	assert.False(t, IsPermanent(errors.New("connection reset by peer")))
}

func TestReason(t *testing.T) {
	assert.Equal(t, "unauthorized", Reason(Permanent("twitter", "unauthorized", errors.New("status 401"))))
	assert.Equal(t, "plain failure", Reason(errors.New("plain failure")))
}

func TestErrorFormatting(t *testing.T) {
	err := Transient("facebook", "unexpected status 500", errors.New("status 500: oops"))
	assert.Equal(t, "facebook: unexpected status 500: status 500: oops", err.Error())
	assert.EqualError(t, Permanent("email", "bad recipient", nil), "email: bad recipient")
}
