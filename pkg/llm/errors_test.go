package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorKind(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindAuthRejected},
		{http.StatusForbidden, KindAuthRejected},
		{http.StatusInternalServerError, KindTransient},
		{http.StatusBadGateway, KindTransient},
		{http.StatusServiceUnavailable, KindTransient},
		{http.StatusBadRequest, KindPermanent},
		{http.StatusNotFound, KindPermanent},
		{http.StatusUnprocessableEntity, KindPermanent},
	}
	for _, tc := range cases {
		err := &APIError{Provider: "rotating", Status: tc.status}
		assert.Equal(t, tc.want, err.Kind(), "status %d", tc.status)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindRateLimited, KindOf(&APIError{Status: 429}))
	assert.Equal(t, KindRateLimited, KindOf(fmt.Errorf("wrapped: %w", &APIError{Status: 429})))
	assert.Equal(t, KindTransient, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindTransient, KindOf(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.Equal(t, KindTransient, KindOf(errors.New("something odd")))
}

func TestExhaustedErrorUnwrap(t *testing.T) {
	last := &APIError{Status: 429, Provider: "rotating"}
	err := &ExhaustedError{Attempts: 3, Last: last}
	assert.ErrorIs(t, err, last)
	assert.Contains(t, err.Error(), "3 credentials")
}

func TestBothFailedErrorUnwrap(t *testing.T) {
	p := &RejectedError{Status: 500}
	f := &ExhaustedError{Attempts: 2, Last: errors.New("x")}
	err := &BothFailedError{Primary: p, Fallback: f}

	assert.ErrorIs(t, err, p)
	assert.ErrorIs(t, err, f)

	var rejected *RejectedError
	assert.ErrorAs(t, err, &rejected)
}
