package infra

import (
	"errors"
	"fmt"
	"net/textproto"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRelay = errors.New("smtp down")

func send(cb *gobreaker.CircuitBreaker, err error) error {
	_, out := cb.Execute(func() (interface{}, error) { return nil, err })
	return out
}

func TestSMTPBreaker_TripsAndRecovers(t *testing.T) {
	cb := NewSMTPBreaker(BreakerConfig{FailureThreshold: 2, HalfOpenRequests: 1, OpenTimeout: 20 * time.Millisecond})

	assert.ErrorIs(t, send(cb, errRelay), errRelay)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.ErrorIs(t, send(cb, errRelay), errRelay)
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	calls := 0
	_, err := cb.Execute(func() (interface{}, error) { calls++; return nil, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, calls)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, cb.State())
	require.NoError(t, send(cb, nil))
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestSMTPBreaker_RecipientErrorsDoNotTrip(t *testing.T) {
	cb := NewSMTPBreaker(BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour})

	badAddr := fmt.Errorf("%w: nobody", ErrInvalidRecipient)
	mailbox := &textproto.Error{Code: 550, Msg: "mailbox unavailable"}
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, send(cb, badAddr), ErrInvalidRecipient)
		assert.Error(t, send(cb, mailbox))
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, "closed", cb.State().String())

	// A transient 4xx reply is a relay problem.
	busy := &textproto.Error{Code: 421, Msg: "service not available"}
	_ = send(cb, busy)
	_ = send(cb, busy)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestIsRecipientError(t *testing.T) {
	assert.True(t, IsRecipientError(fmt.Errorf("send: %w", ErrInvalidRecipient)))
	assert.True(t, IsRecipientError(fmt.Errorf("send: %w", &textproto.Error{Code: 553})))
	assert.False(t, IsRecipientError(&textproto.Error{Code: 451}))
	assert.False(t, IsRecipientError(errRelay))
	assert.False(t, IsRecipientError(nil))
}
