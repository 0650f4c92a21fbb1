package infra

import (
	"errors"
	"net/textproto"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrInvalidRecipient marks a send rejected because of the address, not the relay.
var ErrInvalidRecipient = errors.New("mailer: invalid recipient")

// BreakerConfig tunes the SMTP breaker.
type BreakerConfig struct {
	FailureThreshold uint32        // consecutive relay failures that open it
	HalfOpenRequests uint32        // successful half-open sends needed to close it
	OpenTimeout      time.Duration // time spent open before letting sends through again
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, HalfOpenRequests: 2, OpenTimeout: 60 * time.Second}
}

// NewSMTPBreaker returns the breaker guarding receipt e-mails. Recipient
// errors are returned to the caller but do not count against the relay.
func NewSMTPBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = def.HalfOpenRequests
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsRecipientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

// IsRecipientError reports whether err is about the destination address:
// rejected locally, or refused by the relay with a permanent mailbox reply.
func IsRecipientError(err error) bool {
	if errors.Is(err, ErrInvalidRecipient) {
		return true
	}
	var reply *textproto.Error
	if errors.As(err, &reply) {
		switch reply.Code {
		case 501, 550, 553: // bad syntax, mailbox unavailable, name not allowed
			return true
		}
	}
	return false
}
