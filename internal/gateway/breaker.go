package gateway

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	Name        string
	MaxFailures uint32        // consecutive server-side failures before opening
	OpenTimeout time.Duration // how long the breaker stays open before probing
}

func (s BreakerSettings) named(suffix string) BreakerSettings {
	s.Name = s.Name + "-" + suffix
	return s
}

func newBreaker(s BreakerSettings) *gobreaker.CircuitBreaker[[]byte] {
	maxFailures := s.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// 4xx answers mean the service is up; only transport errors and 5xx trip the breaker.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var re *RemoteError
			if errors.As(err, &re) {
				return !re.serverSide()
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
