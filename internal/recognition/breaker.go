package recognition

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"codeberg.org/snonux/vocalens/internal/camera"
)

// BreakerRecognizer stops calling a failing provider for a cooldown period
// once it has failed a number of times in a row. While open, Recognize
// returns gobreaker.ErrOpenState immediately.
type BreakerRecognizer struct {
	next Recognizer
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerRecognizer wraps next with a circuit breaker
func NewBreakerRecognizer(next Recognizer, failures uint32, cooldown time.Duration, log *logrus.Entry) *BreakerRecognizer {
	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// a cancelled request says nothing about the provider
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).
					Warnf("Recognition circuit breaker %s changed state", name)
			}
		},
	}

	return &BreakerRecognizer{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Recognize runs the wrapped recognizer through the breaker
func (b *BreakerRecognizer) Recognize(ctx context.Context, img *camera.Image) (*Result, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Recognize(ctx, img)
	})
	if err != nil {
		return nil, err
	}
	return out.(*Result), nil
}

// Name returns the wrapped provider name
func (b *BreakerRecognizer) Name() string {
	return b.next.Name()
}

// State reports the breaker state for diagnostics
func (b *BreakerRecognizer) State() gobreaker.State {
	return b.cb.State()
}
