package mirror

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type BreakerConfig struct {
	Name     string
	Failures uint32
	Open     time.Duration
	Interval time.Duration
}

var DefaultBreakerConfig = BreakerConfig{
	Name:     "mirror",
	Failures: 5,
	Open:     30 * time.Second,
	Interval: time.Minute,
}

// BreakerPublisher stops calling a failing publisher for a while once it
// has failed Failures times in a row.
type BreakerPublisher struct {
	inner Publisher
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerPublisher(inner Publisher, cfg BreakerConfig, log logrus.FieldLogger) *BreakerPublisher {
	log = log.WithField("component", "breaker")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     cfg.Name,
		Interval: cfg.Interval,
		Timeout:  cfg.Open,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("Circuit breaker state changed")
		},
	})
	return &BreakerPublisher{inner: inner, cb: cb}
}

func (b *BreakerPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.Publish(ctx, key, payload)
	})
	return err
}

func (b *BreakerPublisher) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerPublisher) Close() error {
	return b.inner.Close()
}
