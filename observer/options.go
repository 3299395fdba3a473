package observer

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/sljivkov/dextick/domain"
)

// Metrics receives per-pass telemetry
type Metrics interface {
	ObservePass(pool common.Address, took time.Duration, update domain.Update)
	DerivationFailed(pool common.Address, derivation string)
	SubscriptionError(pool common.Address)
}

type nopMetrics struct{}

func (nopMetrics) ObservePass(common.Address, time.Duration, domain.Update) {}
func (nopMetrics) DerivationFailed(common.Address, string)                 {}
func (nopMetrics) SubscriptionError(common.Address)                        {}

// Option is a function that modifies an Observer
type Option func(*Observer)

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Observer) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics sets the telemetry sink
func WithMetrics(m Metrics) Option {
	return func(o *Observer) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithResubscribeBackoff caps the wait between head resubscription attempts
func WithResubscribeBackoff(d time.Duration) Option {
	return func(o *Observer) {
		if d > 0 {
			o.backoff = d
		}
	}
}

// WithClock overrides the time source used to stamp updates
func WithClock(now func() time.Time) Option {
	return func(o *Observer) {
		if now != nil {
			o.now = now
		}
	}
}
