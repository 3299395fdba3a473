package cmd

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sljivkov/dextick/domain"
)

type sink struct {
	name string
	put  func(ctx context.Context, update domain.Update) error
}

// Fanout hands every observer update to all registered sinks
type Fanout struct {
	sinks []sink
	log   logrus.FieldLogger
}

// NewFanout creates a Fanout without sinks
func NewFanout(log logrus.FieldLogger) *Fanout {
	return &Fanout{log: log}
}

// Add registers a sink. Sinks run in registration order.
func (f *Fanout) Add(name string, put func(ctx context.Context, update domain.Update) error) {
	f.sinks = append(f.sinks, sink{name: name, put: put})
}

// Run drains in until it is closed. A failing sink is logged and does not
// hold back the others.
func (f *Fanout) Run(ctx context.Context, in <-chan domain.Update) {
	for update := range in {
		for _, s := range f.sinks {
			if err := s.put(ctx, update); err != nil {
				f.log.WithError(err).WithFields(logrus.Fields{
					"sink":  s.name,
					"block": update.Block,
				}).Error("❌ Failed to deliver update")
			}
		}
	}
}
