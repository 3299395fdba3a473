// Package publisher streams observer updates to NATS subscribers.
package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/sljivkov/dextick/domain"
	"github.com/sljivkov/dextick/tickmath"
)

// Conn is the part of a NATS connection the publisher uses
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends one JSON message per update on {prefix}.{pool}
type Publisher struct {
	conn      Conn
	prefix    string
	precision int32
	log       logrus.FieldLogger
}

// Message is the wire format of a published update
type Message struct {
	Pool         string                `json:"pool"`
	Block        uint64                `json:"block"`
	Timestamp    int64                 `json:"timestamp"`
	Price        *string               `json:"price"`
	Tick         *int64                `json:"tick"`
	Observations []tickmath.PricePoint `json:"observations"`
}

// Connect dials NATS at url, with reconnects left to the client
func Connect(url string, log logrus.FieldLogger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("dextick"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.WithError(err).Error("NATS error")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS %s: %w", url, err)
	}

	return conn, nil
}

// New creates a Publisher
func New(conn Conn, prefix string, precision int32, log logrus.FieldLogger) *Publisher {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Publisher{
		conn:      conn,
		prefix:    strings.TrimSuffix(prefix, "."),
		precision: precision,
		log:       log,
	}
}

// Subject returns the subject updates of pool are published on
func (p *Publisher) Subject(update domain.Update) string {
	return p.prefix + "." + strings.ToLower(update.Pool.Hex())
}

// Encode renders an update as a Message. Missing derivations are null.
func (p *Publisher) Encode(update domain.Update) Message {
	msg := Message{
		Pool:      update.Pool.Hex(),
		Block:     update.Block,
		Timestamp: update.At.Unix(),
	}

	if update.HasCurrentPrice {
		price := tickmath.FormatPrice(update.CurrentPrice, p.precision)
		tick := update.CurrentTick
		msg.Price = &price
		msg.Tick = &tick
	}

	if update.HasObservations {
		msg.Observations = update.Observations
	}

	return msg
}

// Publish sends update as JSON on its pool subject
func (p *Publisher) Publish(update domain.Update) error {
	data, err := json.Marshal(p.Encode(update))
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}

	subject := p.Subject(update)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", subject, err)
	}

	p.log.WithFields(logrus.Fields{"subject": subject, "block": update.Block}).Debug("📤 Update published")

	return nil
}
