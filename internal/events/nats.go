package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// NewNATS constructs a thin NATS-backed publisher. Events go to
// rocket.events.<type>.
func NewNATS(log *slog.Logger, nc *nats.Conn) Publisher {
	return &natsPublisher{log: log, nc: nc}
}

type natsPublisher struct {
	log *slog.Logger
	nc  *nats.Conn
}

func (p *natsPublisher) Publish(_ context.Context, e Event) error {
	if e.Type == "" {
		return errors.New("event type required")
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := p.nc.Publish("rocket.events."+string(e.Type), body); err != nil {
		p.log.Warn("event publish failed", "type", e.Type, "err", err)
		return err
	}
	return nil
}

func (p *natsPublisher) Close() error {
	p.nc.Close()
	return nil
}
