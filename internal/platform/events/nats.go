package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"algotutor/internal/domain/model"

	"github.com/nats-io/nats.go"
)

func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("algotutor-gateway"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("could not connect to nats at %s: %w", url, err)
	}
	slog.Info("connected to nats", "url", nc.ConnectedUrl())
	return nc, nil
}

// NatsPublisher announces finished submissions on a single subject.
type NatsPublisher struct {
	nc      *nats.Conn
	subject string
}

func NewNatsPublisher(nc *nats.Conn, subject string) *NatsPublisher {
	return &NatsPublisher{nc: nc, subject: subject}
}

func (p *NatsPublisher) PublishCompletion(ev model.CompletionEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal completion event: %w", err)
	}
	if err := p.nc.Publish(p.subject, b); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}
