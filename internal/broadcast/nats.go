package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
	"git.home.luguber.info/inful/luxd/internal/events"
)

// NATSPublisher mirrors accepted lighting changes onto a NATS subject
// for external integrations. Best-effort like the SSE hub: publish
// failures are logged and dropped, never retried.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the given NATS server.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("luxd"))
	if err != nil {
		return nil, luxerrors.Wrap(err, luxerrors.CategoryRuntime, luxerrors.SeverityWarning, "nats connect failed").
			WithContext("url", url)
	}

	slog.Info("nats publisher connected", "url", url, "subject", subject)
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish sends one lighting frame.
func (p *NATSPublisher) Publish(frame lightingFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		slog.Warn("nats publish failed", "subject", p.subject, "error", err)
	}
}

// Run forwards accepted lighting changes from the bus until ctx is
// canceled or the bus closes.
func (p *NATSPublisher) Run(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := events.Subscribe[events.LightingChanged](bus, 64)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			p.Publish(lightingFrame{Lighting: evt.New})
		}
	}
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
