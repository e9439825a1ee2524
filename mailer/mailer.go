package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// ErrNoProvider indicates no delivery provider is configured.
var ErrNoProvider = errors.New("no email provider configured")

// Message is one HTML email to several recipients.
type Message struct {
	Subject string
	HTML    string
	To      []string
}

// Receipt tells which provider accepted a message.
type Receipt struct {
	Provider string          `json:"provider"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Provider delivers messages through one channel.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// Dispatcher tries providers in order until one accepts the message.
type Dispatcher struct {
	providers []Provider
	logger    *slog.Logger
}

func NewDispatcher(logger *slog.Logger, providers ...Provider) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{providers: providers, logger: logger}
}

// Send returns the receipt of the first provider that succeeds, or the error
// of the last one that failed.
func (d *Dispatcher) Send(ctx context.Context, msg Message) (Receipt, error) {
	if len(d.providers) == 0 {
		return Receipt{}, ErrNoProvider
	}
	var lastErr error
	for _, p := range d.providers {
		receipt, err := p.Send(ctx, msg)
		if err == nil {
			d.logger.Info("email sent", "provider", p.Name(), "recipients", len(msg.To))
			return receipt, nil
		}
		d.logger.Warn("email provider failed", "provider", p.Name(), "error", err)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return Receipt{}, lastErr
}
