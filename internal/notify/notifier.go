// Package notify sends bot lifecycle alerts to chat channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Event types operators can subscribe to.
const (
	EventBotStarted          = "bot_started"
	EventBotStopped          = "bot_stopped"
	EventInsufficientBalance = "insufficient_balance"
	EventError               = "error"
)

// Sender delivers one message to a channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier forwards events to every sender. When an allow-list is
// configured, other event types are dropped.
type Notifier struct {
	senders []Sender
	allowed map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. An empty events list allows everything.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends the event unless it is filtered out. A failing sender does
// not prevent delivery to the others; all failures are joined.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if n == nil || len(n.senders) == 0 {
		return nil
	}
	if len(n.allowed) > 0 && !n.allowed[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}

	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// BotStarted announces a start in the given mode.
func (n *Notifier) BotStarted(ctx context.Context, mode, strategy string, balance float64) error {
	return n.Notify(ctx, EventBotStarted, "Bot started",
		fmt.Sprintf("mode: %s\nstrategy: %s\nbalance: %.2f", mode, strategy, balance))
}

// BotStopped announces a stop. Insufficient balance is reported under its
// own event type.
func (n *Notifier) BotStopped(ctx context.Context, reason error, status string) error {
	switch {
	case reason == nil:
		return n.Notify(ctx, EventBotStopped, "Bot stopped", status)
	case isInsufficient(reason):
		return n.Notify(ctx, EventInsufficientBalance, "Insufficient balance", status)
	default:
		return n.Notify(ctx, EventError, "Bot failed", reason.Error()+"\n"+status)
	}
}
