// Package bot dispatches identified messages from a Channel to registered
// handlers on a single goroutine.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marcelohmariano/blade/internal/domain"
)

// Handler processes one message. A returned error ends Bot.Run.
type Handler func(ctx context.Context, msg domain.Message) error

// Bot consumes a Channel until it is closed and drained.
type Bot struct {
	ch       *Channel
	logger   *slog.Logger
	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates a bot reading from ch.
func New(ch *Channel, logger *slog.Logger) *Bot {
	return &Bot{
		ch:       ch,
		logger:   logger.With(slog.String("component", "bot")),
		handlers: make(map[string]Handler),
	}
}

// On registers h for messages identified by id, replacing any previous
// handler.
func (b *Bot) On(id string, h Handler) error {
	if id == "" {
		return errors.New("bot: message id is required")
	}
	if h == nil {
		return fmt.Errorf("bot: nil handler for %q", id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[id] = h
	return nil
}

// Run dispatches messages in arrival order. It returns nil when the channel
// is closed and drained, the first handler error otherwise. Messages with no
// registered handler are ignored.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot running")
	for {
		msg, err := b.ch.Next(ctx)
		if errors.Is(err, domain.ErrChannelClosed) {
			b.logger.Info("bot stopped")
			return nil
		}
		if err != nil {
			return err
		}

		b.mu.RLock()
		h, ok := b.handlers[msg.ID]
		b.mu.RUnlock()
		if !ok {
			continue
		}
		if err := h(ctx, msg); err != nil {
			return fmt.Errorf("bot: handle %s: %w", msg.ID, err)
		}
	}
}

// Stop closes the channel. Run returns after the queued messages are handled.
func (b *Bot) Stop() {
	b.ch.Close()
}

// Stopped reports whether Stop (or Channel.Close) has been called.
func (b *Bot) Stopped() bool {
	select {
	case <-b.ch.Done():
		return true
	default:
		return false
	}
}
