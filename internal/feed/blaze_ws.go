package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/platform/blaze"
	"github.com/marcelohmariano/blade/internal/retry"
)

// Sink receives decoded messages; bot.Channel satisfies it.
type Sink interface {
	Add(ctx context.Context, msg domain.Message) error
}

// BlazeFeed connects to the Blaze replication socket, decodes double.tick
// events and adds them to the sink. It reconnects with backoff on
// disconnect. Malformed ticks are logged and dropped.
type BlazeFeed struct {
	cfg     blaze.WSConfig
	sink    Sink
	backoff retry.Policy
	now     func() time.Time
	logger  *slog.Logger
}

// NewBlazeFeed creates a feed writing to sink.
func NewBlazeFeed(cfg blaze.WSConfig, sink Sink, logger *slog.Logger) *BlazeFeed {
	return &BlazeFeed{
		cfg:     cfg,
		sink:    sink,
		backoff: retry.Policy{BaseDelay: 2 * time.Second, MaxDelay: time.Minute, Jitter: 500 * time.Millisecond},
		now:     time.Now,
		logger:  logger.With(slog.String("component", "blaze_feed")),
	}
}

// Run blocks until ctx is cancelled or the sink is closed.
func (f *BlazeFeed) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sinkErr error
	handler := func(id string, payload json.RawMessage) {
		msg, ok := f.decode(id, payload)
		if !ok {
			return
		}
		if err := f.sink.Add(ctx, msg); err != nil {
			sinkErr = err
			cancel()
		}
	}

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := blaze.NewWSClient(f.cfg, handler, f.logger).Run(ctx)
		if errors.Is(sinkErr, domain.ErrChannelClosed) {
			f.logger.Info("channel closed, stopping feed")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(start) > time.Minute {
			attempt = 1
		}

		wait := f.backoff.Backoff(attempt)
		f.logger.Warn("blaze ws disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("wait", wait),
		)
		if err := retry.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// decode turns a data event into a bot message. Non-tick ids pass through
// with an empty event so the bot can ignore them.
func (f *BlazeFeed) decode(id string, payload json.RawMessage) (domain.Message, bool) {
	if id != domain.MsgDoubleTick {
		return domain.Message{ID: id}, true
	}
	ev, err := blaze.DecodeTick(payload, f.now)
	switch {
	case errors.Is(err, domain.ErrUnknownPhase):
		f.logger.Debug("ignoring tick", slog.String("error", err.Error()))
		return domain.Message{}, false
	case err != nil:
		f.logger.Warn("dropping malformed tick",
			slog.String("error", err.Error()),
			slog.String("payload", string(payload)),
		)
		return domain.Message{}, false
	}
	return domain.Message{ID: id, Event: ev}, true
}
