package observe

import (
	"context"
	"log/slog"

	"github.com/marcelohmariano/blade/internal/domain"
)

// Recorder persists every rolled outcome so it can be replayed later.
type Recorder struct {
	store  domain.RoundStore
	logger *slog.Logger
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store domain.RoundStore, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger.With(slog.String("component", "round_recorder"))}
}

// OnRound inserts the round. Failures are logged and do not stop the bot.
func (r *Recorder) OnRound(ctx context.Context, res domain.RoundResult) {
	round := domain.Round{ID: res.ID, Color: res.Color, RolledAt: res.RolledAt}
	if err := r.store.Insert(ctx, round); err != nil {
		r.logger.Warn("round insert failed",
			slog.String("round", res.ID),
			slog.String("error", err.Error()),
		)
	}
}
