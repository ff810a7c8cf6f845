package observe

import (
	"context"
	"log/slog"

	"github.com/marcelohmariano/blade/internal/domain"
)

// Audit events written by the bot.
const (
	EventBotStarted   = "bot_started"
	EventBotStopped   = "bot_stopped"
	EventRoundSettled = "round_settled"
)

// Auditor appends scored rounds and lifecycle events to the audit log.
type Auditor struct {
	store  domain.AuditStore
	logger *slog.Logger
}

// NewAuditor creates an Auditor.
func NewAuditor(store domain.AuditStore, logger *slog.Logger) *Auditor {
	return &Auditor{store: store, logger: logger.With(slog.String("component", "auditor"))}
}

// OnRound logs rounds that had bets on them.
func (a *Auditor) OnRound(ctx context.Context, res domain.RoundResult) {
	if res.Outcome == domain.OutcomeNone {
		return
	}
	a.Log(ctx, EventRoundSettled, map[string]any{
		"round":   res.ID,
		"color":   res.Color.String(),
		"bets":    res.Bets,
		"staked":  res.Staked,
		"outcome": string(res.Outcome),
		"won":     res.Won,
		"balance": res.Balance,
	})
}

// Log writes one audit entry, logging failures. Without a store it does
// nothing.
func (a *Auditor) Log(ctx context.Context, event string, detail map[string]any) {
	if a.store == nil {
		return
	}
	if err := a.store.Log(ctx, event, detail); err != nil {
		a.logger.Warn("audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
