package play

import (
	"context"

	"github.com/marcelohmariano/blade/internal/domain"
)

// Round drives the per-round state machine. An event whose phase equals the
// previous event's phase is a no-op, so each transition runs its action once.
type Round struct {
	actions map[domain.Phase]Action
	last    domain.Event
	seen    bool
}

// NewRound returns a Round with no actions registered.
func NewRound() *Round {
	return &Round{actions: make(map[domain.Phase]Action)}
}

// When binds action to phase, replacing any previous binding.
func (r *Round) When(phase domain.Phase, action Action) {
	r.actions[phase] = action
}

// Handle is a bot handler. Phases without an action still count for
// de-duplication.
func (r *Round) Handle(ctx context.Context, msg domain.Message) error {
	ev := msg.Event
	if r.seen && r.last.SamePhase(ev) {
		return nil
	}
	r.last, r.seen = ev, true

	action, ok := r.actions[ev.Phase]
	if !ok {
		return nil
	}
	return action.Run(ctx, ev)
}
