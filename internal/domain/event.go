package domain

import "time"

// Phase is the stage of a Double round.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseRolling Phase = "rolling"
)

// Valid reports whether p is a phase the bot acts on.
func (p Phase) Valid() bool {
	return p == PhaseWaiting || p == PhaseRolling
}

// MsgDoubleTick identifies round state messages on the event stream.
const MsgDoubleTick = "double.tick"

// Event is a single round state transition. Color is meaningful only when
// Phase is PhaseRolling.
type Event struct {
	RoundID string    `json:"round_id,omitempty"`
	Phase   Phase     `json:"phase"`
	Color   Color     `json:"color"`
	Time    time.Time `json:"time"`
}

// Key identifies the round an event belongs to. Sources without round ids
// fall back to the event time.
func (e Event) Key() string {
	if e.RoundID != "" {
		return e.RoundID
	}
	return e.Time.UTC().Format("20060102T150405.000Z")
}

// SamePhase reports whether two events describe the same round phase. Only
// the phase takes part in the comparison.
func (e Event) SamePhase(other Event) bool {
	return e.Phase == other.Phase
}

// Message is an identified event delivered through the bot channel.
type Message struct {
	ID    string
	Event Event
}

// WaitingEvent and RollingEvent build events at time t.
func WaitingEvent(t time.Time) Event {
	return Event{Phase: PhaseWaiting, Time: t}
}

func RollingEvent(c Color, t time.Time) Event {
	return Event{Phase: PhaseRolling, Color: c, Time: t}
}
