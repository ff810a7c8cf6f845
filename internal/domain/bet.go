package domain

import "time"

// Bet is a stake on a single color. Two bets are equal when both color and
// amount match.
type Bet struct {
	Color  Color   `json:"color"`
	Amount float64 `json:"amount"`
}

// Outcome of a scored round.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeNone Outcome = "none" // nothing was staked
)

// RoundResult summarises one settled round for observers (recorder, metrics,
// pub/sub).
type RoundResult struct {
	ID        string    `json:"id"`
	Color     Color     `json:"color"`
	RolledAt  time.Time `json:"rolled_at"`
	Bets      []Bet     `json:"bets,omitempty"`
	Staked    float64   `json:"staked"`
	Outcome   Outcome   `json:"outcome"`
	Won       float64   `json:"won"`
	Balance   float64   `json:"balance"`
	Strategy  string    `json:"strategy,omitempty"`
	Stake     float64   `json:"next_stake"`
	LossCount int       `json:"consecutive_losses"`
}

// Round is a historical outcome as stored for replay.
type Round struct {
	ID       string    `json:"id"`
	Color    Color     `json:"color"`
	RolledAt time.Time `json:"rolled_at"`
}
