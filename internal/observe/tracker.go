// Package observe holds the round observers the bot fans settled rounds out
// to: persistence, pub/sub, audit and the in-memory status kept for the API.
package observe

import (
	"context"
	"sync"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
)

// Status is the bot state served by the status API and published on the
// status channel.
type Status struct {
	Mode              string              `json:"mode"`
	Strategy          string              `json:"strategy,omitempty"`
	Running           bool                `json:"running"`
	StartedAt         time.Time           `json:"started_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Balance           float64             `json:"balance"`
	NextStake         float64             `json:"next_stake"`
	Rounds            int                 `json:"rounds"`
	Bets              int                 `json:"bets"`
	Wins              int                 `json:"wins"`
	Losses            int                 `json:"losses"`
	ConsecutiveLosses int                 `json:"consecutive_losses"`
	StopReason        string              `json:"stop_reason,omitempty"`
	Last              *domain.RoundResult `json:"last_round,omitempty"`
}

const defaultRecent = 100

// Tracker keeps the running Status and a ring of recent rounds. Safe for
// concurrent use: the bot writes, HTTP handlers read.
type Tracker struct {
	mu     sync.RWMutex
	status Status
	ring   []domain.RoundResult
	next   int
	full   bool
	now    func() time.Time
}

// NewTracker creates a tracker remembering up to size recent rounds.
func NewTracker(mode, strategy string, balance float64, size int) *Tracker {
	if size <= 0 {
		size = defaultRecent
	}
	now := time.Now().UTC()
	return &Tracker{
		status: Status{
			Mode:      mode,
			Strategy:  strategy,
			Running:   true,
			StartedAt: now,
			UpdatedAt: now,
			Balance:   balance,
		},
		ring: make([]domain.RoundResult, size),
		now:  time.Now,
	}
}

// OnRound records res.
func (t *Tracker) OnRound(_ context.Context, res domain.RoundResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.status
	s.UpdatedAt = t.now().UTC()
	s.Rounds++
	s.Balance = res.Balance
	s.NextStake = res.Stake
	s.ConsecutiveLosses = res.LossCount
	s.Bets += len(res.Bets)
	switch res.Outcome {
	case domain.OutcomeWin:
		s.Wins++
	case domain.OutcomeLoss:
		s.Losses++
	}
	last := res
	s.Last = &last

	t.ring[t.next] = res
	t.next = (t.next + 1) % len(t.ring)
	if t.next == 0 {
		t.full = true
	}
}

// Stopped marks the bot as no longer running.
func (t *Tracker) Stopped(reason error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Running = false
	t.status.UpdatedAt = t.now().UTC()
	if reason != nil {
		t.status.StopReason = reason.Error()
	}
}

// Status returns a copy of the current status.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.status
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	return s
}

// Recent returns up to limit rounds, newest first. limit <= 0 returns all
// retained rounds.
func (t *Tracker) Recent(limit int) []domain.RoundResult {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.next
	if t.full {
		n = len(t.ring)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.RoundResult, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (t.next - i + len(t.ring)) % len(t.ring)
		out = append(out, t.ring[idx])
	}
	return out
}
