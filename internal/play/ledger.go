package play

import "github.com/marcelohmariano/blade/internal/domain"

// Ledger is the ordered set of bets placed in the current round. Identical
// bets (same color and amount) collapse into one entry and the running total
// always equals the sum of the unique entries.
type Ledger struct {
	bets  []domain.Bet
	total float64
}

// Add records b unless an identical bet is already present. It reports
// whether the bet was added.
func (l *Ledger) Add(b domain.Bet) bool {
	if l.Contains(b) {
		return false
	}
	l.bets = append(l.bets, b)
	l.total += b.Amount
	return true
}

// Contains reports whether an identical bet is recorded.
func (l *Ledger) Contains(b domain.Bet) bool {
	for _, existing := range l.bets {
		if existing == b {
			return true
		}
	}
	return false
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	l.bets = l.bets[:0]
	l.total = 0
}

func (l *Ledger) Len() int { return len(l.bets) }

func (l *Ledger) Empty() bool { return len(l.bets) == 0 }

// Total is the amount staked across all recorded bets.
func (l *Ledger) Total() float64 { return l.total }

// Bets returns a copy of the recorded bets in placement order.
func (l *Ledger) Bets() []domain.Bet {
	out := make([]domain.Bet, len(l.bets))
	copy(out, l.bets)
	return out
}
