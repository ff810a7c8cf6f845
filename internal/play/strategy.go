package play

import (
	"fmt"

	"github.com/marcelohmariano/blade/internal/domain"
)

// Strategy decides what to stake each round and reacts to the outcome.
// All methods are called from the dispatcher goroutine.
type Strategy interface {
	Name() string
	// OnPlaceBets returns the bets to place for the round opened by ev. An
	// empty result skips the round.
	OnPlaceBets(ev domain.Event) []domain.Bet
	// OnWin is called with the first ledger bet matching the rolled color.
	OnWin(ev domain.Event, bet domain.Bet, amount float64)
	// OnLoss is called with the ledger total when no bet matched.
	OnLoss(ev domain.Event, amount float64)
	// OnComplete runs after every scored round.
	OnComplete(ev domain.Event)
	Stats() Stats
}

// Stats is a point-in-time snapshot of a strategy's running counters.
type Stats struct {
	Strategy          string  `json:"strategy"`
	Balance           float64 `json:"balance"`
	Stake             float64 `json:"stake"`
	Won               float64 `json:"won"`
	Lost              float64 `json:"lost"`
	Wins              int     `json:"wins"`
	Losses            int     `json:"losses"`
	Whites            int     `json:"whites"`
	ConsecutiveLosses int     `json:"consecutive_losses"`
}

func (s Stats) String() string {
	return fmt.Sprintf("Balance: %.2f | Bet: %.2f | Won: %.2f | Lost: %.2f | Wins: %d | Losses: %d | Whites: %d",
		s.Balance, s.Stake, s.Won, s.Lost, s.Wins, s.Losses, s.Whites)
}
