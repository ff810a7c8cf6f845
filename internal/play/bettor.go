package play

import (
	"context"
	"fmt"

	"github.com/marcelohmariano/blade/internal/domain"
)

// Bettor places a single bet.
type Bettor interface {
	Bet(ctx context.Context, bet domain.Bet) error
}

// BalanceSource fetches the authoritative balance from the betting platform.
type BalanceSource interface {
	FetchBalance(ctx context.Context) (float64, error)
}

// SimulationBettor models money leaving the account by debiting the wallet
// as soon as a bet is placed.
type SimulationBettor struct {
	wallet *Wallet
}

// NewSimulationBettor returns a bettor that debits wallet.
func NewSimulationBettor(wallet *Wallet) *SimulationBettor {
	return &SimulationBettor{wallet: wallet}
}

func (b *SimulationBettor) Bet(_ context.Context, bet domain.Bet) error {
	if bet.Amount <= 0 {
		return fmt.Errorf("simulation: bet amount must be positive, got %.2f", bet.Amount)
	}
	b.wallet.Sub(bet.Amount)
	return nil
}

var _ Bettor = (*SimulationBettor)(nil)
