package strategy

import (
	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/play"
)

// tally keeps the counters shared by every staking policy. Won and Lost are
// the net result against the balance the session started with.
type tally struct {
	wallet         *play.Wallet
	initialBalance float64

	wins, losses, whites int
	won, lost            float64
}

func newTally(w *play.Wallet) tally {
	return tally{wallet: w, initialBalance: w.Balance()}
}

// credit pays out a winning bet into the wallet.
func (t *tally) credit(bet domain.Bet, amount float64) {
	t.wallet.Add(amount * bet.Color.Payout())
	t.wins++
	if bet.Color == domain.ColorWhite {
		t.whites++
	}
}

func (t *tally) settle() {
	diff := t.wallet.Balance() - t.initialBalance
	t.won = max(diff, 0)
	t.lost = max(-diff, 0)
}

func (t *tally) stats(name string, stake float64, consecutive int) play.Stats {
	return play.Stats{
		Strategy:          name,
		Balance:           t.wallet.Balance(),
		Stake:             stake,
		Won:               t.won,
		Lost:              t.lost,
		Wins:              t.wins,
		Losses:            t.losses,
		Whites:            t.whites,
		ConsecutiveLosses: consecutive,
	}
}
