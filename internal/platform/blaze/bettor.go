package blaze

import (
	"context"

	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/play"
)

// Bettor places real bets from one wallet. It leaves the local wallet alone;
// the balance is refreshed from the API after each round.
type Bettor struct {
	client   *Client
	walletID int64
}

// NewBettor returns a live bettor for walletID.
func NewBettor(client *Client, walletID int64) *Bettor {
	return &Bettor{client: client, walletID: walletID}
}

func (b *Bettor) Bet(ctx context.Context, bet domain.Bet) error {
	return b.client.PlaceBet(ctx, bet.Color, bet.Amount, b.walletID)
}

var (
	_ play.Bettor        = (*Bettor)(nil)
	_ play.BalanceSource = (*Client)(nil)
)
