package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/marcelohmariano/blade/internal/domain"
)

func TestOnRound(t *testing.T) {
	r := New()
	ctx := context.Background()

	r.OnRound(ctx, domain.RoundResult{
		Color:   domain.ColorRed,
		Bets:    []domain.Bet{{Color: domain.ColorRed, Amount: 2}, {Color: domain.ColorWhite, Amount: 1}},
		Staked:  3,
		Outcome: domain.OutcomeWin,
		Won:     4,
		Balance: 101,
		Stake:   2,
	})
	r.OnRound(ctx, domain.RoundResult{Color: domain.ColorBlack, Outcome: domain.OutcomeNone, Balance: 101})
	r.OnRound(ctx, domain.RoundResult{
		Color:     domain.ColorBlack,
		Bets:      []domain.Bet{{Color: domain.ColorRed, Amount: 2}},
		Staked:    2,
		Outcome:   domain.OutcomeLoss,
		Balance:   99,
		Stake:     4,
		LossCount: 1,
	})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"red rounds", testutil.ToFloat64(r.rounds.WithLabelValues("red")), 1},
		{"black rounds", testutil.ToFloat64(r.rounds.WithLabelValues("black")), 2},
		{"bets", testutil.ToFloat64(r.bets), 3},
		{"staked", testutil.ToFloat64(r.staked), 5},
		{"won", testutil.ToFloat64(r.won), 4},
		{"wins", testutil.ToFloat64(r.outcome.WithLabelValues("win")), 1},
		{"losses", testutil.ToFloat64(r.outcome.WithLabelValues("loss")), 1},
		{"balance", testutil.ToFloat64(r.balance), 99},
		{"stake", testutil.ToFloat64(r.stake), 4},
		{"streak", testutil.ToFloat64(r.streak), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.OnRound(context.Background(), domain.RoundResult{Color: domain.ColorWhite, Balance: 10})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `blade_rounds_total{color="white"} 1`) {
		t.Errorf("exposition missing white round counter:\n%s", body)
	}
}
