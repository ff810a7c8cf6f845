package feed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcelohmariano/blade/internal/bot"
	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/play"
	"github.com/marcelohmariano/blade/internal/strategy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticRounds(colors ...domain.Color) StaticHistory {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	out := make(StaticHistory, len(colors))
	for i, c := range colors {
		out[i] = domain.Round{Color: c, RolledAt: base.Add(time.Duration(i) * 30 * time.Second)}
	}
	// Reverse so the feed has to restore time order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// simulate replays src through a martingale on red and returns the final
// balance.
func simulate(t *testing.T, src HistorySource) float64 {
	t.Helper()
	logger := discardLogger()

	wallet := play.NewWallet(100)
	strat, err := strategy.NewMartingale(strategy.MartingaleConfig{Color: domain.ColorRed, InitialStake: 5, LossThreshold: 2}, wallet, logger)
	if err != nil {
		t.Fatalf("NewMartingale() error = %v", err)
	}

	ch := bot.NewChannel(4)
	b := bot.New(ch, logger)
	ledger := &play.Ledger{}
	round := play.NewRound()
	round.When(domain.PhaseWaiting, play.NewPlaceBetsAction(wallet, play.NewSimulationBettor(wallet), strat, ledger, func(error) { b.Stop() }, logger))
	round.When(domain.PhaseRolling, play.NewCheckResultAction(strat, ledger, wallet, logger))
	if err := b.On(domain.MsgDoubleTick, round.Handle); err != nil {
		t.Fatalf("On() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- NewReplayFeed(src, ch, logger).Run(ctx) }()

	if err := b.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("replay error = %v", err)
	}
	return wallet.Balance()
}

func TestReplayIsDeterministic(t *testing.T) {
	src := staticRounds(domain.ColorBlack, domain.ColorBlack, domain.ColorRed, domain.ColorWhite, domain.ColorRed, domain.ColorBlack)

	first := simulate(t, src)
	second := simulate(t, src)

	// 100 -5 -5 -10+20 -5 -5+10 -5
	if first != 95 {
		t.Errorf("final balance = %v, want 95", first)
	}
	if first != second {
		t.Errorf("replays diverged: %v then %v", first, second)
	}
}

func TestReplayStopsOnInsufficientBalance(t *testing.T) {
	// Stakes run 5, 5, 10, 10, 30, 30 and leave 10; the seventh round needs
	// 90 so the bot stops without betting on the rest of the history.
	var colors []domain.Color
	for i := 0; i < 9; i++ {
		colors = append(colors, domain.ColorBlack)
	}

	if got := simulate(t, staticRounds(colors...)); got != 10 {
		t.Errorf("final balance = %v, want 10", got)
	}
}

func TestReplayFromFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "day.csv")
	data := "Cor,Horario\nvermelho,01/05/2024 10:02\npreto,01/05/2024 10:01\ntipminer.com,01/05/2024 10:03\n"
	if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	rounds, err := FileHistory{Paths: []string{p}, Logger: discardLogger()}.Rounds(context.Background())
	if err != nil {
		t.Fatalf("Rounds() error = %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("len(rounds) = %d, want 2", len(rounds))
	}

	// black loses 5, red wins 5 back with 5 profit.
	if got := simulate(t, StaticHistory(rounds)); got != 100 {
		t.Errorf("final balance = %v, want 100", got)
	}
}

func TestReplayEmitsWaitingThenRolling(t *testing.T) {
	ch := bot.NewChannel(8)
	src := staticRounds(domain.ColorWhite)
	if err := NewReplayFeed(src, ch, discardLogger()).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	ctx := context.Background()
	first, _ := ch.Next(ctx)
	second, _ := ch.Next(ctx)
	if first.Event.Phase != domain.PhaseWaiting || second.Event.Phase != domain.PhaseRolling || second.Event.Color != domain.ColorWhite {
		t.Errorf("messages = %+v, %+v", first.Event, second.Event)
	}
	if _, err := ch.Next(ctx); err == nil {
		t.Error("channel not closed after replay")
	}
}
