package play

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStrategy struct {
	bets      []domain.Bet
	placeCall int
	wins      []domain.Bet
	winAmount []float64
	losses    []float64
	completes int
}

func (s *fakeStrategy) Name() string { return "fake" }

func (s *fakeStrategy) OnPlaceBets(domain.Event) []domain.Bet {
	s.placeCall++
	return s.bets
}

func (s *fakeStrategy) OnWin(_ domain.Event, bet domain.Bet, amount float64) {
	s.wins = append(s.wins, bet)
	s.winAmount = append(s.winAmount, amount)
}

func (s *fakeStrategy) OnLoss(_ domain.Event, amount float64) { s.losses = append(s.losses, amount) }

func (s *fakeStrategy) OnComplete(domain.Event) { s.completes++ }

func (s *fakeStrategy) Stats() Stats { return Stats{Strategy: "fake"} }

type recordingBettor struct {
	placed []domain.Bet
	err    error
}

func (b *recordingBettor) Bet(_ context.Context, bet domain.Bet) error {
	if b.err != nil {
		return b.err
	}
	b.placed = append(b.placed, bet)
	return nil
}

type fixedBalance struct {
	balance float64
	err     error
	calls   int
}

func (f *fixedBalance) FetchBalance(context.Context) (float64, error) {
	f.calls++
	return f.balance, f.err
}

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func waiting() domain.Message {
	return domain.Message{ID: domain.MsgDoubleTick, Event: domain.WaitingEvent(t0)}
}

func rolling(c domain.Color) domain.Message {
	return domain.Message{ID: domain.MsgDoubleTick, Event: domain.RollingEvent(c, t0)}
}

type fixture struct {
	wallet   *Wallet
	ledger   *Ledger
	strategy *fakeStrategy
	bettor   *recordingBettor
	stops    []error
	round    *Round
}

func newFixture(balance float64, bets ...domain.Bet) *fixture {
	f := &fixture{
		wallet:   NewWallet(balance),
		ledger:   &Ledger{},
		strategy: &fakeStrategy{bets: bets},
		bettor:   &recordingBettor{},
	}
	stop := func(err error) { f.stops = append(f.stops, err) }
	f.round = NewRound()
	f.round.When(domain.PhaseWaiting, NewPlaceBetsAction(f.wallet, f.bettor, f.strategy, f.ledger, stop, discardLogger()))
	f.round.When(domain.PhaseRolling, NewCheckResultAction(f.strategy, f.ledger, f.wallet, discardLogger()))
	return f
}

func (f *fixture) handle(t *testing.T, msgs ...domain.Message) {
	t.Helper()
	for _, m := range msgs {
		if err := f.round.Handle(context.Background(), m); err != nil {
			t.Fatalf("Handle(%s) error = %v", m.Event.Phase, err)
		}
	}
}

func TestRoundRunsEachPhaseOnce(t *testing.T) {
	f := newFixture(100, domain.Bet{Color: domain.ColorRed, Amount: 5})

	f.handle(t, waiting(), waiting(), rolling(domain.ColorBlack), rolling(domain.ColorBlack))

	if f.strategy.placeCall != 1 {
		t.Errorf("OnPlaceBets calls = %d, want 1", f.strategy.placeCall)
	}
	if len(f.bettor.placed) != 1 {
		t.Errorf("bets placed = %d, want 1", len(f.bettor.placed))
	}
	if len(f.strategy.losses) != 1 || f.strategy.completes != 1 {
		t.Errorf("losses = %v, completes = %d, want one each", f.strategy.losses, f.strategy.completes)
	}
}

func TestRoundDedupComparesPhaseOnly(t *testing.T) {
	f := newFixture(100, domain.Bet{Color: domain.ColorRed, Amount: 5})

	// A second rolling event with a different color is still a repeat.
	f.handle(t, waiting(), rolling(domain.ColorRed), rolling(domain.ColorBlack))

	if len(f.strategy.wins) != 1 || len(f.strategy.losses) != 0 {
		t.Errorf("wins = %d, losses = %d, want 1 and 0", len(f.strategy.wins), len(f.strategy.losses))
	}
}

func TestCheckResultScoresFirstMatchOnly(t *testing.T) {
	f := newFixture(100,
		domain.Bet{Color: domain.ColorRed, Amount: 5},
		domain.Bet{Color: domain.ColorWhite, Amount: 1},
		domain.Bet{Color: domain.ColorRed, Amount: 3},
	)

	f.handle(t, waiting(), rolling(domain.ColorRed))

	if len(f.strategy.wins) != 1 {
		t.Fatalf("wins = %d, want 1", len(f.strategy.wins))
	}
	want := domain.Bet{Color: domain.ColorRed, Amount: 5}
	if f.strategy.wins[0] != want || f.strategy.winAmount[0] != 5 {
		t.Errorf("OnWin(%+v, %v), want (%+v, 5)", f.strategy.wins[0], f.strategy.winAmount[0], want)
	}
	if len(f.strategy.losses) != 0 {
		t.Errorf("losses = %v, want none", f.strategy.losses)
	}
	if f.strategy.completes != 1 {
		t.Errorf("completes = %d, want 1", f.strategy.completes)
	}
}

func TestCheckResultLossChargesLedgerTotal(t *testing.T) {
	f := newFixture(100,
		domain.Bet{Color: domain.ColorRed, Amount: 5},
		domain.Bet{Color: domain.ColorWhite, Amount: 1.25},
	)

	f.handle(t, waiting(), rolling(domain.ColorBlack))

	if len(f.strategy.losses) != 1 || f.strategy.losses[0] != 6.25 {
		t.Errorf("losses = %v, want [6.25]", f.strategy.losses)
	}
	if f.strategy.completes != 1 {
		t.Errorf("completes = %d, want 1", f.strategy.completes)
	}
}

func TestCheckResultEmptyLedgerScoresNothing(t *testing.T) {
	f := newFixture(100) // strategy skips the round

	f.handle(t, waiting(), rolling(domain.ColorWhite))

	if len(f.strategy.wins)+len(f.strategy.losses) != 0 || f.strategy.completes != 0 {
		t.Errorf("strategy was scored on an empty ledger: %+v", f.strategy)
	}
}

func TestPlaceBetsInsufficientBalanceStops(t *testing.T) {
	f := newFixture(4.0, domain.Bet{Color: domain.ColorRed, Amount: 5.0})

	f.handle(t, waiting())

	if len(f.bettor.placed) != 0 {
		t.Errorf("bets placed = %v, want none", f.bettor.placed)
	}
	if len(f.stops) != 1 || !errors.Is(f.stops[0], domain.ErrInsufficientBalance) {
		t.Errorf("stops = %v, want one %v", f.stops, domain.ErrInsufficientBalance)
	}
	if !f.ledger.Empty() {
		t.Errorf("ledger = %v, want empty", f.ledger.Bets())
	}
	if f.wallet.Balance() != 4.0 {
		t.Errorf("balance = %v, want 4", f.wallet.Balance())
	}

	f.handle(t, rolling(domain.ColorRed))
	if len(f.strategy.wins)+len(f.strategy.losses) != 0 {
		t.Error("round scored after insufficient-balance stop")
	}
}

func TestPlaceBetsNoPartialBetting(t *testing.T) {
	// Each bet fits the balance alone; together they do not.
	f := newFixture(6, domain.Bet{Color: domain.ColorRed, Amount: 5}, domain.Bet{Color: domain.ColorWhite, Amount: 2})

	f.handle(t, waiting())

	if len(f.bettor.placed) != 0 || len(f.stops) != 1 {
		t.Errorf("placed = %v, stops = %d, want none and 1", f.bettor.placed, len(f.stops))
	}
}

func TestPlaceBetsCollapsesDuplicates(t *testing.T) {
	f := newFixture(100,
		domain.Bet{Color: domain.ColorRed, Amount: 5},
		domain.Bet{Color: domain.ColorRed, Amount: 5},
		domain.Bet{Color: domain.ColorWhite, Amount: 1},
	)

	f.handle(t, waiting())

	if len(f.bettor.placed) != 2 {
		t.Errorf("bets placed = %d, want 2", len(f.bettor.placed))
	}
	if f.ledger.Total() != 6 {
		t.Errorf("ledger total = %v, want 6", f.ledger.Total())
	}
}

func TestPlaceBetsClearsPreviousRound(t *testing.T) {
	f := newFixture(100, domain.Bet{Color: domain.ColorBlack, Amount: 2})

	f.handle(t, waiting(), rolling(domain.ColorRed))
	f.strategy.bets = nil
	f.handle(t, waiting())

	if !f.ledger.Empty() {
		t.Errorf("ledger = %v, want empty", f.ledger.Bets())
	}
}

func TestPlaceBetsPropagatesBettorError(t *testing.T) {
	f := newFixture(100, domain.Bet{Color: domain.ColorRed, Amount: 5})
	f.bettor.err = domain.ErrTransport

	err := f.round.Handle(context.Background(), waiting())
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("Handle() error = %v, want %v", err, domain.ErrTransport)
	}
}

func TestPlaceBetsRejectsNonPositiveStake(t *testing.T) {
	f := newFixture(100, domain.Bet{Color: domain.ColorRed, Amount: 0})

	if err := f.round.Handle(context.Background(), waiting()); err == nil {
		t.Error("Handle() error = nil, want invalid bet error")
	}
	if len(f.bettor.placed) != 0 {
		t.Errorf("bets placed = %v, want none", f.bettor.placed)
	}
}

func TestSimulationBettorDebitsWallet(t *testing.T) {
	w := NewWallet(10)
	b := NewSimulationBettor(w)
	if err := b.Bet(context.Background(), domain.Bet{Color: domain.ColorRed, Amount: 2.5}); err != nil {
		t.Fatalf("Bet() error = %v", err)
	}
	if w.Balance() != 7.5 {
		t.Errorf("balance = %v, want 7.5", w.Balance())
	}
}

func TestCheckResultSyncsBalanceAndNotifies(t *testing.T) {
	wallet := NewWallet(100)
	ledger := &Ledger{}
	ledger.Add(domain.Bet{Color: domain.ColorRed, Amount: 5})
	strategy := &fakeStrategy{}
	src := &fixedBalance{balance: 92.5}

	var got []domain.RoundResult
	action := NewCheckResultAction(strategy, ledger, wallet, discardLogger(),
		WithBalanceSync(src),
		WithObservers(ObserverFunc(func(_ context.Context, res domain.RoundResult) { got = append(got, res) })),
	)

	if err := action.Run(context.Background(), domain.RollingEvent(domain.ColorBlack, t0)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if wallet.Balance() != 92.5 || src.calls != 1 {
		t.Errorf("balance = %v after %d fetches, want 92.5 after 1", wallet.Balance(), src.calls)
	}
	if len(got) != 1 {
		t.Fatalf("observed %d results, want 1", len(got))
	}
	res := got[0]
	if res.Outcome != domain.OutcomeLoss || res.Staked != 5 || res.Balance != 92.5 || res.Color != domain.ColorBlack {
		t.Errorf("result = %+v", res)
	}
}

func TestCheckResultBalanceSyncErrorPropagates(t *testing.T) {
	action := NewCheckResultAction(&fakeStrategy{}, &Ledger{}, NewWallet(1), discardLogger(),
		WithBalanceSync(&fixedBalance{err: domain.ErrTransport}))

	err := action.Run(context.Background(), domain.RollingEvent(domain.ColorRed, t0))
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("Run() error = %v, want %v", err, domain.ErrTransport)
	}
}

func TestCheckResultRecordOnly(t *testing.T) {
	var got []domain.RoundResult
	action := NewCheckResultAction(nil, &Ledger{}, nil, discardLogger(),
		WithObservers(ObserverFunc(func(_ context.Context, res domain.RoundResult) { got = append(got, res) })))

	if err := action.Run(context.Background(), domain.RollingEvent(domain.ColorWhite, t0)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 1 || got[0].Outcome != domain.OutcomeNone || got[0].Color != domain.ColorWhite {
		t.Errorf("results = %+v, want one white with no outcome", got)
	}
}
