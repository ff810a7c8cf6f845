package play

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marcelohmariano/blade/internal/domain"
)

// Action reacts to one round phase.
type Action interface {
	Run(ctx context.Context, ev domain.Event) error
}

// StopFunc asks the bot to stop consuming events. The reason is reported to
// operators; it never surfaces as a run error.
type StopFunc func(reason error)

// Observer is notified of every settled round. Observers own their errors.
type Observer interface {
	OnRound(ctx context.Context, res domain.RoundResult)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, res domain.RoundResult)

func (f ObserverFunc) OnRound(ctx context.Context, res domain.RoundResult) { f(ctx, res) }

// ---------------------------------------------------------------------------
// Waiting phase
// ---------------------------------------------------------------------------

// PlaceBetsAction asks the strategy for the round's bets and places them.
type PlaceBetsAction struct {
	wallet   *Wallet
	bettor   Bettor
	strategy Strategy
	ledger   *Ledger
	stop     StopFunc
	logger   *slog.Logger
}

// NewPlaceBetsAction wires a waiting-phase action. The ledger is shared with
// the CheckResultAction of the same round.
func NewPlaceBetsAction(wallet *Wallet, bettor Bettor, strategy Strategy, ledger *Ledger, stop StopFunc, logger *slog.Logger) *PlaceBetsAction {
	return &PlaceBetsAction{
		wallet:   wallet,
		bettor:   bettor,
		strategy: strategy,
		ledger:   ledger,
		stop:     stop,
		logger:   logger.With(slog.String("component", "place_bets")),
	}
}

// Run clears the ledger, then places every proposed bet in order. When the
// proposal exceeds the wallet balance nothing is placed and the bot is
// stopped.
func (a *PlaceBetsAction) Run(ctx context.Context, ev domain.Event) error {
	a.ledger.Clear()

	var proposal Ledger
	for _, b := range a.strategy.OnPlaceBets(ev) {
		if b.Amount <= 0 || !b.Color.Valid() {
			return fmt.Errorf("play: strategy %s proposed invalid bet %+v", a.strategy.Name(), b)
		}
		proposal.Add(b)
	}
	if proposal.Empty() {
		return nil
	}

	if balance := a.wallet.Balance(); proposal.Total() > balance {
		err := fmt.Errorf("%w: round needs %.2f, wallet has %.2f",
			domain.ErrInsufficientBalance, proposal.Total(), balance)
		a.logger.Warn("stopping bot", slog.String("reason", err.Error()))
		a.stop(err)
		return nil
	}

	for _, b := range proposal.bets {
		if err := a.bettor.Bet(ctx, b); err != nil {
			return fmt.Errorf("play: place bet %s %.2f: %w", b.Color, b.Amount, err)
		}
		a.ledger.Add(b)
		a.logger.Info("bet placed",
			slog.String("round", ev.Key()),
			slog.String("color", b.Color.String()),
			slog.Float64("amount", b.Amount),
		)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Rolling phase
// ---------------------------------------------------------------------------

// CheckResultAction scores the ledger against the rolled color.
type CheckResultAction struct {
	strategy  Strategy
	ledger    *Ledger
	wallet    *Wallet
	balance   BalanceSource
	observers []Observer
	logger    *slog.Logger
}

// CheckResultOption configures a CheckResultAction.
type CheckResultOption func(*CheckResultAction)

// WithBalanceSync refreshes the wallet from src after every round.
func WithBalanceSync(src BalanceSource) CheckResultOption {
	return func(a *CheckResultAction) { a.balance = src }
}

// WithObservers registers round observers.
func WithObservers(obs ...Observer) CheckResultOption {
	return func(a *CheckResultAction) { a.observers = append(a.observers, obs...) }
}

// NewCheckResultAction wires a rolling-phase action. strategy and wallet may
// be nil when the bot only records outcomes.
func NewCheckResultAction(strategy Strategy, ledger *Ledger, wallet *Wallet, logger *slog.Logger, opts ...CheckResultOption) *CheckResultAction {
	a := &CheckResultAction{
		strategy: strategy,
		ledger:   ledger,
		wallet:   wallet,
		logger:   logger.With(slog.String("component", "check_result")),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run scores at most one winning bet: the first in placement order whose
// color matches. With no match the strategy is charged the ledger total.
func (a *CheckResultAction) Run(ctx context.Context, ev domain.Event) error {
	res := domain.RoundResult{
		ID:       ev.Key(),
		Color:    ev.Color,
		RolledAt: ev.Time,
		Outcome:  domain.OutcomeNone,
	}

	scored := !a.ledger.Empty() && a.strategy != nil
	if scored {
		res.Bets = a.ledger.Bets()
		res.Staked = a.ledger.Total()
		if bet, ok := a.winner(ev.Color); ok {
			res.Outcome = domain.OutcomeWin
			res.Won = bet.Amount * bet.Color.Payout()
			a.strategy.OnWin(ev, bet, bet.Amount)
		} else {
			res.Outcome = domain.OutcomeLoss
			a.strategy.OnLoss(ev, a.ledger.Total())
		}
	}

	if a.balance != nil && a.wallet != nil {
		bal, err := a.balance.FetchBalance(ctx)
		if err != nil {
			return fmt.Errorf("play: sync balance: %w", err)
		}
		a.wallet.Set(bal)
	}

	if scored {
		a.strategy.OnComplete(ev)
	}

	if a.wallet != nil {
		res.Balance = a.wallet.Balance()
	}
	if a.strategy != nil {
		st := a.strategy.Stats()
		res.Strategy = st.Strategy
		res.Stake = st.Stake
		res.LossCount = st.ConsecutiveLosses
		if scored {
			a.logger.Info("round settled",
				slog.String("round", res.ID),
				slog.String("rolled", ev.Color.String()),
				slog.String("outcome", string(res.Outcome)),
				slog.String("stats", st.String()),
			)
		}
	}

	for _, o := range a.observers {
		o.OnRound(ctx, res)
	}
	return nil
}

func (a *CheckResultAction) winner(rolled domain.Color) (domain.Bet, bool) {
	for _, b := range a.ledger.bets {
		if b.Color == rolled {
			return b, true
		}
	}
	return domain.Bet{}, false
}
