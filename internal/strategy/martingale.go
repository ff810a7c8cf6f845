package strategy

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/play"
)

const (
	defaultInitialStake  = 5.0
	defaultLossThreshold = 14
)

// MartingaleConfig parameterises Martingale.
type MartingaleConfig struct {
	Color          domain.Color
	InitialStake   float64
	LossThreshold  int
	AllowedMinutes []int
}

// Martingale stakes a fixed amount on one color. A win credits the payout
// and resets the stake; every LossThreshold consecutive losses the stake is
// raised to the amount lost since the last win.
type Martingale struct {
	cfg    MartingaleConfig
	window MinuteWindow
	logger *slog.Logger
	tally

	stake       float64
	consecutive int
	unrecovered float64
}

// NewMartingale returns a Martingale crediting wins into wallet. Zero values
// in cfg fall back to an initial stake of 5 and a loss threshold of 14.
func NewMartingale(cfg MartingaleConfig, wallet *play.Wallet, logger *slog.Logger) (*Martingale, error) {
	if cfg.InitialStake == 0 {
		cfg.InitialStake = defaultInitialStake
	}
	if cfg.LossThreshold == 0 {
		cfg.LossThreshold = defaultLossThreshold
	}
	if cfg.InitialStake < 0 {
		return nil, errors.New("martingale: initial stake must be positive")
	}
	if cfg.LossThreshold < 0 {
		return nil, errors.New("martingale: loss threshold must be positive")
	}
	if !cfg.Color.Valid() {
		return nil, fmt.Errorf("martingale: invalid color %d", int(cfg.Color))
	}
	window, err := NewMinuteWindow(cfg.AllowedMinutes)
	if err != nil {
		return nil, err
	}

	return &Martingale{
		cfg:    cfg,
		window: window,
		logger: logger.With(slog.String("strategy", NameMartingale)),
		tally:  newTally(wallet),
		stake:  cfg.InitialStake,
	}, nil
}

func (m *Martingale) Name() string { return NameMartingale }

// OnPlaceBets proposes the current stake on the configured color when the
// event falls inside the minute window.
func (m *Martingale) OnPlaceBets(ev domain.Event) []domain.Bet {
	if !m.window.Allows(ev.Time) {
		return nil
	}
	return []domain.Bet{{Color: m.cfg.Color, Amount: m.stake}}
}

func (m *Martingale) OnWin(_ domain.Event, bet domain.Bet, amount float64) {
	m.credit(bet, amount)
	m.consecutive = 0
	m.unrecovered = 0
	m.stake = m.cfg.InitialStake
}

func (m *Martingale) OnLoss(_ domain.Event, amount float64) {
	m.losses++
	m.consecutive++
	m.unrecovered += amount
	if m.consecutive >= m.cfg.LossThreshold {
		m.stake = m.unrecovered
		m.consecutive = 0
		m.logger.Info("stake escalated", slog.Float64("stake", m.stake))
	}
}

func (m *Martingale) OnComplete(_ domain.Event) {
	m.settle()
}

func (m *Martingale) Stats() play.Stats {
	return m.stats(NameMartingale, m.stake, m.consecutive)
}

var _ play.Strategy = (*Martingale)(nil)
