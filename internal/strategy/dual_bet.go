package strategy

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/play"
)

const (
	defaultBaseStake     = 0.4
	defaultHedgeFraction = 0.25
	defaultHedgeMin      = 0.1
	defaultDualThreshold = 2
)

// DualBetConfig parameterises DualBet.
type DualBetConfig struct {
	BaseStake      float64
	Cycle          []domain.Color
	HedgeColor     domain.Color
	HedgeFraction  float64
	HedgeMin       float64
	LossThreshold  int
	AllowedMinutes []int
}

// DualBet pairs a bet on a cycling color with a smaller hedge on the hedge
// color (white by default). Losses accumulate across both legs and, after
// LossThreshold misses in a row, the main leg is raised to that total.
type DualBet struct {
	cfg    DualBetConfig
	window MinuteWindow
	logger *slog.Logger
	tally

	stake       float64
	next        int
	consecutive int
	unrecovered float64
}

// NewDualBet returns a DualBet crediting wins into wallet. Zero values fall
// back to a base stake of 0.4, the cycle red, red, black, black, a white
// hedge of max(stake/4, 0.1) and a loss threshold of 2.
func NewDualBet(cfg DualBetConfig, wallet *play.Wallet, logger *slog.Logger) (*DualBet, error) {
	if cfg.BaseStake == 0 {
		cfg.BaseStake = defaultBaseStake
	}
	if len(cfg.Cycle) == 0 {
		cfg.Cycle = []domain.Color{domain.ColorRed, domain.ColorRed, domain.ColorBlack, domain.ColorBlack}
	}
	if cfg.HedgeFraction == 0 {
		cfg.HedgeFraction = defaultHedgeFraction
	}
	if cfg.HedgeMin == 0 {
		cfg.HedgeMin = defaultHedgeMin
	}
	if cfg.LossThreshold == 0 {
		cfg.LossThreshold = defaultDualThreshold
	}
	if cfg.BaseStake < 0 || cfg.HedgeFraction < 0 || cfg.HedgeMin < 0 || cfg.LossThreshold < 0 {
		return nil, errors.New("dual_bet: stakes and threshold must be positive")
	}
	for _, c := range append([]domain.Color{cfg.HedgeColor}, cfg.Cycle...) {
		if !c.Valid() {
			return nil, fmt.Errorf("dual_bet: invalid color %d", int(c))
		}
	}
	window, err := NewMinuteWindow(cfg.AllowedMinutes)
	if err != nil {
		return nil, err
	}

	return &DualBet{
		cfg:    cfg,
		window: window,
		logger: logger.With(slog.String("strategy", NameDualBet)),
		tally:  newTally(wallet),
		stake:  cfg.BaseStake,
	}, nil
}

func (d *DualBet) Name() string { return NameDualBet }

// hedge is the stake placed on the hedge color for a main stake of s.
func (d *DualBet) hedge(s float64) float64 {
	return max(s*d.cfg.HedgeFraction, d.cfg.HedgeMin)
}

// OnPlaceBets proposes the next cycle color and the hedge. The cycle only
// advances when bets are proposed.
func (d *DualBet) OnPlaceBets(ev domain.Event) []domain.Bet {
	if !d.window.Allows(ev.Time) {
		return nil
	}
	color := d.cfg.Cycle[d.next%len(d.cfg.Cycle)]
	d.next++
	return []domain.Bet{
		{Color: color, Amount: d.stake},
		{Color: d.cfg.HedgeColor, Amount: d.hedge(d.stake)},
	}
}

func (d *DualBet) OnWin(_ domain.Event, bet domain.Bet, amount float64) {
	d.credit(bet, amount)
	d.consecutive = 0
	d.unrecovered = 0
	d.stake = d.cfg.BaseStake
}

func (d *DualBet) OnLoss(_ domain.Event, amount float64) {
	d.losses++
	d.consecutive++
	d.unrecovered += amount
	if d.consecutive >= d.cfg.LossThreshold {
		d.stake = d.unrecovered
		d.consecutive = 0
		d.logger.Info("stake escalated",
			slog.Float64("stake", d.stake),
			slog.Float64("hedge", d.hedge(d.stake)),
		)
	}
}

func (d *DualBet) OnComplete(_ domain.Event) {
	d.settle()
}

// Stats reports the combined stake of both legs.
func (d *DualBet) Stats() play.Stats {
	return d.stats(NameDualBet, d.stake+d.hedge(d.stake), d.consecutive)
}

var _ play.Strategy = (*DualBet)(nil)
