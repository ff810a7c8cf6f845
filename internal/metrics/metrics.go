// Package metrics exposes bot counters in Prometheus format.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelohmariano/blade/internal/domain"
)

// Recorder tracks settled rounds. It is a play.Observer.
type Recorder struct {
	registry *prometheus.Registry

	rounds  *prometheus.CounterVec
	bets    prometheus.Counter
	staked  prometheus.Counter
	won     prometheus.Counter
	outcome *prometheus.CounterVec
	balance prometheus.Gauge
	stake   prometheus.Gauge
	streak  prometheus.Gauge
}

// New creates a Recorder on its own registry, with Go runtime and process
// collectors attached.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blade_rounds_total",
			Help: "Rounds observed, by rolled color.",
		}, []string{"color"}),
		bets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blade_bets_total",
			Help: "Bets placed.",
		}),
		staked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blade_staked_total",
			Help: "Amount staked.",
		}),
		won: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blade_won_total",
			Help: "Amount paid out on winning bets.",
		}),
		outcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blade_outcomes_total",
			Help: "Scored rounds, by outcome.",
		}, []string{"outcome"}),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blade_balance",
			Help: "Wallet balance after the last round.",
		}),
		stake: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blade_next_stake",
			Help: "Stake the strategy will place next.",
		}),
		streak: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blade_consecutive_losses",
			Help: "Losses since the last win or escalation.",
		}),
	}
	r.registry.MustRegister(
		r.rounds, r.bets, r.staked, r.won, r.outcome,
		r.balance, r.stake, r.streak,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// OnRound updates the counters for one settled round.
func (r *Recorder) OnRound(_ context.Context, res domain.RoundResult) {
	r.rounds.WithLabelValues(res.Color.String()).Inc()
	if res.Outcome != domain.OutcomeNone {
		r.outcome.WithLabelValues(string(res.Outcome)).Inc()
		r.bets.Add(float64(len(res.Bets)))
		r.staked.Add(res.Staked)
		r.won.Add(res.Won)
	}
	r.balance.Set(res.Balance)
	r.stake.Set(res.Stake)
	r.streak.Set(float64(res.LossCount))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
