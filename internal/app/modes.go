package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcelohmariano/blade/internal/bot"
	"github.com/marcelohmariano/blade/internal/cache/redis"
	"github.com/marcelohmariano/blade/internal/config"
	"github.com/marcelohmariano/blade/internal/crypto"
	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/feed"
	"github.com/marcelohmariano/blade/internal/metrics"
	"github.com/marcelohmariano/blade/internal/observe"
	"github.com/marcelohmariano/blade/internal/platform/blaze"
	"github.com/marcelohmariano/blade/internal/play"
	"github.com/marcelohmariano/blade/internal/server"
	"github.com/marcelohmariano/blade/internal/server/handler"
	"github.com/marcelohmariano/blade/internal/server/ws"
	"github.com/marcelohmariano/blade/internal/strategy"
)

const shutdownTimeout = 5 * time.Second

// session is one bot run over a single event source.
type session struct {
	ch  *bot.Channel
	bot *bot.Bot

	// wallet and strategy are nil when only recording outcomes.
	wallet   *play.Wallet
	strategy play.Strategy
	bettor   play.Bettor
	balance  play.BalanceSource

	source  func(ctx context.Context) error
	tracker *observe.Tracker

	stopOnce sync.Once
	mu       sync.Mutex
	reason   error
}

// stop records the first reason and closes the event queue. Queued events
// are still handled.
func (s *session) stop(reason error) {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.reason = reason
		s.mu.Unlock()
		s.bot.Stop()
	})
}

// Stop satisfies handler.Stopper.
func (s *session) Stop() { s.stop(nil) }

func (s *session) stopReason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// newSession builds the queue, dispatcher and, unless wallet is nil, the
// configured strategy.
func (a *App) newSession(wallet *play.Wallet) (*session, error) {
	ch := bot.NewChannel(a.cfg.Bot.QueueSize)
	s := &session{ch: ch, bot: bot.New(ch, a.logger), wallet: wallet}

	var (
		name    string
		balance float64
	)
	if wallet != nil {
		strat, err := strategy.DefaultRegistry().Build(a.cfg.Strategy.Name, strategyConfig(a.cfg.Strategy), wallet, a.logger)
		if err != nil {
			return nil, err
		}
		s.strategy = strat
		name = strat.Name()
		balance = wallet.Balance()
	}
	s.tracker = observe.NewTracker(a.cfg.Mode, name, balance, a.cfg.Server.RecentRounds)
	return s, nil
}

func strategyConfig(c config.StrategyConfig) strategy.Config {
	return strategy.Config{
		Martingale: strategy.MartingaleConfig{
			Color:          c.Martingale.Color,
			InitialStake:   c.Martingale.InitialStake,
			LossThreshold:  c.Martingale.LossThreshold,
			AllowedMinutes: c.Martingale.AllowedMinutes,
		},
		DualBet: strategy.DualBetConfig{
			BaseStake:      c.DualBet.BaseStake,
			Cycle:          c.DualBet.Cycle,
			HedgeColor:     c.DualBet.HedgeColor,
			HedgeFraction:  c.DualBet.HedgeFraction,
			HedgeMin:       c.DualBet.HedgeMin,
			LossThreshold:  c.DualBet.LossThreshold,
			AllowedMinutes: c.DualBet.AllowedMinutes,
		},
	}
}

func (a *App) wsConfig(token string) blaze.WSConfig {
	return blaze.WSConfig{
		URL:       a.cfg.Blaze.WSURL,
		Room:      a.cfg.Blaze.Room,
		Token:     token,
		UserAgent: a.cfg.Blaze.UserAgent,
		EIO:       a.cfg.Blaze.EIO,
	}
}

// ---------------------------------------------------------------------------
// Modes
// ---------------------------------------------------------------------------

// liveSession bets real money: the wallet is read from the platform, bets go
// through the REST API and the balance is re-synced after every round.
func (a *App) liveSession(ctx context.Context, deps *Dependencies) (*session, error) {
	token, err := crypto.LoadToken(crypto.TokenConfig{
		Token:         a.cfg.Blaze.Token,
		EncryptedPath: a.cfg.Blaze.EncryptedTokenPath,
		Password:      a.cfg.Blaze.TokenPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	client := blaze.NewClient(blaze.ClientConfig{
		BaseURL:     a.cfg.Blaze.APIURL,
		Token:       token,
		UserAgent:   a.cfg.Blaze.UserAgent,
		Currency:    a.cfg.Blaze.Currency,
		Timeout:     a.cfg.Blaze.HTTPTimeout.Duration,
		SyncRetries: a.cfg.Blaze.SyncRetries,
	}, a.logger)

	w, err := client.Wallet(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch wallet: %w", err)
	}
	walletID := a.cfg.Blaze.WalletID
	if walletID == 0 {
		walletID = w.ID
	}

	if deps.LockManager != nil {
		release, err := deps.LockManager.Hold(ctx, redis.BettorKey(walletID), a.cfg.Lock.TTL.Duration)
		if err != nil {
			return nil, fmt.Errorf("wallet %d: %w", walletID, err)
		}
		a.closers = append(a.closers, release)
	}

	s, err := a.newSession(play.NewWallet(w.Balance))
	if err != nil {
		return nil, err
	}
	s.bettor = blaze.NewBettor(client, walletID)
	s.balance = client
	s.source = feed.NewBlazeFeed(a.wsConfig(token), s.ch, a.logger).Run

	a.logger.InfoContext(ctx, "live wallet ready",
		slog.Int64("wallet_id", walletID),
		slog.Float64("balance", w.Balance),
	)
	return s, nil
}

// simulateSession plays the live event stream against a local wallet.
func (a *App) simulateSession() (*session, error) {
	wallet := play.NewWallet(a.cfg.Wallet.InitialBalance)
	s, err := a.newSession(wallet)
	if err != nil {
		return nil, err
	}
	s.bettor = play.NewSimulationBettor(wallet)
	s.source = feed.NewBlazeFeed(a.wsConfig(""), s.ch, a.logger).Run
	return s, nil
}

// replaySession plays recorded history against a local wallet and ends when
// the history is exhausted.
func (a *App) replaySession(deps *Dependencies) (*session, error) {
	src, err := a.historySource(deps)
	if err != nil {
		return nil, err
	}
	wallet := play.NewWallet(a.cfg.Wallet.InitialBalance)
	s, err := a.newSession(wallet)
	if err != nil {
		return nil, err
	}
	s.bettor = play.NewSimulationBettor(wallet)
	s.source = feed.NewReplayFeed(src, s.ch, a.logger).Run
	return s, nil
}

// recordSession only stores outcomes; nothing is staked.
func (a *App) recordSession(deps *Dependencies) (*session, error) {
	if deps.RoundStore == nil {
		return nil, errors.New("record mode needs postgres")
	}
	s, err := a.newSession(nil)
	if err != nil {
		return nil, err
	}
	s.source = feed.NewBlazeFeed(a.wsConfig(""), s.ch, a.logger).Run
	return s, nil
}

// ---------------------------------------------------------------------------
// Run loop
// ---------------------------------------------------------------------------

// run drives the session together with the status server, the websocket hub
// and the archive loop. It returns once the bot has stopped and every helper
// goroutine has exited.
func (a *App) run(ctx context.Context, deps *Dependencies, s *session) error {
	rec := metrics.New()

	var hub *ws.Hub
	if a.cfg.Server.Enabled {
		hub = ws.NewHub(deps.SignalBus, func() any { return s.tracker.Status() }, a.logger)
	}

	auditor := observe.NewAuditor(deps.AuditStore, a.logger)
	round := a.buildRound(deps, s, rec, auditor, hub)
	if err := s.bot.On(domain.MsgDoubleTick, round.Handle); err != nil {
		return err
	}

	a.started(ctx, deps, s, auditor)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	// The bot only stops by closing its queue so queued events are drained.
	g.Go(func() error {
		defer cancel()
		return s.bot.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		<-gctx.Done()
		s.stop(nil)
		return nil
	})
	g.Go(func() error {
		return ignoreCanceled(s.source(gctx))
	})

	if hub != nil {
		g.Go(func() error {
			return ignoreCanceled(hub.Run(gctx))
		})
		a.startHTTPServer(gctx, g, deps, s, rec, hub)
	}

	if deps.Archiver != nil && a.cfg.Archive.Enabled {
		g.Go(func() error {
			a.archiveLoop(gctx, deps.Archiver)
			return nil
		})
	}

	err := g.Wait()
	reason := s.stopReason()
	if reason == nil {
		reason = err
	}
	a.stopped(context.WithoutCancel(ctx), deps, s, auditor, reason)

	if err != nil {
		return err
	}
	return ctx.Err()
}

// buildRound wires the phase actions and the round observers.
func (a *App) buildRound(deps *Dependencies, s *session, rec *metrics.Recorder, auditor *observe.Auditor, hub *ws.Hub) *play.Round {
	// The tracker goes first so status published by later observers includes
	// the round.
	observers := []play.Observer{s.tracker, rec}
	if deps.RoundStore != nil {
		observers = append(observers, observe.NewRecorder(deps.RoundStore, a.logger))
	}
	switch {
	case deps.SignalBus != nil:
		observers = append(observers, observe.NewBusPublisher(deps.SignalBus, s.tracker, a.logger))
	case hub != nil:
		observers = append(observers, hubPublisher(hub, s.tracker, a.logger))
	}
	if deps.Publisher != nil {
		observers = append(observers, deps.Publisher)
	}
	if deps.AuditStore != nil {
		observers = append(observers, auditor)
	}

	opts := []play.CheckResultOption{play.WithObservers(observers...)}
	if s.balance != nil {
		opts = append(opts, play.WithBalanceSync(s.balance))
	}

	ledger := &play.Ledger{}
	round := play.NewRound()
	if s.strategy != nil {
		round.When(domain.PhaseWaiting, play.NewPlaceBetsAction(s.wallet, s.bettor, s.strategy, ledger, s.stop, a.logger))
	}
	round.When(domain.PhaseRolling, play.NewCheckResultAction(s.strategy, ledger, s.wallet, a.logger, opts...))
	return round
}

// hubPublisher feeds the websocket hub directly when there is no signal bus
// to relay from.
func hubPublisher(hub *ws.Hub, tracker *observe.Tracker, logger *slog.Logger) play.Observer {
	return play.ObserverFunc(func(_ context.Context, res domain.RoundResult) {
		if data, err := json.Marshal(res); err == nil {
			hub.Publish(domain.ChannelRound, data)
		} else {
			logger.Warn("marshal round failed", slog.String("error", err.Error()))
		}
		if data, err := json.Marshal(tracker.Status()); err == nil {
			hub.Publish(domain.ChannelStatus, data)
		}
	})
}

func (a *App) started(ctx context.Context, deps *Dependencies, s *session, auditor *observe.Auditor) {
	st := s.tracker.Status()
	a.logger.InfoContext(ctx, "bot started",
		slog.String("mode", st.Mode),
		slog.String("strategy", st.Strategy),
		slog.Float64("balance", st.Balance),
	)
	auditor.Log(ctx, observe.EventBotStarted, map[string]any{
		"mode":     st.Mode,
		"strategy": st.Strategy,
		"balance":  st.Balance,
	})
	if err := deps.Notifier.BotStarted(ctx, st.Mode, st.Strategy, st.Balance); err != nil {
		a.logger.WarnContext(ctx, "start notification failed", slog.String("error", err.Error()))
	}
}

func (a *App) stopped(ctx context.Context, deps *Dependencies, s *session, auditor *observe.Auditor, reason error) {
	if errors.Is(reason, context.Canceled) {
		reason = nil
	}
	s.tracker.Stopped(reason)
	st := s.tracker.Status()

	attrs := []any{
		slog.Int("rounds", st.Rounds),
		slog.Int("bets", st.Bets),
		slog.Float64("balance", st.Balance),
	}
	if reason != nil {
		attrs = append(attrs, slog.String("reason", reason.Error()))
	}
	a.logger.InfoContext(ctx, "bot stopped", attrs...)

	detail := map[string]any{"rounds": st.Rounds, "bets": st.Bets, "balance": st.Balance}
	if reason != nil {
		detail["reason"] = reason.Error()
	}
	auditor.Log(ctx, observe.EventBotStopped, detail)

	if deps.SignalBus != nil {
		observe.NewBusPublisher(deps.SignalBus, s.tracker, a.logger).PublishStatus(ctx)
	}

	summary := fmt.Sprintf("rounds: %d\nbets: %d (won %d, lost %d)\nbalance: %.2f",
		st.Rounds, st.Bets, st.Wins, st.Losses, st.Balance)
	if err := deps.Notifier.BotStopped(ctx, reason, summary); err != nil {
		a.logger.WarnContext(ctx, "stop notification failed", slog.String("error", err.Error()))
	}
}

// ---------------------------------------------------------------------------
// HTTP server
// ---------------------------------------------------------------------------

// startHTTPServer adds the status server to g. It is shut down gracefully
// when ctx is done.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, s *session, rec *metrics.Recorder, hub *ws.Hub) {
	var store domain.RoundStore
	if deps.RoundStore != nil {
		store = deps.RoundStore
	}
	var limiter domain.RateLimiter
	if a.cfg.Server.RateLimit > 0 {
		limiter = deps.RateLimiter
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
	}, server.Handlers{
		Health:  handler.NewHealthHandler(deps.Checks),
		Status:  handler.NewStatusHandler(s.tracker, store),
		Bot:     handler.NewBotHandler(s, strategy.DefaultRegistry().List(), a.logger),
		Metrics: rec.Handler(),
	}, hub, limiter, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// ---------------------------------------------------------------------------
// Archive
// ---------------------------------------------------------------------------

// roundArchiver is satisfied by *s3blob.Archiver.
type roundArchiver interface {
	ArchiveRounds(ctx context.Context, before time.Time) (int64, error)
}

// archiveLoop moves rounds older than the retention window to object
// storage once at start and then on every interval tick.
func (a *App) archiveLoop(ctx context.Context, arch roundArchiver) {
	retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour
	archive := func() {
		cutoff := time.Now().UTC().Add(-retention)
		n, err := arch.ArchiveRounds(ctx, cutoff)
		if err != nil {
			if ctx.Err() == nil {
				a.logger.ErrorContext(ctx, "archive rounds failed", slog.String("error", err.Error()))
			}
			return
		}
		if n > 0 {
			a.logger.InfoContext(ctx, "rounds archived",
				slog.Int64("count", n),
				slog.Time("before", cutoff),
			)
		}
	}

	archive()
	ticker := time.NewTicker(a.cfg.Archive.Interval.Duration)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			archive()
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
