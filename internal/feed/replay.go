package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/history"
)

// HistorySource yields recorded round outcomes.
type HistorySource interface {
	Rounds(ctx context.Context) ([]domain.Round, error)
}

// ClosableSink is a Sink that can signal end of stream.
type ClosableSink interface {
	Sink
	Close()
}

// ReplayFeed turns recorded rounds into the waiting and rolling messages the
// live feed would have produced, in time order, then closes the sink.
type ReplayFeed struct {
	source HistorySource
	sink   ClosableSink
	logger *slog.Logger
}

// NewReplayFeed creates a replay of source into sink.
func NewReplayFeed(source HistorySource, sink ClosableSink, logger *slog.Logger) *ReplayFeed {
	return &ReplayFeed{
		source: source,
		sink:   sink,
		logger: logger.With(slog.String("component", "replay_feed")),
	}
}

// Run produces two messages per round and closes the sink when done, also
// on error.
func (f *ReplayFeed) Run(ctx context.Context) error {
	defer f.sink.Close()

	rounds, err := f.source.Rounds(ctx)
	if err != nil {
		return fmt.Errorf("replay: load history: %w", err)
	}
	sort.SliceStable(rounds, func(i, j int) bool {
		return rounds[i].RolledAt.Before(rounds[j].RolledAt)
	})
	f.logger.Info("replaying history", slog.Int("rounds", len(rounds)))

	for _, r := range rounds {
		waiting := domain.WaitingEvent(r.RolledAt)
		waiting.RoundID = r.ID
		rolling := domain.RollingEvent(r.Color, r.RolledAt)
		rolling.RoundID = r.ID

		for _, ev := range []domain.Event{waiting, rolling} {
			err := f.sink.Add(ctx, domain.Message{ID: domain.MsgDoubleTick, Event: ev})
			if errors.Is(err, domain.ErrChannelClosed) {
				f.logger.Info("channel closed, replay stopped early")
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Sources
// ---------------------------------------------------------------------------

// FileHistory reads CSV files from disk.
type FileHistory struct {
	Paths    []string
	Location *time.Location
	Logger   *slog.Logger
}

func (h FileHistory) Rounds(_ context.Context) ([]domain.Round, error) {
	var out []domain.Round
	for _, p := range h.Paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("history file: %w", err)
		}
		res, err := history.ReadCSV(f, h.Location)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("history file %s: %w", p, err)
		}
		logSkipped(h.Logger, p, res.Skipped)
		out = append(out, res.Rounds...)
	}
	return out, nil
}

// BlobHistory reads every CSV object under Prefix from object storage.
type BlobHistory struct {
	Reader   domain.BlobReader
	Prefix   string
	Location *time.Location
	Logger   *slog.Logger
}

func (h BlobHistory) Rounds(ctx context.Context) ([]domain.Round, error) {
	infos, err := h.Reader.List(ctx, h.Prefix)
	if err != nil {
		return nil, fmt.Errorf("history blob: list %s: %w", h.Prefix, err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })

	var out []domain.Round
	for _, info := range infos {
		if !strings.EqualFold(path.Ext(info.Path), ".csv") {
			continue
		}
		rc, err := h.Reader.Get(ctx, info.Path)
		if err != nil {
			return nil, fmt.Errorf("history blob: %w", err)
		}
		res, err := history.ReadCSV(rc, h.Location)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("history blob %s: %w", info.Path, err)
		}
		logSkipped(h.Logger, info.Path, res.Skipped)
		out = append(out, res.Rounds...)
	}
	return out, nil
}

// StoreHistory reads rounds captured in the database.
type StoreHistory struct {
	Store domain.RoundStore
	Opts  domain.ListOpts
}

func (h StoreHistory) Rounds(ctx context.Context) ([]domain.Round, error) {
	rounds, err := h.Store.ListRange(ctx, h.Opts)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}
	return rounds, nil
}

// StaticHistory replays a fixed slice.
type StaticHistory []domain.Round

func (h StaticHistory) Rounds(context.Context) ([]domain.Round, error) {
	return append([]domain.Round(nil), h...), nil
}

func logSkipped(logger *slog.Logger, source string, skipped int) {
	if logger == nil || skipped == 0 {
		return
	}
	logger.Warn("skipped unparseable history rows",
		slog.String("source", source),
		slog.Int("rows", skipped),
	)
}
