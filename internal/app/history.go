package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelohmariano/blade/internal/config"
	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/feed"
)

// historySource picks the replay input named by [replay].source.
func (a *App) historySource(deps *Dependencies) (feed.HistorySource, error) {
	rc := a.cfg.Replay
	loc, err := time.LoadLocation(rc.Timezone)
	if err != nil {
		return nil, fmt.Errorf("replay timezone: %w", err)
	}
	since, err := parseBound(rc.Since)
	if err != nil {
		return nil, fmt.Errorf("replay since: %w", err)
	}
	until, err := parseBound(rc.Until)
	if err != nil {
		return nil, fmt.Errorf("replay until: %w", err)
	}

	var src feed.HistorySource
	switch rc.Source {
	case config.SourceFile:
		src = feed.FileHistory{Paths: rc.Paths, Location: loc, Logger: a.logger}
	case config.SourceS3:
		if deps.BlobReader == nil {
			return nil, errors.New("replay from s3 needs [s3] enabled")
		}
		src = feed.BlobHistory{Reader: deps.BlobReader, Prefix: rc.Prefix, Location: loc, Logger: a.logger}
	case config.SourcePostgres:
		if deps.RoundStore == nil {
			return nil, errors.New("replay from postgres needs [postgres] enabled")
		}
		// The store filters in SQL; nothing left for rangeHistory to drop.
		return feed.StoreHistory{
			Store: deps.RoundStore,
			Opts:  domain.ListOpts{Since: since, Until: until},
		}, nil
	default:
		return nil, fmt.Errorf("unknown replay source %q", rc.Source)
	}

	if since == nil && until == nil {
		return src, nil
	}
	return rangeHistory{src: src, since: since, until: until}, nil
}

func parseBound(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// rangeHistory keeps rounds rolled in [since, until).
type rangeHistory struct {
	src   feed.HistorySource
	since *time.Time
	until *time.Time
}

func (h rangeHistory) Rounds(ctx context.Context) ([]domain.Round, error) {
	rounds, err := h.src.Rounds(ctx)
	if err != nil {
		return nil, err
	}
	out := rounds[:0]
	for _, r := range rounds {
		if h.since != nil && r.RolledAt.Before(*h.since) {
			continue
		}
		if h.until != nil && !r.RolledAt.Before(*h.until) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
