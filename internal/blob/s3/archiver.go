package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/history"
)

// RoundArchiveStore is the part of the round store the archiver needs.
type RoundArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.Round, error)
	DeleteIDs(ctx context.Context, ids []string) (int64, error)
}

const (
	defaultArchiveBatch = 10000
	// Archives larger than this go through the multipart uploader.
	multipartThreshold = 16 * 1024 * 1024
)

// Archiver moves rounds older than a cutoff from the database into CSV
// objects. Rows are deleted only after their object has been uploaded.
type Archiver struct {
	writer domain.BlobWriter
	store  RoundArchiveStore
	audit  domain.AuditStore
	batch  int
	logger *slog.Logger
}

// NewArchiver creates an Archiver. audit may be nil.
func NewArchiver(writer domain.BlobWriter, store RoundArchiveStore, audit domain.AuditStore, batch int, logger *slog.Logger) *Archiver {
	if batch <= 0 {
		batch = defaultArchiveBatch
	}
	return &Archiver{
		writer: writer,
		store:  store,
		audit:  audit,
		batch:  batch,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveRounds archives every round rolled before the cutoff, one batch per
// object, and returns the number of rounds moved.
func (a *Archiver) ArchiveRounds(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	for {
		rounds, err := a.store.ListBefore(ctx, before, a.batch)
		if err != nil {
			return total, fmt.Errorf("s3blob: archive query: %w", err)
		}
		if len(rounds) == 0 {
			return total, nil
		}

		path, err := a.upload(ctx, rounds)
		if err != nil {
			return total, err
		}

		ids := make([]string, len(rounds))
		for i, r := range rounds {
			ids[i] = r.ID
		}
		deleted, err := a.store.DeleteIDs(ctx, ids)
		if err != nil {
			return total, fmt.Errorf("s3blob: archive delete: %w", err)
		}
		total += deleted

		a.logger.InfoContext(ctx, "rounds archived",
			slog.String("path", path),
			slog.Int("count", len(rounds)),
		)
		if a.audit != nil {
			if err := a.audit.Log(ctx, "archive.rounds", map[string]any{
				"path":   path,
				"count":  len(rounds),
				"before": before.Format(time.RFC3339),
			}); err != nil {
				return total, fmt.Errorf("s3blob: archive audit: %w", err)
			}
		}

		if len(rounds) < a.batch {
			return total, nil
		}
	}
}

func (a *Archiver) upload(ctx context.Context, rounds []domain.Round) (string, error) {
	var buf bytes.Buffer
	if err := history.WriteCSV(&buf, rounds); err != nil {
		return "", fmt.Errorf("s3blob: archive encode: %w", err)
	}

	path := ArchivePath(rounds[0].RolledAt, rounds[len(rounds)-1].RolledAt)
	var err error
	if buf.Len() > multipartThreshold {
		err = a.writer.PutMultipart(ctx, path, &buf, minPartSize)
	} else {
		err = a.writer.Put(ctx, path, &buf, "text/csv")
	}
	if err != nil {
		return "", fmt.Errorf("s3blob: archive upload: %w", err)
	}
	return path, nil
}

// ArchivePath is the object key for rounds rolled between from and to,
// partitioned by the month of the first round.
//
//	rounds/2024/03/rounds-20240301T000012Z-20240307T235948Z.csv
func ArchivePath(from, to time.Time) string {
	const stamp = "20060102T150405Z"
	from, to = from.UTC(), to.UTC()
	return fmt.Sprintf("rounds/%s/rounds-%s-%s.csv",
		from.Format("2006/01"), from.Format(stamp), to.Format(stamp))
}
