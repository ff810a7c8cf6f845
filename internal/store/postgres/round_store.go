package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcelohmariano/blade/internal/domain"
)

// RoundStore implements domain.RoundStore using PostgreSQL.
type RoundStore struct {
	pool *pgxpool.Pool
}

// NewRoundStore creates a new RoundStore backed by the given connection pool.
func NewRoundStore(pool *pgxpool.Pool) *RoundStore {
	return &RoundStore{pool: pool}
}

const insertRound = `INSERT INTO rounds (id, color, rolled_at) VALUES ($1, $2, $3)
	ON CONFLICT (id) DO NOTHING`

func scanRounds(rows pgx.Rows) ([]domain.Round, error) {
	defer rows.Close()
	var out []domain.Round
	for rows.Next() {
		var (
			r     domain.Round
			color int16
		)
		if err := rows.Scan(&r.ID, &color, &r.RolledAt); err != nil {
			return nil, err
		}
		r.Color = domain.Color(color)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Insert stores r. A round already recorded under the same id is kept.
func (s *RoundStore) Insert(ctx context.Context, r domain.Round) error {
	if _, err := s.pool.Exec(ctx, insertRound, r.ID, int16(r.Color), r.RolledAt); err != nil {
		return fmt.Errorf("postgres: insert round %s: %w", r.ID, err)
	}
	return nil
}

// InsertBatch inserts rounds in one round trip; duplicates are skipped.
func (s *RoundStore) InsertBatch(ctx context.Context, rounds []domain.Round) error {
	if len(rounds) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rounds {
		batch.Queue(insertRound, r.ID, int16(r.Color), r.RolledAt)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range rounds {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert round batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListRange returns rounds in rolled_at order, filtered by opts.
func (s *RoundStore) ListRange(ctx context.Context, opts domain.ListOpts) ([]domain.Round, error) {
	query, args := rangeQuery(opts)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list rounds: %w", err)
	}
	rounds, err := scanRounds(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan rounds: %w", err)
	}
	return rounds, nil
}

func rangeQuery(opts domain.ListOpts) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString(`SELECT id, color, rolled_at FROM rounds WHERE 1=1`)
	if opts.Since != nil {
		args = append(args, *opts.Since)
		fmt.Fprintf(&b, " AND rolled_at >= $%d", len(args))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		fmt.Fprintf(&b, " AND rolled_at < $%d", len(args))
	}
	b.WriteString(" ORDER BY rolled_at ASC, id ASC")
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

// ListRecent returns the latest rounds, newest first.
func (s *RoundStore) ListRecent(ctx context.Context, limit int) ([]domain.Round, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, color, rolled_at FROM rounds ORDER BY rolled_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent rounds: %w", err)
	}
	rounds, err := scanRounds(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan rounds: %w", err)
	}
	return rounds, nil
}

// Count returns the number of stored rounds.
func (s *RoundStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM rounds`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count rounds: %w", err)
	}
	return n, nil
}

// ListBefore returns up to limit rounds rolled before the cutoff, oldest
// first. Used by the archiver.
func (s *RoundStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.Round, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, color, rolled_at FROM rounds WHERE rolled_at < $1 ORDER BY rolled_at ASC LIMIT $2`,
		before, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list rounds before: %w", err)
	}
	rounds, err := scanRounds(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan rounds: %w", err)
	}
	return rounds, nil
}

// DeleteIDs removes the given rounds and returns how many were deleted.
func (s *RoundStore) DeleteIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM rounds WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete rounds: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ domain.RoundStore = (*RoundStore)(nil)
