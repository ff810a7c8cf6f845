package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// RoundStore persists observed round outcomes for later replay.
type RoundStore interface {
	Insert(ctx context.Context, r Round) error
	InsertBatch(ctx context.Context, rounds []Round) error
	ListRange(ctx context.Context, opts ListOpts) ([]Round, error)
	ListRecent(ctx context.Context, limit int) ([]Round, error)
	Count(ctx context.Context) (int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
