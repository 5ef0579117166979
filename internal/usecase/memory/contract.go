package memory

import (
	"context"

	"github.com/promethia-ai/promethia/internal/domain"
)

// Repository persists and scans the append-only record table.
// An implementation backed by a real index may replace the full scan
// without changing the Query contract.
type Repository interface {
	Insert(ctx context.Context, rec domain.MemoryRecord) (int64, error)
	All(ctx context.Context) ([]domain.MemoryRecord, error)
	Recent(ctx context.Context, limit int) ([]domain.MemoryRecord, error)
	Count(ctx context.Context) (int64, error)
}
