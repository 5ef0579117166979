// Package memory implements the store/query surface over the record table:
// embed on write, embed plus brute-force cosine scan on read. The scan is
// O(N*D) per query, which is fine for the moderate record counts this
// service keeps; swap the Repository for an indexed one if N grows.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/promethia-ai/promethia/internal/domain"
	"github.com/promethia-ai/promethia/internal/logger"
)

// cosineEpsilon guards the zero-vector case in similarity scoring.
const cosineEpsilon = 1e-12

const (
	defaultTopK        = 5
	defaultRecentLimit = 50
	maxRecentLimit     = 100
)

// Service handles memory persistence and similarity queries.
type Service struct {
	repo       Repository
	embed      domain.Embedder
	dimensions int
}

// New creates a memory service. dimensions fixes the store's embedding
// dimension D; every insert is checked against it.
func New(repo Repository, embed domain.Embedder, dimensions int) *Service {
	return &Service{repo: repo, embed: embed, dimensions: dimensions}
}

// Store embeds the text and persists a record, returning its id.
// Embedding failures are propagated, not retried.
func (s *Service) Store(ctx context.Context, namespace, text string) (int64, error) {
	if text == "" {
		return 0, domain.ErrEmptyText
	}

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("embed memory: %w", err)
	}
	if s.dimensions > 0 && len(emb.Embedding) != s.dimensions {
		return 0, fmt.Errorf("%w: got %d, want %d",
			domain.ErrVectorDimMismatch, len(emb.Embedding), s.dimensions)
	}

	id, err := s.repo.Insert(ctx, domain.MemoryRecord{
		Namespace: namespace,
		Text:      text,
		Embedding: emb.Embedding,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return 0, fmt.Errorf("persist memory: %w", err)
	}
	return id, nil
}

// Query embeds the text and scans all records for the topK most similar.
// Results are sorted by score descending, ties broken by ascending id,
// independent of scan order. An empty store yields an empty result.
func (s *Service) Query(ctx context.Context, text string, topK int) ([]domain.MemoryMatch, error) {
	if text == "" {
		return nil, domain.ErrEmptyQuery
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	recs, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan memories: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}

	logger.FromContext(ctx).Debug("memory scan",
		zap.Int("records", len(recs)),
		zap.Int("top_k", topK),
	)

	matches := make([]domain.MemoryMatch, len(recs))
	for i, rec := range recs {
		matches[i] = domain.MemoryMatch{
			MemoryRecord: rec,
			Score:        cosine(emb.Embedding, rec.Embedding),
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Recent lists up to limit records, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.MemoryRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	recs, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	return recs, nil
}

// cosine computes dot(a,b) / (|a|*|b| + eps). Vectors of unequal length
// are compared over their common prefix; the store's dimension check
// makes that case unreachable in practice.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + cosineEpsilon)
}
