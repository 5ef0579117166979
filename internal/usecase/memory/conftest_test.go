package memory

import (
	"context"
	"sync"

	"github.com/promethia-ai/promethia/internal/domain"
)

// stubEmbedder returns canned vectors by text.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return domain.EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 1}, nil
}

// fakeRepo is an in-memory Repository with append-only semantics.
type fakeRepo struct {
	mu   sync.Mutex
	recs []domain.MemoryRecord
	err  error
}

func (f *fakeRepo) Insert(_ context.Context, rec domain.MemoryRecord) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = int64(len(f.recs) + 1)
	f.recs = append(f.recs, rec)
	return rec.ID, nil
}

func (f *fakeRepo) All(_ context.Context) ([]domain.MemoryRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.MemoryRecord, len(f.recs))
	copy(out, f.recs)
	return out, nil
}

func (f *fakeRepo) Recent(_ context.Context, limit int) ([]domain.MemoryRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.recs)
	if limit > n {
		limit = n
	}
	out := make([]domain.MemoryRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, f.recs[i])
	}
	return out, nil
}

func (f *fakeRepo) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.recs)), nil
}
