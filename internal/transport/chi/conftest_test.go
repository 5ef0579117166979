package chi

import (
	"context"

	"go.uber.org/zap"

	"github.com/promethia-ai/promethia/internal/domain"
	chatuc "github.com/promethia-ai/promethia/internal/usecase/chat"
	healthuc "github.com/promethia-ai/promethia/internal/usecase/health"
	memoryuc "github.com/promethia-ai/promethia/internal/usecase/memory"
	searchuc "github.com/promethia-ai/promethia/internal/usecase/search"
)

// Function-field stubs for the orchestrator collaborators. Nil fields
// default to allow / empty / a one-chunk completion.

type stubGate struct {
	check func(ctx context.Context, text string) (domain.Decision, error)
}

func (g *stubGate) Check(ctx context.Context, text string) (domain.Decision, error) {
	if g.check == nil {
		return domain.Decision{Allowed: true}, nil
	}
	return g.check(ctx, text)
}

type stubMemories struct {
	query func(ctx context.Context, text string, topK int) ([]domain.MemoryMatch, error)
}

func (m *stubMemories) Query(ctx context.Context, text string, topK int) ([]domain.MemoryMatch, error) {
	if m.query == nil {
		return nil, nil
	}
	return m.query(ctx, text, topK)
}

func (m *stubMemories) Store(_ context.Context, _, _ string) (int64, error) {
	return 1, nil
}

type stubSearcher struct {
	search func(ctx context.Context, query string, size int) ([]domain.SearchResult, error)
}

func (s *stubSearcher) Search(ctx context.Context, query string, size int) ([]domain.SearchResult, error) {
	if s.search == nil {
		return nil, nil
	}
	return s.search(ctx, query, size)
}

type stubCompleter struct {
	deltas []string
	err    error
}

func (c *stubCompleter) Stream(ctx context.Context, _, _ string) (<-chan string, <-chan error) {
	out := make(chan string, len(c.deltas)+1)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		for _, d := range c.deltas {
			select {
			case out <- d:
			case <-ctx.Done():
				return
			}
		}
		if c.err != nil {
			errCh <- c.err
		}
	}()
	return out, errCh
}

func (c *stubCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return "answer", nil
}

func newChatService(gate chatuc.Gate, mem chatuc.Memories, srch chatuc.Searcher, model chatuc.Completer) *chatuc.Service {
	if gate == nil {
		gate = &stubGate{}
	}
	if mem == nil {
		mem = &stubMemories{}
	}
	if srch == nil {
		srch = &stubSearcher{}
	}
	if model == nil {
		model = &stubCompleter{deltas: []string{"ok"}}
	}
	return chatuc.NewService(gate, mem, srch, model, chatuc.Config{DefaultModel: "test-model"})
}

// Memory service over in-memory state, for the store/query endpoints.

type stubRepo struct {
	recs   []domain.MemoryRecord
	nextID int64
}

func (r *stubRepo) Insert(_ context.Context, rec domain.MemoryRecord) (int64, error) {
	r.nextID++
	rec.ID = r.nextID
	r.recs = append(r.recs, rec)
	return rec.ID, nil
}

func (r *stubRepo) All(_ context.Context) ([]domain.MemoryRecord, error) {
	return r.recs, nil
}

func (r *stubRepo) Recent(_ context.Context, limit int) ([]domain.MemoryRecord, error) {
	out := make([]domain.MemoryRecord, 0, limit)
	for i := len(r.recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.recs[i])
	}
	return out, nil
}

func (r *stubRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.recs)), nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}}, nil
}

type stubPinger struct{ err error }

func (p *stubPinger) Ping(_ context.Context) error { return p.err }

func newTestServer(chat *chatuc.Service) *Server {
	memSvc := memoryuc.New(&stubRepo{}, stubEmbedder{}, 3)
	searchSvc := searchuc.NewService(&stubSearcher{}, 6)
	healthSvc := healthuc.New(&stubPinger{}, nil)
	if chat == nil {
		chat = newChatService(nil, nil, nil, nil)
	}
	return NewServer(chat, memSvc, searchSvc, healthSvc, zap.NewNop())
}
