package chat

import (
	"context"

	"github.com/promethia-ai/promethia/internal/domain"
)

// Gate pre-screens user input before any retrieval or generation work.
type Gate interface {
	Check(ctx context.Context, text string) (domain.Decision, error)
}

// Memories is the slice of the memory service the orchestrator needs:
// similarity lookup for grounding and a write path for prompt capture.
type Memories interface {
	Query(ctx context.Context, text string, topK int) ([]domain.MemoryMatch, error)
	Store(ctx context.Context, namespace, text string) (int64, error)
}

// Searcher returns ranked web results for a query.
type Searcher interface {
	Search(ctx context.Context, query string, size int) ([]domain.SearchResult, error)
}

// Completer drives the language model, streaming and one-shot.
type Completer interface {
	Stream(ctx context.Context, model, prompt string) (<-chan string, <-chan error)
	Complete(ctx context.Context, model, prompt string) (string, error)
}
