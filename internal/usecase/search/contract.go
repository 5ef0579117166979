package search

import (
	"context"

	"github.com/promethia-ai/promethia/internal/domain"
)

// Provider fetches raw web search results, typically a Brave API client.
type Provider interface {
	Search(ctx context.Context, query string, size int) ([]domain.SearchResult, error)
}
