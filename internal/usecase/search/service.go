// Package search ranks raw web search results by a domain-trust policy
// before they reach grounding or verification. The provider decides what
// is relevant; the ranker decides what is credible.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/promethia-ai/promethia/internal/domain"
	"github.com/promethia-ai/promethia/internal/logger"
)

const defaultSize = 6

type Service struct {
	provider Provider
	size     int
}

func NewService(provider Provider, size int) *Service {
	if size <= 0 {
		size = defaultSize
	}
	return &Service{provider: provider, size: size}
}

// Search fetches and ranks results for the query. A size of zero or less
// falls back to the service default.
func (s *Service) Search(ctx context.Context, query string, size int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if size <= 0 {
		size = s.size
	}

	results, err := s.provider.Search(ctx, query, size)
	if err != nil {
		return nil, fmt.Errorf("search provider: %w", err)
	}

	ranked := Rank(results)
	logger.FromContext(ctx).Debug("search ranked",
		zap.String("query", query),
		zap.Int("results", len(ranked)),
	)
	return ranked, nil
}
