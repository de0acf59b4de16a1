// Package summary implements structured forex summary generation:
// prompt construction, LLM completion parsing, result caching and
// chunked processing of large article batches.
package summary

import (
	"context"

	"newsrag/internal/interfaces"
	"newsrag/internal/store"
	"newsrag/internal/types"
)

// Service is the public entry point of the summary pipeline. It owns
// no state beyond the coordinator it delegates to.
type Service struct {
	coordinator *chunkCoordinator
}

var _ interfaces.Summarizer = (*Service)(nil)

func NewService(cfg *store.Config, completer interfaces.Completer, monitor interfaces.Monitor) *Service {
	return &Service{
		coordinator: newChunkCoordinator(cfg, completer, monitor),
	}
}

// GenerateSummary produces a structured summary for the given articles.
// Zero articles returns a canned result with a nil error; a failed
// generation returns a non-nil error.
func (s *Service) GenerateSummary(ctx context.Context, articles []types.ArticleRecord, query string, useCache bool) (*types.SummaryResult, error) {
	return s.coordinator.generateSummary(ctx, articles, query, useCache)
}

// CacheStats reports the effectiveness of the summary cache.
func (s *Service) CacheStats() types.CacheStats {
	return s.coordinator.cacheStats()
}

// ClearCache drops all cached summaries.
func (s *Service) ClearCache() {
	s.coordinator.cache.clear()
}
