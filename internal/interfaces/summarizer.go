package interfaces

import (
	"context"

	"newsrag/internal/types"
)

// Summarizer is the public contract of the summary pipeline.
type Summarizer interface {
	GenerateSummary(ctx context.Context, articles []types.ArticleRecord, query string, useCache bool) (*types.SummaryResult, error)
	CacheStats() types.CacheStats
}
