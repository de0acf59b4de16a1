package summaryobs

import (
	"context"

	"newsrag/internal/interfaces"
	"newsrag/internal/logger"
	"newsrag/internal/trace"
	"newsrag/internal/types"
)

// observableSummarizer wraps a Summarizer with observability (logging & tracing)
type observableSummarizer struct {
	summarizer interfaces.Summarizer
}

// Compile-time interface check
var _ interfaces.Summarizer = (*observableSummarizer)(nil)

// Wrap wraps a summarizer with observability middleware
func Wrap(summarizer interfaces.Summarizer) interfaces.Summarizer {
	return &observableSummarizer{summarizer: summarizer}
}

func (os *observableSummarizer) GenerateSummary(ctx context.Context, articles []types.ArticleRecord, query string, useCache bool) (*types.SummaryResult, error) {
	ctx, span := trace.StartSpan(ctx, "summary.GenerateSummary")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Generating summary",
		"query", query,
		"articles", len(articles),
		"use_cache", useCache,
	)

	result, err := os.summarizer.GenerateSummary(ctx, articles, query, useCache)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to generate summary", err,
			"query", query,
			"articles", len(articles),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Summary ready",
		"query", query,
		"sentiment", result.Sentiment.Overall,
		"impact", result.ImpactLevel,
		"pairs", len(result.CurrencyPairRankings),
	)

	return result, nil
}

func (os *observableSummarizer) CacheStats() types.CacheStats {
	return os.summarizer.CacheStats()
}
