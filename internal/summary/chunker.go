package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"newsrag/internal/interfaces"
	"newsrag/internal/logger"
	"newsrag/internal/store"
	"newsrag/internal/trace"
	"newsrag/internal/types"
)

// chunkCoordinator drives summary generation end to end: cache lookup,
// prompt construction, the LLM call, parsing, and the chunked path for
// batches larger than one LLM call can carry. Chunks are processed
// sequentially so one request never fans out concurrent LLM load.
type chunkCoordinator struct {
	cfg       *store.Config
	completer interfaces.Completer
	monitor   interfaces.Monitor
	prompt    *promptBuilder
	cache     *resultCache
}

func newChunkCoordinator(cfg *store.Config, completer interfaces.Completer, monitor interfaces.Monitor) *chunkCoordinator {
	return &chunkCoordinator{
		cfg:       cfg,
		completer: completer,
		monitor:   monitor,
		prompt:    newPromptBuilder(cfg.Summary.MaxArticles, cfg.Summary.MaxContentChars),
		cache: newResultCache(
			cfg.Summary.CacheSize,
			time.Duration(cfg.Summary.CacheTTLSecs)*time.Second,
		),
	}
}

// generateSummary produces a structured summary for the article batch.
// Zero articles yields a canned result without touching the LLM. A
// failed generation returns a non-nil error so callers can tell it
// apart from the empty-input case.
func (c *chunkCoordinator) generateSummary(ctx context.Context, articles []types.ArticleRecord, query string, useCache bool) (*types.SummaryResult, error) {
	ctx, span := trace.StartSpan(ctx, "summary-generate")
	defer span.End()

	if len(articles) == 0 {
		logger.Info(ctx, "No articles provided for summarization", "query", query)
		return emptyStateResult(query), nil
	}

	key := cacheKey(articles, query)
	if useCache {
		if cached, ok := c.cache.get(key); ok {
			logger.Info(ctx, "Summary cache hit", "query", query, "articles", len(articles))
			c.monitor.RecordEvent(ctx, "summary.cache_hit", map[string]string{"query": query})
			return cached, nil
		}
	}

	var result *types.SummaryResult
	var err error
	if len(articles) <= c.cfg.Summary.MaxChunkSize {
		result, err = c.singlePass(ctx, articles, query)
	} else {
		result, err = c.chunkedPass(ctx, articles, query)
	}
	if err != nil {
		return nil, err
	}

	if useCache {
		c.cache.set(key, result, 0)
	}
	return result, nil
}

func (c *chunkCoordinator) cacheStats() types.CacheStats {
	return c.cache.stats()
}

// singlePass runs one prompt through the LLM and parses the completion.
func (c *chunkCoordinator) singlePass(ctx context.Context, articles []types.ArticleRecord, query string) (*types.SummaryResult, error) {
	userPrompt := c.prompt.format(articles, query)

	start := time.Now()
	completion, err := c.completer.Complete(ctx, interfaces.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  c.cfg.LLM.Temperature,
		MaxTokens:    c.cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("summary generation failed: %w", err)
	}
	c.monitor.RecordMetric(ctx, "summary.llm_duration_seconds", time.Since(start).Seconds(), map[string]string{"query": query})

	result := parseStructuredResponse(completion)
	result.FormattedText = completion
	result.Query = query
	result.ArticleCount = len(articles)
	result.Timestamp = time.Now().UTC().Format(time.RFC3339)
	result.MarketConditions = marketConditionsStatement(articles, result.Sentiment.Score)

	logger.Info(ctx, "Summary generated",
		"query", query,
		"articles", len(articles),
		"pairs", len(result.CurrencyPairRankings),
		"sentiment", result.Sentiment.Overall)
	return result, nil
}

// chunkedPass splits an oversized batch into consecutive chunks,
// summarizes each independently and merges the successes. Individual
// chunk failures are logged and counted, never aborting the batch; an
// error is returned only when every chunk failed.
func (c *chunkCoordinator) chunkedPass(ctx context.Context, articles []types.ArticleRecord, query string) (*types.SummaryResult, error) {
	sorted := make([]types.ArticleRecord, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PublishDate != sorted[j].PublishDate {
			if sorted[i].PublishDate == "" {
				return false
			}
			if sorted[j].PublishDate == "" {
				return true
			}
			return sorted[i].PublishDate > sorted[j].PublishDate
		}
		return sorted[i].Score > sorted[j].Score
	})

	size := c.cfg.Summary.MaxChunkSize
	totalChunks := (len(sorted) + size - 1) / size
	logger.Info(ctx, "Processing articles in chunks",
		"query", query, "articles", len(sorted), "chunks", totalChunks)

	var results []*types.SummaryResult
	errCount := 0
	var lastErr error
	for i := 0; i < totalChunks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("summary generation canceled after %d of %d chunks: %w", i, totalChunks, err)
		}

		end := (i + 1) * size
		if end > len(sorted) {
			end = len(sorted)
		}
		chunk := sorted[i*size : end]
		chunkQuery := fmt.Sprintf("%s (part %d/%d)", query, i+1, totalChunks)

		result, err := c.singlePass(ctx, chunk, chunkQuery)
		if err != nil {
			errCount++
			lastErr = err
			logger.ErrorWithErr(ctx, "Chunk summarization failed", err,
				"chunk", i+1, "of", totalChunks)
			c.monitor.RecordEvent(ctx, "summary.chunk_failed", map[string]string{
				"chunk": fmt.Sprintf("%d/%d", i+1, totalChunks),
			})
			continue
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("all %d summary chunks failed: %w", totalChunks, lastErr)
	}

	merged := mergeChunkResults(results, query)
	merged.ProcessingDetails = &types.ProcessingDetails{
		ChunksProcessed: len(results),
		TotalChunks:     totalChunks,
		TotalArticles:   len(sorted),
		ChunkErrorCount: errCount,
	}
	merged.MarketConditions = marketConditionsStatement(sorted, merged.Sentiment.Score)
	return merged, nil
}

// emptyStateResult is the canned zero-article response. Lists stay
// empty; the shape is still complete enough to serialize cleanly.
func emptyStateResult(query string) *types.SummaryResult {
	return &types.SummaryResult{
		Summary:                   "No news articles available to summarize.",
		KeyPoints:                 []string{},
		CurrencyPairRankings:      []types.CurrencyPairRanking{},
		RiskAssessment:            types.RiskAssessment{},
		TradeManagementGuidelines: []string{},
		Sentiment:                 types.SentimentVerdict{Overall: types.SentimentNeutral, Score: 50},
		ImpactLevel:               types.ImpactLow,
		Timestamp:                 time.Now().UTC().Format(time.RFC3339),
		Query:                     query,
		ArticleCount:              0,
	}
}

// mergeChunkResults combines per-chunk summaries deterministically in
// chunk order. A panic during merging degrades to the first chunk's
// result rather than failing the request.
func mergeChunkResults(results []*types.SummaryResult, query string) (merged *types.SummaryResult) {
	defer func() {
		if r := recover(); r != nil {
			merged = results[0]
		}
	}()

	merged = &types.SummaryResult{
		Summary:   results[0].Summary,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Query:     query,
	}

	// Summary: append sentences from later chunks unless they overlap
	// too heavily with what is already kept.
	kept := splitSentences(results[0].Summary)
	for _, r := range results[1:] {
		for _, sentence := range splitSentences(r.Summary) {
			if maxJaccard(sentence, kept) <= 0.5 {
				kept = append(kept, sentence)
			}
		}
	}
	merged.Summary = strings.Join(kept, " ")

	// Key points: concatenate, dedup at a tighter similarity bar, cap 5.
	var points []string
	for _, r := range results {
		for _, p := range r.KeyPoints {
			if maxJaccard(p, points) > 0.7 {
				continue
			}
			points = append(points, p)
			if len(points) == 5 {
				break
			}
		}
		if len(points) == 5 {
			break
		}
	}
	merged.KeyPoints = points

	merged.CurrencyPairRankings = mergePairRankings(results)
	merged.RiskAssessment = mergeRiskAssessments(results)

	totalScore := 0
	for _, r := range results {
		totalScore += r.Sentiment.Score
		merged.ArticleCount += r.ArticleCount
		merged.TradeManagementGuidelines = appendUniqueGuidelines(merged.TradeManagementGuidelines, r.TradeManagementGuidelines)
	}
	score := totalScore / len(results)
	merged.Sentiment = types.SentimentVerdict{
		Overall: types.CategorizeSentiment(score),
		Score:   score,
	}
	merged.ImpactLevel = impactLevel(merged.Summary, score)
	merged.FormattedText = results[0].FormattedText

	return merged
}

// mergePairRankings folds per-chunk pair lists by pair name: rank takes
// the max, outlooks average, rationales append up to 500 chars, and a
// mentions counter tracks how many chunks discussed the pair.
func mergePairRankings(results []*types.SummaryResult) []types.CurrencyPairRanking {
	index := make(map[string]int)
	var pairs []types.CurrencyPairRanking
	for _, r := range results {
		for _, p := range r.CurrencyPairRankings {
			i, seen := index[p.Pair]
			if !seen {
				p.Mentions = 1
				index[p.Pair] = len(pairs)
				pairs = append(pairs, p)
				continue
			}

			existing := &pairs[i]
			if p.Rank > existing.Rank {
				existing.Rank = p.Rank
			}
			existing.FundamentalOutlook = (existing.FundamentalOutlook + p.FundamentalOutlook) / 2
			existing.SentimentOutlook = (existing.SentimentOutlook + p.SentimentOutlook) / 2
			existing.Mentions++
			combined := existing.Rationale + " " + p.Rationale
			if len(combined) > 500 {
				combined = combined[:500]
			}
			existing.Rationale = combined
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Rank != pairs[j].Rank {
			return pairs[i].Rank > pairs[j].Rank
		}
		return pairs[i].Mentions > pairs[j].Mentions
	})
	if len(pairs) > 8 {
		pairs = pairs[:8]
	}
	return pairs
}

// mergeRiskAssessments keeps the longest non-empty value per field,
// treating length as a proxy for detail.
func mergeRiskAssessments(results []*types.SummaryResult) types.RiskAssessment {
	var merged types.RiskAssessment
	for _, r := range results {
		if len(r.RiskAssessment.PrimaryRisk) > len(merged.PrimaryRisk) {
			merged.PrimaryRisk = r.RiskAssessment.PrimaryRisk
		}
		if len(r.RiskAssessment.CorrelationRisk) > len(merged.CorrelationRisk) {
			merged.CorrelationRisk = r.RiskAssessment.CorrelationRisk
		}
		if len(r.RiskAssessment.VolatilityPotential) > len(merged.VolatilityPotential) {
			merged.VolatilityPotential = r.RiskAssessment.VolatilityPotential
		}
	}
	return merged
}

func appendUniqueGuidelines(existing, incoming []string) []string {
	for _, g := range incoming {
		if maxJaccard(g, existing) > 0.7 {
			continue
		}
		existing = append(existing, g)
	}
	return existing
}

// maxJaccard returns the highest token-set Jaccard similarity between
// candidate and any of the existing strings.
func maxJaccard(candidate string, existing []string) float64 {
	highest := 0.0
	for _, e := range existing {
		if s := jaccardSimilarity(candidate, e); s > highest {
			highest = s
		}
	}
	return highest
}

// jaccardSimilarity compares two strings as lowercased token sets.
func jaccardSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(s)) {
		set[token] = struct{}{}
	}
	return set
}
