package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"newsrag/internal/interfaces"
	"newsrag/internal/monitor"
	"newsrag/internal/store"
	"newsrag/internal/types"
)

type fakeCompleter struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	reply   string
	// fail decides per call (1-based) whether to return an error.
	fail func(call int) error
}

func (f *fakeCompleter) Complete(_ context.Context, req interfaces.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, req.UserPrompt)
	if f.fail != nil {
		if err := f.fail(f.calls); err != nil {
			return "", err
		}
	}
	reply := f.reply
	if reply == "" {
		reply = wellFormedCompletion
	}
	return reply, nil
}

func testConfig() *store.Config {
	cfg := &store.Config{}
	cfg.LLM.Temperature = 0.7
	cfg.LLM.MaxTokens = 4000
	cfg.Summary.MaxArticles = 15
	cfg.Summary.MaxContentChars = 1500
	cfg.Summary.MaxChunkSize = 50
	cfg.Summary.CacheSize = 100
	cfg.Summary.CacheTTLSecs = 1800
	return cfg
}

func makeArticles(n int) []types.ArticleRecord {
	articles := make([]types.ArticleRecord, 0, n)
	for i := 0; i < n; i++ {
		articles = append(articles, types.ArticleRecord{
			ID:          fmt.Sprintf("a%d", i),
			Score:       0.5,
			Title:       fmt.Sprintf("Article %d", i),
			PublishDate: fmt.Sprintf("2026-08-%02d", i%28+1),
			Content:     "EUR/USD traded sideways.",
		})
	}
	return articles
}

func newTestCoordinator(fake *fakeCompleter) *chunkCoordinator {
	return newChunkCoordinator(testConfig(), fake, monitor.NewNoop())
}

func TestGenerateSummaryNoArticles(t *testing.T) {
	fake := &fakeCompleter{}
	coord := newTestCoordinator(fake)

	result, err := coord.generateSummary(context.Background(), nil, "eur outlook", true)
	if err != nil {
		t.Fatalf("Expected nil error for empty input, got %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("Expected no LLM calls for empty input, got %d", fake.calls)
	}
	if result.ImpactLevel != types.ImpactLow {
		t.Errorf("Expected LOW impact, got %s", result.ImpactLevel)
	}
	if result.Sentiment.Overall != types.SentimentNeutral || result.Sentiment.Score != 50 {
		t.Errorf("Expected neutral 50 sentiment, got %+v", result.Sentiment)
	}
	if result.ArticleCount != 0 {
		t.Errorf("Expected article count 0, got %d", result.ArticleCount)
	}
	if len(result.CurrencyPairRankings) != 0 || len(result.KeyPoints) != 0 {
		t.Error("Expected empty lists in the canned result")
	}
}

func TestGenerateSummarySinglePass(t *testing.T) {
	fake := &fakeCompleter{}
	coord := newTestCoordinator(fake)
	articles := makeArticles(10)

	result, err := coord.generateSummary(context.Background(), articles, "eur outlook", false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("Expected 1 LLM call, got %d", fake.calls)
	}
	if result.ArticleCount != 10 {
		t.Errorf("Expected article count 10, got %d", result.ArticleCount)
	}
	if result.Query != "eur outlook" {
		t.Errorf("Expected query to be stamped, got %q", result.Query)
	}
	if result.FormattedText == "" {
		t.Error("Expected raw completion to be retained")
	}
	if result.Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
	if result.MarketConditions == "" {
		t.Error("Expected market conditions statement")
	}
	if result.ProcessingDetails != nil {
		t.Error("Single-pass results must not carry processing details")
	}
}

func TestGenerateSummaryCaching(t *testing.T) {
	fake := &fakeCompleter{}
	coord := newTestCoordinator(fake)
	articles := makeArticles(5)

	first, err := coord.generateSummary(context.Background(), articles, "q", true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := coord.generateSummary(context.Background(), articles, "q", true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if fake.calls != 1 {
		t.Errorf("Expected cache to absorb the second call, got %d LLM calls", fake.calls)
	}
	if first != second {
		t.Error("Expected the identical cached result")
	}

	// Article order must not defeat the cache.
	reordered := []types.ArticleRecord{articles[4], articles[0], articles[2], articles[1], articles[3]}
	if _, err := coord.generateSummary(context.Background(), reordered, "q", true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("Expected reordered articles to hit the cache, got %d LLM calls", fake.calls)
	}

	// Bypassing the cache forces a fresh generation.
	if _, err := coord.generateSummary(context.Background(), articles, "q", false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("Expected a fresh LLM call with caching off, got %d", fake.calls)
	}
}

func TestGenerateSummaryChunked(t *testing.T) {
	fake := &fakeCompleter{}
	coord := newTestCoordinator(fake)
	articles := makeArticles(60)

	result, err := coord.generateSummary(context.Background(), articles, "eur outlook", false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("Expected 2 LLM calls for 60 articles at chunk size 50, got %d", fake.calls)
	}

	if result.ProcessingDetails == nil {
		t.Fatal("Expected processing details on a chunked result")
	}
	pd := result.ProcessingDetails
	if pd.ChunksProcessed != 2 || pd.TotalChunks != 2 || pd.ChunkErrorCount != 0 {
		t.Errorf("Unexpected processing details: %+v", pd)
	}
	if pd.TotalArticles != 60 {
		t.Errorf("Expected 60 total articles, got %d", pd.TotalArticles)
	}
	// Chunks are disjoint slices, so per-chunk counts sum to the batch.
	if result.ArticleCount != 60 {
		t.Errorf("Expected summed article count 60, got %d", result.ArticleCount)
	}

	if !strings.Contains(fake.prompts[0], "(part 1/2)") {
		t.Error("Expected chunk 1 query annotation in the prompt")
	}
	if !strings.Contains(fake.prompts[1], "(part 2/2)") {
		t.Error("Expected chunk 2 query annotation in the prompt")
	}
}

func TestGenerateSummaryPartialChunkFailure(t *testing.T) {
	fake := &fakeCompleter{
		fail: func(call int) error {
			if call == 2 {
				return errors.New("429 rate limit exceeded")
			}
			return nil
		},
	}
	coord := newTestCoordinator(fake)
	articles := makeArticles(150)

	result, err := coord.generateSummary(context.Background(), articles, "q", false)
	if err != nil {
		t.Fatalf("Expected partial success, got error: %v", err)
	}
	if fake.calls != 3 {
		t.Errorf("Expected all 3 chunks attempted, got %d calls", fake.calls)
	}

	pd := result.ProcessingDetails
	if pd == nil {
		t.Fatal("Expected processing details")
	}
	if pd.ChunksProcessed != 2 || pd.TotalChunks != 3 || pd.ChunkErrorCount != 1 {
		t.Errorf("Unexpected processing details: %+v", pd)
	}
	if result.ArticleCount != 100 {
		t.Errorf("Expected 100 articles from the 2 successful chunks, got %d", result.ArticleCount)
	}
}

func TestGenerateSummaryAllChunksFail(t *testing.T) {
	fake := &fakeCompleter{
		fail: func(int) error { return errors.New("503 connection refused") },
	}
	coord := newTestCoordinator(fake)

	_, err := coord.generateSummary(context.Background(), makeArticles(120), "q", false)
	if err == nil {
		t.Fatal("Expected an error when every chunk fails")
	}
	if fake.calls != 3 {
		t.Errorf("Expected all 3 chunks attempted, got %d", fake.calls)
	}
}

func TestGenerateSummarySinglePassFailure(t *testing.T) {
	fake := &fakeCompleter{
		fail: func(int) error { return errors.New("timeout waiting for completion") },
	}
	coord := newTestCoordinator(fake)

	_, err := coord.generateSummary(context.Background(), makeArticles(5), "q", false)
	if err == nil {
		t.Fatal("Expected the single-pass failure to surface")
	}
}

func TestGenerateSummaryCanceledContext(t *testing.T) {
	fake := &fakeCompleter{}
	coord := newTestCoordinator(fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := coord.generateSummary(ctx, makeArticles(120), "q", false)
	if err == nil {
		t.Fatal("Expected an error for a canceled context")
	}
	if fake.calls != 0 {
		t.Errorf("Expected no chunks processed after cancellation, got %d", fake.calls)
	}
}

func TestMergeChunkResults(t *testing.T) {
	first := &types.SummaryResult{
		Summary:   "The euro rallied on strong data.",
		KeyPoints: []string{"Euro rallied", "ECB stayed hawkish"},
		CurrencyPairRankings: []types.CurrencyPairRanking{
			{Pair: "EUR/USD", Rank: 6, MaxRank: 10, FundamentalOutlook: 60, SentimentOutlook: 70, Rationale: "ECB support."},
		},
		RiskAssessment: types.RiskAssessment{PrimaryRisk: "CPI print", CorrelationRisk: "short", VolatilityPotential: "elevated near data"},
		Sentiment:      types.SentimentVerdict{Overall: types.SentimentBullish, Score: 70},
		ArticleCount:   50,
		FormattedText:  "raw one",
	}
	second := &types.SummaryResult{
		Summary:   "Sterling slid after weak retail sales figures surprised markets.",
		KeyPoints: []string{"Euro rallied", "Sterling slid on retail sales"},
		CurrencyPairRankings: []types.CurrencyPairRanking{
			{Pair: "EUR/USD", Rank: 8, MaxRank: 10, FundamentalOutlook: 80, SentimentOutlook: 50, Rationale: "Momentum continued."},
			{Pair: "GBP/USD", Rank: 4, MaxRank: 10, FundamentalOutlook: 40, SentimentOutlook: 30, Rationale: "Weak retail sales."},
		},
		RiskAssessment: types.RiskAssessment{PrimaryRisk: "A much longer and more detailed risk description", CorrelationRisk: "x", VolatilityPotential: "mild"},
		Sentiment:      types.SentimentVerdict{Overall: types.SentimentNeutral, Score: 40},
		ArticleCount:   50,
		FormattedText:  "raw two",
	}

	merged := mergeChunkResults([]*types.SummaryResult{first, second}, "q")

	if !strings.Contains(merged.Summary, "The euro rallied") || !strings.Contains(merged.Summary, "Sterling slid") {
		t.Errorf("Expected both unique summaries merged, got %q", merged.Summary)
	}

	// The duplicate key point appears once.
	count := 0
	for _, p := range merged.KeyPoints {
		if p == "Euro rallied" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected duplicate key point dropped, got %v", merged.KeyPoints)
	}

	if len(merged.CurrencyPairRankings) != 2 {
		t.Fatalf("Expected 2 merged pairs, got %d", len(merged.CurrencyPairRankings))
	}
	eur := merged.CurrencyPairRankings[0]
	if eur.Pair != "EUR/USD" {
		t.Fatalf("Expected EUR/USD ranked first, got %s", eur.Pair)
	}
	if eur.Rank != 8 {
		t.Errorf("Expected max rank 8, got %f", eur.Rank)
	}
	if eur.FundamentalOutlook != 70 || eur.SentimentOutlook != 60 {
		t.Errorf("Expected averaged outlooks 70/60, got %d/%d", eur.FundamentalOutlook, eur.SentimentOutlook)
	}
	if eur.Mentions != 2 {
		t.Errorf("Expected 2 mentions, got %d", eur.Mentions)
	}
	if !strings.Contains(eur.Rationale, "ECB support.") || !strings.Contains(eur.Rationale, "Momentum continued.") {
		t.Errorf("Expected appended rationales, got %q", eur.Rationale)
	}

	if merged.RiskAssessment.PrimaryRisk != "A much longer and more detailed risk description" {
		t.Errorf("Expected the longest primary risk, got %q", merged.RiskAssessment.PrimaryRisk)
	}
	if merged.RiskAssessment.VolatilityPotential != "elevated near data" {
		t.Errorf("Expected the longest volatility text, got %q", merged.RiskAssessment.VolatilityPotential)
	}

	// Mean of 70 and 40 is 55, neutral.
	if merged.Sentiment.Score != 55 || merged.Sentiment.Overall != types.SentimentNeutral {
		t.Errorf("Unexpected merged sentiment: %+v", merged.Sentiment)
	}

	if merged.ArticleCount != 100 {
		t.Errorf("Expected summed article count 100, got %d", merged.ArticleCount)
	}
	if merged.Query != "q" || merged.Timestamp == "" {
		t.Error("Expected fresh query and timestamp on the merged result")
	}
}

func TestJaccardSimilarity(t *testing.T) {
	if got := jaccardSimilarity("the euro rallied", "the euro rallied"); got != 1 {
		t.Errorf("Expected 1 for identical strings, got %f", got)
	}
	if got := jaccardSimilarity("alpha beta", "gamma delta"); got != 0 {
		t.Errorf("Expected 0 for disjoint strings, got %f", got)
	}
	got := jaccardSimilarity("a b c", "a b d")
	if got < 0.49 || got > 0.51 {
		t.Errorf("Expected 0.5 for half-overlapping sets, got %f", got)
	}
	if got := jaccardSimilarity("", ""); got != 1 {
		t.Errorf("Expected 1 for two empty strings, got %f", got)
	}
}
