package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"newsrag/internal/llm"
	"newsrag/internal/monitor"
	"newsrag/internal/store"
	"newsrag/internal/types"
)

type fakeSearcher struct {
	articles []types.ArticleRecord
	err      error
	// minThreshold simulates sparse data: thresholds above it return
	// nothing.
	minThreshold float64
	calls        int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int, threshold float64) ([]types.ArticleRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if threshold > f.minThreshold {
		return nil, nil
	}
	return f.articles, nil
}

type fakeSummarizer struct {
	result *types.SummaryResult
	err    error
}

func (f *fakeSummarizer) GenerateSummary(context.Context, []types.ArticleRecord, string, bool) (*types.SummaryResult, error) {
	return f.result, f.err
}

func (f *fakeSummarizer) CacheStats() types.CacheStats {
	return types.CacheStats{Size: 3, MaxSize: 100, Hits: 7, Misses: 2}
}

func testRouter(searcher *fakeSearcher, summarizer *fakeSummarizer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &store.Config{}
	r := gin.New()
	New(cfg, searcher, summarizer, monitor.NewNoop()).Register(r)
	return r
}

func goodSummary() *types.SummaryResult {
	return &types.SummaryResult{
		Summary:       "Markets were calm.",
		KeyPoints:     []string{"calm"},
		Sentiment:     types.SentimentVerdict{Overall: types.SentimentNeutral, Score: 50},
		ImpactLevel:   types.ImpactLow,
		FormattedText: "**Executive Summary**\nMarkets were calm.",
	}
}

func TestSummarizeReturnsJSON(t *testing.T) {
	searcher := &fakeSearcher{articles: []types.ArticleRecord{{ID: "1"}}, minThreshold: 0.7}
	router := testRouter(searcher, &fakeSummarizer{result: goodSummary()})

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"query":"eur outlook"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body types.SummaryResult
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body.Summary != "Markets were calm." {
		t.Errorf("Unexpected summary: %q", body.Summary)
	}
}

func TestSummarizeTextFormat(t *testing.T) {
	searcher := &fakeSearcher{articles: []types.ArticleRecord{{ID: "1"}}, minThreshold: 0.7}
	router := testRouter(searcher, &fakeSummarizer{result: goodSummary()})

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"query":"eur","format":"text"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "**Executive Summary**") {
		t.Errorf("Expected the raw analysis text, got %q", w.Body.String())
	}
}

func TestSummarizeRequiresQuery(t *testing.T) {
	router := testRouter(&fakeSearcher{}, &fakeSummarizer{result: goodSummary()})

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing query, got %d", w.Code)
	}
}

func TestSummarizeErrorStatusMapping(t *testing.T) {
	cases := []struct {
		errText string
		want    int
	}{
		{"429 rate limit exceeded", http.StatusTooManyRequests},
		{"request timed out", http.StatusGatewayTimeout},
		{"401 unauthorized", http.StatusBadGateway},
		{"connection refused", http.StatusBadGateway},
		{"unexpected failure", http.StatusInternalServerError},
	}
	for _, c := range cases {
		summarizer := &fakeSummarizer{
			err: llm.NewError("azure_openai", "completion failed", errors.New(c.errText)),
		}
		searcher := &fakeSearcher{articles: []types.ArticleRecord{{ID: "1"}}, minThreshold: 0.7}
		router := testRouter(searcher, summarizer)

		req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"query":"q"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != c.want {
			t.Errorf("Error %q: expected status %d, got %d", c.errText, c.want, w.Code)
		}
	}
}

func TestSearchThresholdFallback(t *testing.T) {
	// Results only appear once the threshold relaxes to 0.5.
	searcher := &fakeSearcher{
		articles:     []types.ArticleRecord{{ID: "1", Title: "t"}},
		minThreshold: 0.5,
	}
	router := testRouter(searcher, &fakeSummarizer{result: goodSummary()})

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"eur"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body searchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.TotalCount != 1 {
		t.Errorf("Expected 1 result, got %d", body.TotalCount)
	}
	if body.UsedThreshold == nil || *body.UsedThreshold != 0.5 {
		t.Errorf("Expected used threshold 0.5, got %v", body.UsedThreshold)
	}
	if searcher.calls != 3 {
		t.Errorf("Expected 3 search attempts (0.7, 0.6, 0.5), got %d", searcher.calls)
	}
}

func TestSearchPinnedThreshold(t *testing.T) {
	searcher := &fakeSearcher{
		articles:     []types.ArticleRecord{{ID: "1"}},
		minThreshold: 0.4,
	}
	router := testRouter(searcher, &fakeSummarizer{result: goodSummary()})

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"eur","score_threshold":0.9}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if searcher.calls != 1 {
		t.Errorf("Expected a single attempt with a pinned threshold, got %d", searcher.calls)
	}
	var body searchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.TotalCount != 0 {
		t.Errorf("Expected no results above the pinned threshold, got %d", body.TotalCount)
	}
}

func TestSearchBackendFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	router := testRouter(searcher, &fakeSummarizer{result: goodSummary()})

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"eur"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 when the backend is down, got %d", w.Code)
	}
}

func TestSummaryStats(t *testing.T) {
	router := testRouter(&fakeSearcher{}, &fakeSummarizer{result: goodSummary()})

	req := httptest.NewRequest(http.MethodGet, "/summarize/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var stats types.CacheStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if stats.Hits != 7 || stats.Misses != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestHealthDegradedWithoutStats(t *testing.T) {
	// The fake searcher cannot report collection stats.
	router := testRouter(&fakeSearcher{}, &fakeSummarizer{result: goodSummary()})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("Expected degraded status, got %v", body["status"])
	}
	if body["qdrant_connected"] != false {
		t.Errorf("Expected qdrant_connected false, got %v", body["qdrant_connected"])
	}
}

func TestRootEndpoint(t *testing.T) {
	router := testRouter(&fakeSearcher{}, &fakeSummarizer{result: goodSummary()})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "NewsRagnarok API") {
		t.Error("Expected the service banner in the root response")
	}
}
