// Package handler exposes the HTTP API: article search, summary
// generation and operational endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"newsrag/internal/interfaces"
	"newsrag/internal/llm"
	"newsrag/internal/logger"
	"newsrag/internal/store"
	"newsrag/internal/types"
)

// Score thresholds tried in order when the caller does not pin one.
// Starting strict and relaxing keeps result quality high while still
// returning something for sparse queries.
var defaultThresholds = []float64{0.7, 0.6, 0.5, 0.4, 0.3}

// Handler wires the HTTP routes to the search and summary collaborators.
type Handler struct {
	cfg        *store.Config
	searcher   interfaces.Searcher
	summarizer interfaces.Summarizer
	monitor    interfaces.Monitor
}

func New(cfg *store.Config, searcher interfaces.Searcher, summarizer interfaces.Summarizer, monitor interfaces.Monitor) *Handler {
	return &Handler{
		cfg:        cfg,
		searcher:   searcher,
		summarizer: summarizer,
		monitor:    monitor,
	}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.root)
	r.GET("/health", h.health)
	r.POST("/search", h.search)
	r.POST("/summarize", h.summarize)
	r.GET("/summarize/stats", h.summaryStats)
	r.GET("/documents/stats", h.documentStats)
}

type searchRequest struct {
	Query          string   `json:"query" binding:"required"`
	Limit          int      `json:"limit"`
	ScoreThreshold *float64 `json:"score_threshold"`
}

type searchResponse struct {
	Results       []types.ArticleRecord `json:"results"`
	TotalCount    int                   `json:"total_count"`
	Query         string                `json:"query"`
	UsedThreshold *float64              `json:"used_threshold,omitempty"`
}

func (h *Handler) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	articles, used, err := h.searchWithFallback(c.Request.Context(), req.Query, req.Limit, req.ScoreThreshold)
	if err != nil {
		logger.ErrorWithErr(c.Request.Context(), "Search failed", err, "query", req.Query)
		c.JSON(http.StatusBadGateway, gin.H{"detail": "search backend unavailable"})
		return
	}

	c.JSON(http.StatusOK, searchResponse{
		Results:       articles,
		TotalCount:    len(articles),
		Query:         req.Query,
		UsedThreshold: used,
	})
}

type summaryRequest struct {
	Query          string   `json:"query" binding:"required"`
	Limit          int      `json:"limit"`
	ScoreThreshold *float64 `json:"score_threshold"`
	UseCache       *bool    `json:"use_cache"`
	Format         string   `json:"format"`
}

func (h *Handler) summarize(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	useCache := req.UseCache == nil || *req.UseCache

	ctx := c.Request.Context()
	h.monitor.RecordEvent(ctx, "summary_request", map[string]string{
		"query":  req.Query,
		"format": req.Format,
	})

	articles, _, err := h.searchWithFallback(ctx, req.Query, req.Limit, req.ScoreThreshold)
	if err != nil {
		// Retrieval failures degrade to an empty batch; the summarizer
		// answers with its canned empty state rather than a hard error.
		logger.ErrorWithErr(ctx, "Article retrieval failed, proceeding without articles", err, "query", req.Query)
		articles = nil
	}

	result, err := h.summarizer.GenerateSummary(ctx, articles, req.Query, useCache)
	if err != nil {
		status := statusForLLMError(err)
		logger.ErrorWithErr(ctx, "Summary generation failed", err, "query", req.Query, "status", status)
		c.JSON(status, gin.H{"detail": err.Error()})
		return
	}

	if req.Format == "text" && result.FormattedText != "" {
		c.String(http.StatusOK, result.FormattedText)
		return
	}
	c.JSON(http.StatusOK, result)
}

// searchWithFallback retries the vector search with progressively
// looser score thresholds until results come back. A caller-pinned
// threshold is tried alone.
func (h *Handler) searchWithFallback(ctx context.Context, query string, limit int, pinned *float64) ([]types.ArticleRecord, *float64, error) {
	if h.searcher == nil {
		return nil, nil, errors.New("search backend not configured")
	}

	thresholds := defaultThresholds
	if pinned != nil {
		thresholds = []float64{*pinned}
	}

	var lastErr error
	for _, threshold := range thresholds {
		articles, err := h.searcher.Search(ctx, query, limit, threshold)
		if err != nil {
			lastErr = err
			continue
		}
		if len(articles) > 0 {
			t := threshold
			return articles, &t, nil
		}
	}
	if lastErr != nil {
		return nil, nil, lastErr
	}
	return nil, nil, nil
}

func (h *Handler) summaryStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.summarizer.CacheStats())
}

// collectionStatser is implemented by search backends that can report
// collection-level statistics.
type collectionStatser interface {
	CollectionStats(ctx context.Context) (map[string]any, error)
}

func (h *Handler) documentStats(c *gin.Context) {
	statser, ok := h.searcher.(collectionStatser)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"detail": "collection stats not supported by this backend"})
		return
	}
	stats, err := statser.CollectionStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) health(c *gin.Context) {
	connected := false
	var stats map[string]any
	if statser, ok := h.searcher.(collectionStatser); ok {
		if s, err := statser.CollectionStats(c.Request.Context()); err == nil {
			connected = true
			stats = s
		}
	}

	status := "healthy"
	if !connected {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"qdrant_connected": connected,
		"collection_stats": stats,
	})
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "NewsRagnarok API",
		"version":     "1.0.0",
		"description": "News article search and forex summary service",
		"endpoints": gin.H{
			"health":    "/health",
			"search":    "/search",
			"summarize": "/summarize",
			"stats":     "/documents/stats",
		},
	})
}

// statusForLLMError maps provider failure categories onto HTTP status
// codes. Auth and config problems are the upstream's fault from the
// caller's point of view, so they surface as bad gateway.
func statusForLLMError(err error) int {
	if errors.Is(err, context.Canceled) {
		return 499
	}
	switch llm.CategoryOf(err) {
	case llm.CategoryAuth, llm.CategoryConfig, llm.CategoryServiceUnavailable:
		return http.StatusBadGateway
	case llm.CategoryRateLimit:
		return http.StatusTooManyRequests
	case llm.CategoryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
