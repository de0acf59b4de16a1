// Package qdrant implements the retrieval collaborator: query embedding
// via Azure OpenAI plus nearest-neighbor search against a Qdrant
// collection. Callers treat failures as "no results"; this client never
// retries on their behalf.
package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"newsrag/internal/api"
	"newsrag/internal/interfaces"
	"newsrag/internal/logger"
	"newsrag/internal/store"
	"newsrag/internal/trace"
	"newsrag/internal/types"
)

// Client searches a Qdrant collection over its HTTP API.
type Client struct {
	cfg        *store.Config
	qdrant     *api.Client
	embeddings *api.Client
	collection string
	deployment string
	apiVersion string
}

var _ interfaces.Searcher = (*Client)(nil)

// NewClient builds the search client from QDRANT_URL / QDRANT_API_KEY
// and the Azure OpenAI embedding environment.
func NewClient(cfg *store.Config) (*Client, error) {
	url := os.Getenv("QDRANT_URL")
	if url == "" {
		return nil, errors.New("QDRANT_URL environment variable is not configured")
	}
	apiKey := os.Getenv("QDRANT_API_KEY")
	if apiKey == "" {
		return nil, errors.New("QDRANT_API_KEY environment variable is not configured")
	}

	timeout := time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second
	return &Client{
		cfg: cfg,
		qdrant: api.NewClient(
			api.WithBaseURL(url),
			api.WithTimeout(timeout),
			api.WithHeader("api-key", apiKey),
			api.WithLogging(logger.IsDebugEnabled()),
		),
		embeddings: api.NewClient(
			api.WithBaseURL(os.Getenv("OPENAI_BASE_URL")),
			api.WithTimeout(timeout),
			api.WithHeader("api-key", os.Getenv("OPENAI_API_KEY")),
		),
		collection: cfg.Qdrant.Collection,
		deployment: getEnvOrDefault("AZURE_OPENAI_EMBEDDING_DEPLOYMENT", "embedding-stocks"),
		apiVersion: cfg.LLM.APIVersion,
	}, nil
}

type searchRequest struct {
	Vector         []float64 `json:"vector"`
	Limit          int       `json:"limit"`
	ScoreThreshold float64   `json:"score_threshold,omitempty"`
	WithPayload    bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		ID      any     `json:"id"`
		Score   float64 `json:"score"`
		Payload struct {
			Title          string `json:"title"`
			Source         string `json:"source"`
			Author         string `json:"author"`
			PublishDatePst string `json:"publishDatePst"`
			Content        string `json:"content"`
		} `json:"payload"`
	} `json:"result"`
}

// Search embeds the query and returns the ranked similar articles.
func (c *Client) Search(ctx context.Context, query string, limit int, scoreThreshold float64) ([]types.ArticleRecord, error) {
	ctx, span := trace.StartSpan(ctx, "qdrant-search")
	defer span.End()

	vector, err := c.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed search query: %w", err)
	}

	if limit <= 0 {
		limit = c.cfg.Qdrant.SearchLimit
	}

	var resp searchResponse
	url := fmt.Sprintf("/collections/%s/points/search", c.collection)
	err = c.qdrant.PostJSON(ctx, url, searchRequest{
		Vector:         vector,
		Limit:          limit,
		ScoreThreshold: scoreThreshold,
		WithPayload:    true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	articles := make([]types.ArticleRecord, 0, len(resp.Result))
	for _, hit := range resp.Result {
		articles = append(articles, types.ArticleRecord{
			ID:          fmt.Sprintf("%v", hit.ID),
			Score:       hit.Score,
			Title:       hit.Payload.Title,
			Source:      hit.Payload.Source,
			Author:      hit.Payload.Author,
			PublishDate: hit.Payload.PublishDatePst,
			Content:     hit.Payload.Content,
		})
	}

	logger.Info(ctx, "Vector search completed", "query", query, "results", len(articles))
	return articles, nil
}

// CollectionStats returns the raw collection info from Qdrant, used by
// the health and stats endpoints.
func (c *Client) CollectionStats(ctx context.Context) (map[string]any, error) {
	resp, err := c.qdrant.GET(ctx, fmt.Sprintf("/collections/%s", c.collection))
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}

	var body struct {
		Result map[string]any `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to decode collection info: %w", err)
	}
	return body.Result, nil
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *Client) embedQuery(ctx context.Context, text string) ([]float64, error) {
	url := fmt.Sprintf("/openai/deployments/%s/embeddings?api-version=%s", c.deployment, c.apiVersion)

	var resp embeddingResponse
	err := c.embeddings.PostJSON(ctx, url, map[string]any{"input": text}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding in response")
	}
	return resp.Data[0].Embedding, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
