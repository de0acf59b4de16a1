package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"newsrag/internal/interfaces"
	"newsrag/internal/llm"
	"newsrag/internal/store"
	"newsrag/internal/trace"
)

// Completer calls an Azure OpenAI chat-completions deployment.
type Completer struct {
	cfg      *store.Config
	client   *http.Client
	endpoint string
}

var _ interfaces.Completer = (*Completer)(nil)

// NewCompleter builds a Completer from config. The endpoint is derived
// from OPENAI_BASE_URL and the configured deployment; a plain OpenAI
// endpoint can be forced with OPENAI_API_ENDPOINT.
func NewCompleter(cfg *store.Config) *Completer {
	endpoint := os.Getenv("OPENAI_API_ENDPOINT")
	if endpoint == "" {
		base := strings.TrimRight(os.Getenv("OPENAI_BASE_URL"), "/")
		endpoint = fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			base, cfg.LLM.Deployment, cfg.LLM.APIVersion)
	}
	return &Completer{
		cfg:      cfg,
		client:   &http.Client{},
		endpoint: endpoint,
	}
}

func (c *Completer) Complete(ctx context.Context, req interfaces.CompletionRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", llm.NewError("azure_openai", "OPENAI_API_KEY missing", errors.New("invalid key"))
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.LLM.TimeoutSecs)*time.Second)
	defer cancel()

	body := map[string]any{
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.UserPrompt},
		},
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
	}
	if c.cfg.LLM.Model != "" {
		body["model"] = c.cfg.LLM.Model
	}
	bb, _ := json.Marshal(body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bb))
	if err != nil {
		return "", llm.NewError("azure_openai", "failed to build request", err)
	}
	httpReq.Header.Set("api-key", apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", llm.NewError("azure_openai", "completion timed out", err)
		}
		return "", llm.NewError("azure_openai", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", llm.NewError("azure_openai", "completion failed",
			fmt.Errorf("openai http %d", resp.StatusCode))
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", llm.NewError("azure_openai", "invalid response body", err)
	}
	if len(r.Choices) == 0 {
		return "", llm.NewError("azure_openai", "no choices in response", nil)
	}

	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
