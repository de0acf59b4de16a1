package anthropic

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"newsrag/internal/interfaces"
	"newsrag/internal/llm"
	"newsrag/internal/store"
	"newsrag/internal/trace"
)

// Completer calls the Anthropic messages API.
type Completer struct {
	cfg    *store.Config
	client *anthropic.Client
}

var _ interfaces.Completer = (*Completer)(nil)

func NewCompleter(cfg *store.Config) *Completer {
	client := anthropic.NewClient(option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")))
	return &Completer{cfg: cfg, client: &client}
}

func (c *Completer) Complete(ctx context.Context, req interfaces.CompletionRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "anthropic-api-call")
	defer span.End()

	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return "", llm.NewError("anthropic", "ANTHROPIC_API_KEY missing", errors.New("invalid key"))
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.LLM.TimeoutSecs)*time.Second)
	defer cancel()

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.LLM.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", llm.NewError("anthropic", "completion timed out", err)
		}
		return "", llm.NewError("anthropic", "completion failed", err)
	}
	if len(resp.Content) == 0 {
		return "", llm.NewError("anthropic", "no content in response", nil)
	}

	return strings.TrimSpace(resp.Content[0].Text), nil
}
