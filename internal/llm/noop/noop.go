package noop

import (
	"context"

	"newsrag/internal/interfaces"
	"newsrag/internal/logger"
)

// Completer is a fallback provider used when no LLM is configured. It
// returns a fixed analysis in the expected four-section layout so the
// rest of the pipeline behaves normally in development.
type Completer struct{}

var _ interfaces.Completer = (*Completer)(nil)

func NewCompleter() *Completer {
	return &Completer{}
}

const cannedCompletion = `**Executive Summary**
No LLM provider is configured, so this is a placeholder analysis. Market conditions are **Neutral** pending a configured provider.

**Currency Pair Rankings**
**EUR/USD** (Rank: 5/10)
   * Fundamental Outlook: 50%
   * Sentiment Outlook: 50%
   * Rationale: Placeholder ranking produced by the noop provider.

**Risk Assessment:**
   * Primary Risk: No live analysis available.
   * Correlation Risk: No live analysis available.
   * Volatility Potential: No live analysis available.

**Trade Management Guidelines:**
Configure an LLM provider to receive trade management guidance.`

func (c *Completer) Complete(ctx context.Context, req interfaces.CompletionRequest) (string, error) {
	logger.Debug(ctx, "Noop completer called - returning canned analysis")
	return cannedCompletion, nil
}
