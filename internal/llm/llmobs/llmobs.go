package llmobs

import (
	"context"

	"newsrag/internal/interfaces"
	"newsrag/internal/logger"
	"newsrag/internal/trace"
)

// observableCompleter wraps a Completer with observability (logging & tracing)
type observableCompleter struct {
	completer interfaces.Completer
}

// Compile-time interface check
var _ interfaces.Completer = (*observableCompleter)(nil)

// Wrap wraps a completer with observability middleware
func Wrap(completer interfaces.Completer) interfaces.Completer {
	return &observableCompleter{completer: completer}
}

func (oc *observableCompleter) Complete(ctx context.Context, req interfaces.CompletionRequest) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Complete")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting completion",
		"prompt_chars", len(req.UserPrompt),
		"max_tokens", req.MaxTokens,
	)

	completion, err := oc.completer.Complete(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get completion", err,
			"prompt_chars", len(req.UserPrompt),
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Completion received",
		"completion_chars", len(completion),
	)

	return completion, nil
}
