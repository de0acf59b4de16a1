package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"newsrag/internal/interfaces"
	"newsrag/internal/llm/anthropic"
	"newsrag/internal/llm/llmobs"
	"newsrag/internal/llm/noop"
	"newsrag/internal/llm/openai"
	"newsrag/internal/logger"
	"newsrag/internal/monitor"
	"newsrag/internal/qdrant"
	"newsrag/internal/store"
	"newsrag/internal/summary"
	"newsrag/internal/summary/summaryobs"
	"newsrag/internal/trace"
)

// initializeSystem initializes environment, logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// initializeCompleter initializes and returns the LLM completer with observability
func initializeCompleter(ctx context.Context, cfg *store.Config) interfaces.Completer {
	var completer interfaces.Completer

	switch cfg.LLM.Provider {
	case "OPENAI":
		completer = openai.NewCompleter(cfg)
	case "CLAUDE":
		completer = anthropic.NewCompleter(cfg)
	default:
		completer = noop.NewCompleter()
		logger.Warn(ctx, "No LLM provider configured - using canned completions")
	}

	// Wrap with observability middleware
	return llmobs.Wrap(completer)
}

// initializeSearcher initializes the vector-store search client. A nil
// searcher is tolerated so the summary pipeline can still serve canned
// responses when retrieval is unconfigured.
func initializeSearcher(ctx context.Context, cfg *store.Config) interfaces.Searcher {
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		logger.Warn(ctx, "Vector search unavailable", "error", err)
		return nil
	}
	return client
}

// initializeSummarizer initializes the summary service with observability
func initializeSummarizer(cfg *store.Config, completer interfaces.Completer, mon interfaces.Monitor) interfaces.Summarizer {
	svc := summary.NewService(cfg, completer, mon)

	// Wrap with observability middleware
	return summaryobs.Wrap(svc)
}

// initializeMonitor picks the telemetry sink based on tracing state
func initializeMonitor() interfaces.Monitor {
	if trace.Enabled() {
		return monitor.NewOtelMonitor()
	}
	return monitor.NewNoop()
}
