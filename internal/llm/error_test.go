package llm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		input string
		want  Category
	}{
		{"HTTP 401 Unauthorized", CategoryAuth},
		{"invalid api key provided", CategoryAuth},
		{"status 404: deployment not found", CategoryConfig},
		{"429 Too Many Requests", CategoryRateLimit},
		{"rate limit exceeded, retry later", CategoryRateLimit},
		{"request timed out after 120s", CategoryTimeout},
		{"context deadline exceeded", CategoryTimeout},
		{"connection refused", CategoryServiceUnavailable},
		{"network unreachable", CategoryServiceUnavailable},
		{"something else entirely", CategoryInternal},
	}
	for _, c := range cases {
		if got := Categorize(c.input); got != c.want {
			t.Errorf("Categorize(%q) = %s, want %s", c.input, got, c.want)
		}
	}
}

func TestNewErrorInfersCategory(t *testing.T) {
	err := NewError("azure_openai", "completion failed", errors.New("429 rate limit"))
	if err.Category != CategoryRateLimit {
		t.Errorf("Expected rate_limit category, got %s", err.Category)
	}
	if err.Service != "azure_openai" {
		t.Errorf("Unexpected service: %s", err.Service)
	}

	// Without a wrapped error the message itself is categorized.
	err = NewError("anthropic", "request timed out", nil)
	if err.Category != CategoryTimeout {
		t.Errorf("Expected timeout category, got %s", err.Category)
	}
}

func TestCategoryOfUnwrapsChain(t *testing.T) {
	inner := NewError("anthropic", "completion failed", errors.New("401 unauthorized"))
	wrapped := fmt.Errorf("summary generation failed: %w", inner)

	if got := CategoryOf(wrapped); got != CategoryAuth {
		t.Errorf("Expected auth through the chain, got %s", got)
	}
	if got := CategoryOf(errors.New("plain")); got != CategoryInternal {
		t.Errorf("Expected internal for plain errors, got %s", got)
	}
}

func TestErrorStringAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError("svc", "it broke", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected Unwrap to expose the cause")
	}
	msg := err.Error()
	if !strings.Contains(msg, "svc") || !strings.Contains(msg, "it broke") {
		t.Errorf("Unexpected error string: %q", msg)
	}
}
