// Package llm defines the provider error taxonomy shared by all
// Completer implementations.
package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies a provider failure for alerting and status mapping.
type Category string

const (
	CategoryAuth               Category = "auth"
	CategoryConfig             Category = "config"
	CategoryRateLimit          Category = "rate_limit"
	CategoryTimeout            Category = "timeout"
	CategoryServiceUnavailable Category = "service_unavailable"
	CategoryInternal           Category = "internal"
)

// Error is a categorized LLM provider failure.
type Error struct {
	Category Category
	Service  string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Service, e.Message, e.Category, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Service, e.Message, e.Category)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a categorized error, inferring the category from the
// wrapped error's text when one is present.
func NewError(service, message string, err error) *Error {
	src := message
	if err != nil {
		src = err.Error()
	}
	return &Error{
		Category: Categorize(src),
		Service:  service,
		Message:  message,
		Err:      err,
	}
}

// Categorize maps status-code-like substrings in an error string onto a
// failure category. Unrecognized errors are internal.
func Categorize(errStr string) Category {
	s := strings.ToLower(errStr)
	switch {
	case containsAny(s, "401", "unauthorized", "invalid key", "api key", "invalid_api_key"):
		return CategoryAuth
	case containsAny(s, "404", "not found", "deployment", "resource not found"):
		return CategoryConfig
	case containsAny(s, "429", "rate limit", "quota", "too many requests"):
		return CategoryRateLimit
	case containsAny(s, "timeout", "timed out", "deadline exceeded"):
		return CategoryTimeout
	case containsAny(s, "connection", "network", "unreachable", "connect"):
		return CategoryServiceUnavailable
	default:
		return CategoryInternal
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// CategoryOf extracts the failure category from an error chain,
// defaulting to internal for non-provider errors.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}
