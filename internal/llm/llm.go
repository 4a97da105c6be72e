// Package llm abstracts the chat-completion provider used for code analysis.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client sends one analysis conversation to a provider and returns the raw
// model output. The output is not required to be valid JSON; callers decide
// how to store malformed payloads.
type Client interface {
	Analyze(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
}

// AnalyzeInput is one analysis conversation: the configured system prompt,
// the submitted text and any attached images as data URLs.
type AnalyzeInput struct {
	SystemPrompt  string
	UserPrompt    string
	ImageDataURLs []string
}

// ErrNotConfigured is returned when no provider credentials are stored yet.
var ErrNotConfigured = errors.New("llm provider not configured")
