// Package analysis normalizes the raw model output attached to a completed
// request into the typed structure the detail views render. Parsing is a pure
// function of (status, is_success, raw payload); the same inputs always yield
// the same outcome.
package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const statusCompleted = "Completed"

// OrganizedProblem is the structured problem statement extracted by the model.
// Every field is optional; empty strings mean "not provided".
type OrganizedProblem struct {
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	InputFormat  string `json:"input_format,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
	InputSample  string `json:"input_sample,omitempty"`
	OutputSample string `json:"output_sample,omitempty"`
	Notes        string `json:"notes,omitempty"`
	TimeLimit    string `json:"time_limit,omitempty"`
	MemoryLimit  string `json:"memory_limit,omitempty"`
}

// ModificationEntry is one before/after explanation produced by the model.
// Display order equals payload order.
type ModificationEntry struct {
	OriginalSnippet string `json:"original_snippet,omitempty"`
	ModifiedSnippet string `json:"modified_snippet,omitempty"`
	Explanation     string `json:"explanation,omitempty"`
}

// ParsedContent is the normalized decoding of a raw analysis payload. It is
// derived state: never persisted, recomputed whenever the source changes.
type ParsedContent struct {
	OrganizedProblem     *OrganizedProblem   `json:"organized_problem,omitempty"`
	ModifiedCode         string              `json:"modified_code,omitempty"`
	ModificationAnalysis []ModificationEntry `json:"modification_analysis,omitempty"`
	OriginalCode         string              `json:"original_code,omitempty"`
}

// State discriminates the parsing outcome.
type State int

const (
	// StateNotApplicable means the request is not Completed, so no parse was
	// attempted. Callers render a status placeholder instead.
	StateNotApplicable State = iota
	StateParsed
	StateFailed
)

// Outcome is the tagged result of a parse attempt. Exactly one of Content or
// Reason is meaningful, selected by State.
type Outcome struct {
	State   State
	Content *ParsedContent
	Reason  string
}

// Parsed reports whether the outcome carries usable content.
func (o Outcome) Parsed() bool { return o.State == StateParsed }

// Failed reports whether the outcome is a recorded failure.
func (o Outcome) Failed() bool { return o.State == StateFailed }

// Parse turns a raw analysis payload into an Outcome. raw may be a JSON
// object, a JSON string containing an encoded object, or empty. errorMessage
// is the request's stored failure reason, used when is_success is false.
func Parse(status string, isSuccess bool, raw json.RawMessage, errorMessage string) Outcome {
	if status != statusCompleted {
		return Outcome{State: StateNotApplicable}
	}
	if !isSuccess {
		reason := errorMessage
		if reason == "" {
			reason = "analysis completed but reported failure"
		}
		return Outcome{State: StateFailed, Reason: reason}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`)) {
		return Outcome{State: StateFailed, Reason: "analysis response is empty"}
	}

	doc := raw
	if raw[0] == '"' {
		// The backend sometimes stores the payload as a JSON-encoded string.
		// Unwrap once; the embedded document is decoded below, never twice.
		var embedded string
		if err := json.Unmarshal(raw, &embedded); err != nil {
			return Outcome{State: StateFailed, Reason: fmt.Sprintf("failed to decode analysis response: %v", err)}
		}
		if embedded == "" {
			return Outcome{State: StateFailed, Reason: "analysis response is empty"}
		}
		doc = json.RawMessage(embedded)
	}

	var probe any
	if err := json.Unmarshal(doc, &probe); err != nil {
		return Outcome{State: StateFailed, Reason: fmt.Sprintf("failed to decode analysis response: %v", err)}
	}
	if _, ok := probe.(map[string]any); !ok {
		return Outcome{State: StateFailed, Reason: "analysis response is not a JSON object"}
	}

	var content ParsedContent
	if err := json.Unmarshal(doc, &content); err != nil {
		return Outcome{State: StateFailed, Reason: fmt.Sprintf("failed to decode analysis response: %v", err)}
	}
	if content.OrganizedProblem != nil && *content.OrganizedProblem == (OrganizedProblem{}) {
		content.OrganizedProblem = nil
	}
	return Outcome{State: StateParsed, Content: &content}
}

// OriginalText resolves the text diffed against the modified code: parsed
// original_code first, then the user's prompt, then empty.
func (c *ParsedContent) OriginalText(userPrompt string) string {
	if c != nil && c.OriginalCode != "" {
		return c.OriginalCode
	}
	return userPrompt
}
