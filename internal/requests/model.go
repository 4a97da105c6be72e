// Package requests owns the analysis-request lifecycle: submission,
// persistence, regeneration, deletion and the detail view model.
package requests

import (
	"encoding/json"
	"time"
)

const (
	StatusQueued     = "Queued"
	StatusProcessing = "Processing"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
)

// Request is one submitted analysis job.
type Request struct {
	ID              int64           `json:"id"`
	UserPrompt      string          `json:"user_prompt"`
	ImageReferences []string        `json:"image_references,omitempty"`
	Status          string          `json:"status"`
	ErrorMessage    *string         `json:"error_message"`
	GPTRawResponse  json.RawMessage `json:"gpt_raw_response,omitempty"`
	IsSuccess       bool            `json:"is_success"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// KnownStatus reports whether s is one of the lifecycle statuses.
func KnownStatus(s string) bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the request has finished processing.
func (r Request) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
