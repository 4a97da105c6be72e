package requests

import (
	"encoding/json"
	"time"
)

// Submission is the create-request payload. Images arrive as base64 data
// URLs, the way the browser reads them from a file input or paste event.
type Submission struct {
	UserPrompt   string   `json:"user_prompt"`
	ImagesBase64 []string `json:"images_base64"`
}

// Summary is the list-view shape of a request. Image payloads are omitted;
// the list only needs the count.
type Summary struct {
	ID           int64     `json:"id"`
	UserPrompt   string    `json:"user_prompt"`
	Status       string    `json:"status"`
	IsSuccess    bool      `json:"is_success"`
	ErrorMessage *string   `json:"error_message"`
	ImageCount   int       `json:"image_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Detail is the full request shape, with stored images re-encoded as data
// URLs for the browser.
type Detail struct {
	ID             int64           `json:"id"`
	UserPrompt     string          `json:"user_prompt"`
	ImagesBase64   []string        `json:"images_base64"`
	Status         string          `json:"status"`
	ErrorMessage   *string         `json:"error_message"`
	GPTRawResponse json.RawMessage `json:"gpt_raw_response"`
	IsSuccess      bool            `json:"is_success"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ListResponse wraps a page of summaries with the unfiltered-page total.
type ListResponse struct {
	Requests []Summary `json:"requests"`
	Total    int       `json:"total"`
}

func toSummary(req Request) Summary {
	return Summary{
		ID:           req.ID,
		UserPrompt:   req.UserPrompt,
		Status:       req.Status,
		IsSuccess:    req.IsSuccess,
		ErrorMessage: req.ErrorMessage,
		ImageCount:   len(req.ImageReferences),
		CreatedAt:    req.CreatedAt,
		UpdatedAt:    req.UpdatedAt,
	}
}

func toDetail(req Request, images []string) Detail {
	if images == nil {
		images = []string{}
	}
	return Detail{
		ID:             req.ID,
		UserPrompt:     req.UserPrompt,
		ImagesBase64:   images,
		Status:         req.Status,
		ErrorMessage:   req.ErrorMessage,
		GPTRawResponse: req.GPTRawResponse,
		IsSuccess:      req.IsSuccess,
		CreatedAt:      req.CreatedAt,
		UpdatedAt:      req.UpdatedAt,
	}
}
