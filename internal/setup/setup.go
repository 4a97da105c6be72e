// Package setup implements the first-run wizard: a one-shot endpoint that
// creates the admin account and seeds the model settings. Once an admin
// exists the endpoint refuses further attempts.
package setup

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"analysis-backend/internal/adminauth"
	"analysis-backend/internal/settings"
	"analysis-backend/internal/shared/telemetry"
)

var ErrAlreadyInitialized = errors.New("application is already initialized")

// Payload is the wizard submission.
type Payload struct {
	Username           string `json:"username"`
	Password           string `json:"password"`
	OpenAIAPIKey       string `json:"openai_api_key"`
	OpenAIBaseURL      string `json:"openai_base_url"`
	OpenAIModel        string `json:"openai_model"`
	SystemPrompt       string `json:"system_prompt"`
	MaxConcurrentTasks int    `json:"max_concurrent_analysis_tasks"`
	RequestTimeoutSecs int    `json:"request_timeout_seconds"`
}

// Service contains the wizard logic.
type Service struct {
	Auth     *adminauth.Service
	Settings *settings.Service
}

// NewService constructs a Service.
func NewService(auth *adminauth.Service, set *settings.Service) *Service {
	return &Service{Auth: auth, Settings: set}
}

// Initialized reports whether an admin account already exists.
func (s *Service) Initialized(ctx context.Context) (bool, error) {
	n, err := s.Auth.Repo.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Initialize validates the payload, creates the admin account and stores
// the initial settings.
func (s *Service) Initialize(ctx context.Context, p Payload) error {
	done, err := s.Initialized(ctx)
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}

	if err := validatePayload(p); err != nil {
		return err
	}

	values := map[string]string{
		settings.KeyAPIKey:       p.OpenAIAPIKey,
		settings.KeyBaseURL:      p.OpenAIBaseURL,
		settings.KeyModel:        p.OpenAIModel,
		settings.KeySystemPrompt: p.SystemPrompt,
	}
	if p.MaxConcurrentTasks > 0 {
		values[settings.KeyMaxConcurrent] = strconv.Itoa(p.MaxConcurrentTasks)
	}
	if p.RequestTimeoutSecs > 0 {
		values[settings.KeyTimeoutSeconds] = strconv.Itoa(p.RequestTimeoutSecs)
	}
	if err := settings.Validate(values); err != nil {
		return err
	}

	// The admin account is the initialization marker, so it is created
	// before the settings are written. If the account cannot be created
	// nothing is persisted and the wizard stays open for another attempt.
	username := p.Username
	if username == "" {
		username = "admin"
	}
	if _, err := s.Auth.CreateAdmin(ctx, username, p.Password); err != nil {
		return err
	}

	if err := s.Settings.Update(ctx, values); err != nil {
		return err
	}

	telemetry.Info("setup.initialized", map[string]any{"username": username})
	return nil
}

func validatePayload(p Payload) error {
	if len(p.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if strings.TrimSpace(p.OpenAIAPIKey) == "" {
		return errors.New("openai_api_key is required")
	}
	if strings.TrimSpace(p.OpenAIBaseURL) == "" {
		return errors.New("openai_base_url is required")
	}
	if strings.TrimSpace(p.OpenAIModel) == "" {
		return errors.New("openai_model is required")
	}
	if strings.TrimSpace(p.SystemPrompt) == "" {
		return errors.New("system_prompt is required")
	}
	if p.MaxConcurrentTasks < 0 {
		return errors.New("max_concurrent_analysis_tasks must be a positive integer")
	}
	if p.RequestTimeoutSecs < 0 {
		return errors.New("request_timeout_seconds must be a positive integer")
	}
	return nil
}
