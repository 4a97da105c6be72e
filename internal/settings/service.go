package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Snapshot is the typed view of the settings a processing run needs. It is
// loaded fresh per run so edits apply to the next job without a restart.
type Snapshot struct {
	APIKey        string
	BaseURL       string
	Model         string
	SystemPrompt  string
	MaxConcurrent int
	Timeout       time.Duration
}

// Service contains business logic for settings.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Load reads every setting and applies defaults for absent or malformed
// values.
func (s *Service) Load(ctx context.Context) (Snapshot, error) {
	values, err := s.Repo.GetAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		APIKey:        values[KeyAPIKey],
		BaseURL:       values[KeyBaseURL],
		Model:         values[KeyModel],
		SystemPrompt:  values[KeySystemPrompt],
		MaxConcurrent: DefaultMaxConcurrent,
		Timeout:       DefaultTimeoutSeconds * time.Second,
	}
	if snap.BaseURL == "" {
		snap.BaseURL = DefaultBaseURL
	}
	if n, err := strconv.Atoi(values[KeyMaxConcurrent]); err == nil && n > 0 {
		snap.MaxConcurrent = n
	}
	if n, err := strconv.Atoi(values[KeyTimeoutSeconds]); err == nil && n > 0 {
		snap.Timeout = time.Duration(n) * time.Second
	}
	return snap, nil
}

// Update validates and persists the given values.
func (s *Service) Update(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return errors.New("no settings provided")
	}
	for k := range values {
		if !KnownKey(k) {
			return fmt.Errorf("unknown setting %q", k)
		}
	}
	if err := Validate(values); err != nil {
		return err
	}
	return s.Repo.SetMany(ctx, values)
}

// Masked returns every setting sorted by key, with secrets replaced by a
// placeholder suitable for display.
func (s *Service) Masked(ctx context.Context) ([]Setting, error) {
	values, err := s.Repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Setting, 0, len(values))
	for k, v := range values {
		if SecretKey(k) && v != "" {
			v = maskSecret(v)
		}
		out = append(out, Setting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Validate checks each provided value against the rules its key demands.
// Keys absent from the map are not checked.
func Validate(values map[string]string) error {
	if v, ok := values[KeyAPIKey]; ok {
		if !strings.HasPrefix(v, "sk-") {
			return errors.New("openai_api_key must start with \"sk-\"")
		}
	}
	if v, ok := values[KeyBaseURL]; ok {
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return errors.New("openai_base_url must start with http:// or https://")
		}
	}
	if v, ok := values[KeyModel]; ok {
		if strings.TrimSpace(v) == "" {
			return errors.New("openai_model must not be empty")
		}
	}
	if v, ok := values[KeySystemPrompt]; ok {
		if strings.TrimSpace(v) == "" {
			return errors.New("system_prompt must not be empty")
		}
	}
	for _, key := range []string{KeyMaxConcurrent, KeyTimeoutSeconds} {
		if v, ok := values[key]; ok {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return fmt.Errorf("%s must be a positive integer", key)
			}
		}
	}
	return nil
}

func maskSecret(v string) string {
	if len(v) <= 7 {
		return "***"
	}
	return v[:5] + "***" + v[len(v)-2:]
}
