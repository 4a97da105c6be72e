package logs

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"analysis-backend/internal/shared/telemetry"
)

// DefaultRetainedRows is how many log rows the cleanup task keeps.
const DefaultRetainedRows = 100_000

// DefaultCleanupInterval is how often the cleanup task runs.
const DefaultCleanupInterval = time.Hour

// Service contains business logic for the log viewer.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// List returns a page of log entries.
func (s *Service) List(ctx context.Context, f Filter) ([]Entry, int, error) {
	return s.Repo.List(ctx, f)
}

// Clear deletes every stored log entry.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.Repo.Clear(ctx); err != nil {
		return err
	}
	telemetry.Info("logs.cleared", nil)
	return nil
}

// StartCleanup prunes old rows on a fixed interval until ctx is done.
func (s *Service) StartCleanup(ctx context.Context, interval time.Duration, keep int) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if keep <= 0 {
		keep = DefaultRetainedRows
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deleted, err := s.Repo.PruneKeeping(ctx, keep)
			if err != nil {
				telemetry.Error("logs.cleanup_failed", map[string]any{"error": err.Error()})
				continue
			}
			if deleted > 0 {
				telemetry.Info("logs.cleanup", map[string]any{"deleted": deleted, "kept": keep})
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sink adapts the repo to the telemetry sink so every log line the process
// emits is also queryable from the dashboard.
type Sink struct {
	Repo Repo
}

// Record persists one log line. Failures are swallowed: the sink must never
// take the logger down with it.
func (s Sink) Record(level, msg string, fields map[string]any) {
	entry := Entry{
		Level:   strings.ToUpper(level),
		Message: msg,
		Source:  "backend",
	}
	if len(fields) > 0 {
		if data, err := json.Marshal(fields); err == nil {
			entry.Context = data
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.Repo.Insert(ctx, entry)
}
