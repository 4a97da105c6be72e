// Package processor drains the submission queue and runs each request
// through the configured model. Worker count comes from the stored
// max_concurrent_analysis_tasks setting; model settings are re-read for
// every job so dashboard edits apply without a restart.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"analysis-backend/internal/llm"
	"analysis-backend/internal/llm/openai"
	"analysis-backend/internal/queue"
	"analysis-backend/internal/requests"
	"analysis-backend/internal/settings"
	"analysis-backend/internal/shared/metrics"
	"analysis-backend/internal/shared/storage/object"
	"analysis-backend/internal/shared/telemetry"
)

// Pool consumes queued request IDs and processes them.
type Pool struct {
	Queue    *queue.Memory
	Repo     requests.Repo
	Store    object.ObjectStore
	Settings *settings.Service
	Events   requests.Events

	// NewClient builds the model client for one run. Defaults to the
	// OpenAI-compatible client; tests substitute a fake.
	NewClient func(settings.Snapshot) (llm.Client, error)
}

// NewPool constructs a Pool.
func NewPool(q *queue.Memory, repo requests.Repo, store object.ObjectStore, set *settings.Service, events requests.Events) *Pool {
	if events == nil {
		events = requests.NopEvents{}
	}
	return &Pool{
		Queue:    q,
		Repo:     repo,
		Store:    store,
		Settings: set,
		Events:   events,
		NewClient: func(snap settings.Snapshot) (llm.Client, error) {
			return openai.NewClient(openai.Config{
				APIKey:  snap.APIKey,
				BaseURL: snap.BaseURL,
				Model:   snap.Model,
				Timeout: snap.Timeout,
			})
		},
	}
}

// Run starts the worker goroutines and blocks until ctx is done or the
// queue is closed and drained.
func (p *Pool) Run(ctx context.Context) {
	snap, err := p.Settings.Load(ctx)
	if err != nil {
		telemetry.Error("processor.settings_load_failed", map[string]any{"error": err.Error()})
		snap = settings.Snapshot{MaxConcurrent: settings.DefaultMaxConcurrent}
	}
	workers := snap.MaxConcurrent
	if workers <= 0 {
		workers = settings.DefaultMaxConcurrent
	}
	telemetry.Info("processor.started", map[string]any{"workers": workers})

	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			p.workerLoop(ctx)
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}
}

func (p *Pool) workerLoop(ctx context.Context) {
	for {
		msg, err := p.Queue.Dequeue(ctx)
		if err != nil {
			return
		}
		p.Process(ctx, msg.RequestID)
	}
}

// Process runs one request end to end. It never returns an error: failures
// are recorded on the request itself.
func (p *Pool) Process(ctx context.Context, requestID int64) {
	startedAt := time.Now().UTC()
	metrics.IncAnalysisStarted()
	defer func() {
		if r := recover(); r != nil {
			p.fail(requestID, fmt.Errorf("panic: %v", r), startedAt)
		}
	}()

	req, err := p.Repo.UpdateStatus(ctx, requestID, requests.StatusProcessing, nil)
	if err != nil {
		telemetry.Error("processor.set_processing_failed", map[string]any{"request_id": requestID, "error": err.Error()})
		metrics.IncAnalysisFailed()
		return
	}
	p.Events.RequestUpdated(req.ID, req.Status, req.UpdatedAt, nil)

	snap, err := p.Settings.Load(ctx)
	if err != nil {
		p.fail(requestID, fmt.Errorf("load settings: %w", err), startedAt)
		return
	}
	client, err := p.NewClient(snap)
	if err != nil {
		p.fail(requestID, fmt.Errorf("model client: %w", err), startedAt)
		return
	}
	client = newRetryingClient(client, requestID)

	images, err := p.loadImages(ctx, req.ImageReferences)
	if err != nil {
		p.fail(requestID, fmt.Errorf("load images: %w", err), startedAt)
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, snap.Timeout)
	raw, err := client.Analyze(runCtx, llm.AnalyzeInput{
		SystemPrompt:  snap.SystemPrompt,
		UserPrompt:    req.UserPrompt,
		ImageDataURLs: images,
	})
	cancel()
	if err != nil {
		p.fail(requestID, err, startedAt)
		return
	}

	stored, err := json.Marshal(buildRawPayload(raw))
	if err != nil {
		p.fail(requestID, fmt.Errorf("encode response: %w", err), startedAt)
		return
	}

	updated, err := p.Repo.SetOutcome(context.Background(), requestID, stored, true, requests.StatusCompleted, nil)
	if err != nil {
		telemetry.Error("processor.store_outcome_failed", map[string]any{"request_id": requestID, "error": err.Error()})
		metrics.IncAnalysisFailed()
		return
	}

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(time.Since(startedAt).Microseconds()) / 1000.0)
	p.Events.RequestUpdated(updated.ID, updated.Status, updated.UpdatedAt, nil)
	telemetry.Info("processor.completed", map[string]any{
		"request_id":  requestID,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	})
}

func (p *Pool) fail(requestID int64, cause error, startedAt time.Time) {
	msg := sanitizeError(cause)
	// The request must end up Failed even when the triggering context died.
	updated, err := p.Repo.SetOutcome(context.Background(), requestID, nil, false, requests.StatusFailed, &msg)
	if err != nil {
		telemetry.Error("processor.fail_update_failed", map[string]any{"request_id": requestID, "error": err.Error()})
	} else {
		p.Events.RequestUpdated(updated.ID, updated.Status, updated.UpdatedAt, updated.ErrorMessage)
	}
	metrics.IncAnalysisFailed()
	metrics.ObserveAnalysisDurationMs(float64(time.Since(startedAt).Microseconds()) / 1000.0)
	telemetry.Error("processor.failed", map[string]any{"request_id": requestID, "error": msg})
}

func (p *Pool) loadImages(ctx context.Context, refs []string) ([]string, error) {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		rc, err := p.Store.Open(ctx, ref)
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		urls = append(urls, requests.EncodeImageDataURL(data))
	}
	return urls, nil
}

// buildRawPayload preserves whatever the model produced: valid JSON is
// stored as-is, anything else is wrapped so it survives the JSONB column.
func buildRawPayload(raw json.RawMessage) any {
	if len(raw) == 0 {
		return map[string]any{"rawText": ""}
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		return parsed
	}
	return map[string]any{"rawText": string(raw)}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
