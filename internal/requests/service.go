package requests

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"analysis-backend/internal/queue"
	"analysis-backend/internal/shared/storage/object"
	"analysis-backend/internal/shared/telemetry"
)

// Service contains business logic for analysis requests.
type Service struct {
	Repo   Repo
	Store  object.ObjectStore
	Queue  queue.Client
	Events Events
}

// NewService constructs a Service. A nil events sink is replaced with a no-op.
func NewService(repo Repo, store object.ObjectStore, q queue.Client, events Events) *Service {
	if events == nil {
		events = NopEvents{}
	}
	return &Service{Repo: repo, Store: store, Queue: q, Events: events}
}

// Create validates the submission, stores its images, persists the request
// as Queued and hands it to the processing queue.
func (s *Service) Create(ctx context.Context, sub Submission) (Request, error) {
	prompt := strings.TrimSpace(sub.UserPrompt)
	if prompt == "" && len(sub.ImagesBase64) == 0 {
		return Request{}, ErrEmptySubmission
	}
	if len(sub.ImagesBase64) > MaxImages {
		return Request{}, ErrTooManyImages
	}

	refs := make([]string, 0, len(sub.ImagesBase64))
	for i, raw := range sub.ImagesBase64 {
		img, err := parseImageDataURL(raw)
		if err != nil {
			return Request{}, fmt.Errorf("image %d: %w", i+1, err)
		}
		name := fmt.Sprintf("%s.%s", uuid.NewString(), imageExtension(img.mimeType))
		key, _, _, err := s.Store.Save(ctx, "requests", name, bytes.NewReader(img.data))
		if err != nil {
			return Request{}, fmt.Errorf("store image %d: %w", i+1, err)
		}
		refs = append(refs, key)
	}

	req, err := s.Repo.Create(ctx, Request{
		UserPrompt:      sub.UserPrompt,
		ImageReferences: refs,
		Status:          StatusQueued,
	})
	if err != nil {
		return Request{}, err
	}

	if err := s.enqueue(ctx, req.ID); err != nil {
		msg := "failed to queue request for processing"
		if failed, uerr := s.Repo.UpdateStatus(ctx, req.ID, StatusFailed, &msg); uerr == nil {
			req = failed
		}
		telemetry.Error("requests.enqueue_failed", map[string]any{"request_id": req.ID, "error": err.Error()})
	}

	s.Events.RequestCreated(toSummary(req))
	telemetry.Info("requests.created", map[string]any{"request_id": req.ID, "images": len(refs)})
	return req, nil
}

// Regenerate submits a fresh request with the same prompt and images. The
// original request is left untouched; regeneration of an in-flight request
// is rejected.
func (s *Service) Regenerate(ctx context.Context, id int64) (Request, error) {
	orig, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if orig.Status == StatusProcessing || orig.Status == StatusQueued {
		return Request{}, ErrRegenerateUnstable
	}

	req, err := s.Repo.Create(ctx, Request{
		UserPrompt:      orig.UserPrompt,
		ImageReferences: orig.ImageReferences,
		Status:          StatusQueued,
	})
	if err != nil {
		return Request{}, err
	}

	if err := s.enqueue(ctx, req.ID); err != nil {
		msg := "failed to queue request for processing"
		if failed, uerr := s.Repo.UpdateStatus(ctx, req.ID, StatusFailed, &msg); uerr == nil {
			req = failed
		}
		telemetry.Error("requests.enqueue_failed", map[string]any{"request_id": req.ID, "error": err.Error()})
	}

	s.Events.RequestCreated(toSummary(req))
	telemetry.Info("requests.regenerated", map[string]any{"source_id": id, "request_id": req.ID})
	return req, nil
}

// Get returns the full request with stored images re-encoded as data URLs.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	req, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	images, err := s.loadImages(ctx, req.ImageReferences)
	if err != nil {
		// A missing image file should not hide the request itself.
		telemetry.Warn("requests.image_load_failed", map[string]any{"request_id": id, "error": err.Error()})
	}
	return toDetail(req, images), nil
}

// List returns a page of request summaries, newest first.
func (s *Service) List(ctx context.Context, status string, limit, offset int) (ListResponse, error) {
	reqs, total, err := s.Repo.List(ctx, status, limit, offset)
	if err != nil {
		return ListResponse{}, err
	}
	summaries := make([]Summary, 0, len(reqs))
	for _, req := range reqs {
		summaries = append(summaries, toSummary(req))
	}
	return ListResponse{Requests: summaries, Total: total}, nil
}

// Delete removes the request and notifies the feed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.Events.RequestDeleted(id)
	telemetry.Info("requests.deleted", map[string]any{"request_id": id})
	return nil
}

// Batch action names accepted by BatchAction.
const (
	BatchActionDelete = "delete"
	BatchActionRetry  = "retry"
)

// BatchFailure records why one request in a batch could not be acted on.
type BatchFailure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// BatchResult reports the per-request outcome of a batch action.
type BatchResult struct {
	Success []int64        `json:"success"`
	Failed  []BatchFailure `json:"failed"`
}

// BatchAction applies a delete or retry to every listed request. Individual
// failures are collected rather than aborting the batch; only an unknown
// action is an error.
func (s *Service) BatchAction(ctx context.Context, action string, ids []int64) (BatchResult, error) {
	var apply func(context.Context, int64) error
	switch action {
	case BatchActionDelete:
		apply = s.Delete
	case BatchActionRetry:
		apply = s.retryFailed
	default:
		return BatchResult{}, ErrUnknownBatchAction
	}

	res := BatchResult{Success: []int64{}, Failed: []BatchFailure{}}
	for _, id := range ids {
		if err := apply(ctx, id); err != nil {
			res.Failed = append(res.Failed, BatchFailure{ID: id, Reason: err.Error()})
			continue
		}
		res.Success = append(res.Success, id)
	}
	telemetry.Info("requests.batch", map[string]any{
		"action":    action,
		"succeeded": len(res.Success),
		"failed":    len(res.Failed),
	})
	return res, nil
}

// retryFailed re-queues a failed request. Requests in any other state are
// rejected so in-flight or completed work is never re-run by accident.
func (s *Service) retryFailed(ctx context.Context, id int64) error {
	req, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Status != StatusFailed {
		return ErrNotRetryable
	}

	updated, err := s.Repo.UpdateStatus(ctx, id, StatusQueued, nil)
	if err != nil {
		return err
	}
	if err := s.enqueue(ctx, id); err != nil {
		msg := "failed to queue request for processing"
		if failed, uerr := s.Repo.UpdateStatus(ctx, id, StatusFailed, &msg); uerr == nil {
			updated = failed
		}
		telemetry.Error("requests.enqueue_failed", map[string]any{"request_id": id, "error": err.Error()})
		s.Events.RequestUpdated(updated.ID, updated.Status, updated.UpdatedAt, updated.ErrorMessage)
		return fmt.Errorf("failed to queue request for processing")
	}

	s.Events.RequestUpdated(updated.ID, updated.Status, updated.UpdatedAt, updated.ErrorMessage)
	telemetry.Info("requests.retried", map[string]any{"request_id": id})
	return nil
}

func (s *Service) enqueue(ctx context.Context, id int64) error {
	if s.Queue == nil {
		return fmt.Errorf("queue not configured")
	}
	return s.Queue.Enqueue(ctx, queue.NewMessage(id))
}

func (s *Service) loadImages(ctx context.Context, refs []string) ([]string, error) {
	images := make([]string, 0, len(refs))
	for _, ref := range refs {
		rc, err := s.Store.Open(ctx, ref)
		if err != nil {
			return images, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return images, err
		}
		images = append(images, EncodeImageDataURL(data))
	}
	return images, nil
}
