package requests

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores requests in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Request
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[int64]Request)}
}

// Create stores the request and assigns its ID and timestamps.
func (r *MemoryRepo) Create(ctx context.Context, req Request) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now().UTC()
	req.ID = r.nextID
	req.CreatedAt = now
	req.UpdatedAt = now
	r.byID[req.ID] = req
	return req, nil
}

// GetByID returns a request by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.byID[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

// List returns requests newest first, optionally filtered by status,
// with the total count before paging.
func (r *MemoryRepo) List(ctx context.Context, status string, limit, offset int) ([]Request, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	all := make([]Request, 0, len(r.byID))
	for _, req := range r.byID {
		if status != "" && req.Status != status {
			continue
		}
		all = append(all, req)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []Request{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// UpdateStatus sets the status and error message of an existing request.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, id int64, status string, errorMessage *string) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	req.Status = status
	req.ErrorMessage = errorMessage
	req.UpdatedAt = time.Now().UTC()
	r.byID[id] = req
	return req, nil
}

// SetOutcome records the raw model response and final status in one step.
func (r *MemoryRepo) SetOutcome(ctx context.Context, id int64, raw json.RawMessage, isSuccess bool, status string, errorMessage *string) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	req.GPTRawResponse = raw
	req.IsSuccess = isSuccess
	req.Status = status
	req.ErrorMessage = errorMessage
	req.UpdatedAt = time.Now().UTC()
	r.byID[id] = req
	return req, nil
}

// Delete removes the request.
func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
