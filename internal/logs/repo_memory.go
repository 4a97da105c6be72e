package logs

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores log entries in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	nextID  int64
	entries []Entry
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Insert stores the entry, assigning its ID and timestamp if unset.
func (r *MemoryRepo) Insert(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	r.entries = append(r.entries, entry)
	return nil
}

// List returns entries newest first with the pre-paging total.
func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Entry, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	r.mu.RLock()
	matched := make([]Entry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if f.Level != "" && e.Level != f.Level {
			continue
		}
		if f.Source != "" && e.Source != f.Source {
			continue
		}
		matched = append(matched, e)
	}
	r.mu.RUnlock()

	total := len(matched)
	if f.Offset >= total {
		return []Entry{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return matched[f.Offset:end], total, nil
}

// PruneKeeping drops the oldest entries beyond keep.
func (r *MemoryRepo) PruneKeeping(ctx context.Context, keep int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	excess := len(r.entries) - keep
	if excess <= 0 {
		return 0, nil
	}
	r.entries = append([]Entry(nil), r.entries[excess:]...)
	return int64(excess), nil
}

// Clear deletes every stored entry.
func (r *MemoryRepo) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	return nil
}
