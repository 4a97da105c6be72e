package logs

import "context"

// Filter narrows a log listing.
type Filter struct {
	Level  string
	Source string
	Limit  int
	Offset int
}

// Repo defines persistence operations for log entries.
type Repo interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, f Filter) ([]Entry, int, error)
	// PruneKeeping deletes the oldest rows so at most keep remain, returning
	// the number deleted.
	PruneKeeping(ctx context.Context, keep int) (int64, error)
	// Clear deletes every stored entry.
	Clear(ctx context.Context) error
}
