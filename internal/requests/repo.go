package requests

import (
	"context"
	"encoding/json"
)

// Repo defines persistence operations for analysis requests.
type Repo interface {
	Create(ctx context.Context, req Request) (Request, error)
	GetByID(ctx context.Context, id int64) (Request, error)
	List(ctx context.Context, status string, limit, offset int) ([]Request, int, error)
	UpdateStatus(ctx context.Context, id int64, status string, errorMessage *string) (Request, error)
	SetOutcome(ctx context.Context, id int64, raw json.RawMessage, isSuccess bool, status string, errorMessage *string) (Request, error)
	Delete(ctx context.Context, id int64) error
}
