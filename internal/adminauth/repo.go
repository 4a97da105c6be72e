package adminauth

import "context"

// Repo defines persistence operations for admin users.
type Repo interface {
	Create(ctx context.Context, user AdminUser) (AdminUser, error)
	GetByUsername(ctx context.Context, username string) (AdminUser, error)
	Update(ctx context.Context, user AdminUser) (AdminUser, error)
	Count(ctx context.Context) (int, error)
}
