package adminauth

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores admin users in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu         sync.RWMutex
	nextID     int64
	byUsername map[string]AdminUser
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byUsername: make(map[string]AdminUser)}
}

// Create stores the user and assigns its ID.
func (r *MemoryRepo) Create(ctx context.Context, user AdminUser) (AdminUser, error) {
	if err := ctx.Err(); err != nil {
		return AdminUser{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()
	r.byUsername[user.Username] = user
	return user, nil
}

// GetByUsername returns a user by username.
func (r *MemoryRepo) GetByUsername(ctx context.Context, username string) (AdminUser, error) {
	if err := ctx.Err(); err != nil {
		return AdminUser{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byUsername[username]
	if !ok {
		return AdminUser{}, ErrNotFound
	}
	return user, nil
}

// Update replaces the stored user matched by ID. The username key moves
// with the user when it changes.
func (r *MemoryRepo) Update(ctx context.Context, user AdminUser) (AdminUser, error) {
	if err := ctx.Err(); err != nil {
		return AdminUser{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, existing := range r.byUsername {
		if existing.ID == user.ID {
			user.CreatedAt = existing.CreatedAt
			delete(r.byUsername, name)
			r.byUsername[user.Username] = user
			return user, nil
		}
	}
	return AdminUser{}, ErrNotFound
}

// Count returns the number of admin users.
func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUsername), nil
}
