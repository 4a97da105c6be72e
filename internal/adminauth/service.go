package adminauth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"analysis-backend/internal/shared/auth"
	"analysis-backend/internal/shared/telemetry"
)

// dummyHash is a valid cost-10 bcrypt digest of a throwaway string, used to
// equalize timing when the username does not exist.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Service contains business logic for admin authentication.
type Service struct {
	Repo Repo
	// BcryptCost overrides the hash cost; zero means bcrypt.DefaultCost.
	BcryptCost int
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// CreateAdmin hashes the password and stores a new active admin account.
func (s *Service) CreateAdmin(ctx context.Context, username, password string) (AdminUser, error) {
	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return AdminUser{}, err
	}
	return s.Repo.Create(ctx, AdminUser{
		Username:       username,
		HashedPassword: string(hash),
		IsActive:       true,
	})
}

// Authenticate checks the credentials and issues a session token.
func (s *Service) Authenticate(ctx context.Context, username, password string) (TokenResponse, error) {
	user, err := s.Repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn a comparison so missing and wrong-password logins take
			// similar time. The digest must be well-formed or the compare
			// bails out before doing any work.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return TokenResponse{}, ErrInvalidCredentials
		}
		return TokenResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		telemetry.Warn("adminauth.login_failed", map[string]any{"username": username})
		return TokenResponse{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return TokenResponse{}, ErrInactiveUser
	}

	token, err := auth.SignJWT(auth.Claims{Sub: user.Username})
	if err != nil {
		return TokenResponse{}, err
	}
	telemetry.Info("adminauth.login", map[string]any{"username": username})
	return TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// UpdateProfile changes the username and/or password of the given admin.
// Blank fields are left untouched; a username already held by another
// account is rejected.
func (s *Service) UpdateProfile(ctx context.Context, username, newUsername, newPassword string) (AdminUser, error) {
	user, err := s.Repo.GetByUsername(ctx, username)
	if err != nil {
		return AdminUser{}, err
	}

	changed := false
	newUsername = strings.TrimSpace(newUsername)
	if newUsername != "" && newUsername != user.Username {
		if _, err := s.Repo.GetByUsername(ctx, newUsername); err == nil {
			return AdminUser{}, ErrUsernameTaken
		} else if !errors.Is(err, ErrNotFound) {
			return AdminUser{}, err
		}
		user.Username = newUsername
		changed = true
	}
	if newPassword != "" {
		if len(newPassword) < 8 {
			return AdminUser{}, ErrWeakPassword
		}
		cost := s.BcryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), cost)
		if err != nil {
			return AdminUser{}, err
		}
		user.HashedPassword = string(hash)
		changed = true
	}
	if !changed {
		return user, nil
	}

	updated, err := s.Repo.Update(ctx, user)
	if err != nil {
		return AdminUser{}, err
	}
	telemetry.Info("adminauth.profile_updated", map[string]any{"username": updated.Username})
	return updated, nil
}

// Verify resolves a bearer token to its admin user.
func (s *Service) Verify(ctx context.Context, token string) (AdminUser, error) {
	claims, err := auth.VerifyJWT(token)
	if err != nil {
		return AdminUser{}, ErrInvalidCredentials
	}
	user, err := s.Repo.GetByUsername(ctx, claims.Sub)
	if err != nil {
		return AdminUser{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return AdminUser{}, ErrInactiveUser
	}
	return user, nil
}
