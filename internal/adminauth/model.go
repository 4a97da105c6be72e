// Package adminauth manages the dashboard admin account and its session
// tokens. There is a single admin role; the account is created by the
// first-run wizard.
package adminauth

import "time"

// AdminUser is the dashboard administrator account.
type AdminUser struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
