package domain

import "time"

// Session represents a server-side login session. The access token is never
// stored; the refresh token is kept only as a jti binding plus a SHA-256 hash.
type Session struct {
	ID               string
	UserID           string
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil when not revoked
	RefreshJti       string     // current refresh token jti for rotation
	RefreshTokenHash string     // SHA-256 hash of current refresh token
	CreatedAt        time.Time
}
