package domain

import "time"

// RefreshRecord is the server-side record of one issued refresh token.
// Only the SHA-256 digest of the raw token is persisted.
type RefreshRecord struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

func (r RefreshRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// AuthCode is a short-lived, one-time capability binding an authenticated
// user to a single (client, redirect URI) pair.
type AuthCode struct {
	Code        string
	UserID      string
	ClientID    string
	RedirectURI string
	ExpiresAt   time.Time
	Used        bool
	CreatedAt   time.Time
}

func (c AuthCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
