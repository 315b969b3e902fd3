package domain

import "time"

// User is the identity principal. Email is unique (case-insensitive);
// Username is optional and unique when present. PasswordHash is the only
// credential form ever stored.
type User struct {
	ID            string
	Email         string
	Username      string
	Name          string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
