package auth

import (
	"context"
	"time"

	"github.com/identra/identra/internal/domain"
)

/*
UserRepo
--------
Persistence port for users.
Only describes WHAT the auth service needs, not HOW it's stored.
*/
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

/*
RefreshTokenRepo
----------------
Server-side refresh records. Only the token digest ever crosses this port;
the raw token is never stored.
*/
type RefreshTokenRepo interface {
	Insert(ctx context.Context, rec domain.RefreshRecord) error
	GetByHash(ctx context.Context, hash string) (domain.RefreshRecord, error)
	// MarkRevoked is idempotent; revoking a missing record is not an error.
	MarkRevoked(ctx context.Context, hash string) error
	Touch(ctx context.Context, hash string, when time.Time) error
}

/*
AuthCodeRepo
------------
Authorization codes. MarkUsed is the Fresh→Used transition: it must be
conditional on used=false and report whether it actually flipped the row, so
at most one concurrent exchange wins.
*/
type AuthCodeRepo interface {
	Insert(ctx context.Context, c domain.AuthCode) error
	GetByCode(ctx context.Context, code string) (domain.AuthCode, error)
	MarkUsed(ctx context.Context, code string) (bool, error)
}

/*
ClientRepo
----------
Registered relying parties. Administratively provisioned, read-only here.
*/
type ClientRepo interface {
	GetByClientID(ctx context.Context, clientID string) (domain.Client, error)
}

/*
PasswordHasher
--------------
Abstracts bcrypt / argon2. Also used for client secrets.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
TokenCodec
----------
Signs and verifies the three JWT kinds.
Used by the service + auth middleware.
*/
type AccessClaims struct {
	UserID        string
	Email         string
	EmailVerified bool
	ExpiresAt     time.Time
}

type RefreshClaims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

type TokenCodec interface {
	SignAccess(u domain.User, ttl time.Duration) (string, error)
	SignRefresh(userID, tokenID string, ttl time.Duration) (string, error)
	SignID(u domain.User, ttl time.Duration) (string, error)
	VerifyAccess(token string) (AccessClaims, error)
	VerifyRefresh(token string) (RefreshClaims, error)
}

/*
EventPublisher
--------------
Publishes security events to the broker. Downstream consumers (audit,
notification) subscribe; the IdP never blocks a request on them.
*/
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, evt UserRegisteredEvent) error
	PublishUserLoggedIn(ctx context.Context, evt UserLoggedInEvent) error
	PublishTokensIssued(ctx context.Context, evt TokensIssuedEvent) error
	PublishSessionRevoked(ctx context.Context, evt SessionRevokedEvent) error
}

type UserRegisteredEvent struct {
	UserID string
	Email  string
}

type UserLoggedInEvent struct {
	UserID string
}

type TokensIssuedEvent struct {
	UserID   string
	ClientID string
}

type SessionRevokedEvent struct {
	UserID string
}
