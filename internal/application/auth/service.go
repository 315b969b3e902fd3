package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/identra/identra/internal/domain"
)

type Service struct {
	users    UserRepo
	refresh  RefreshTokenRepo
	codes    AuthCodeRepo
	clients  ClientRepo
	hasher   PasswordHasher
	codec    TokenCodec
	pub      EventPublisher

	accessTTL  time.Duration
	refreshTTL time.Duration
	codeTTL    time.Duration

	minPasswordLen       int
	requireVerifiedEmail bool

	// Compared against when the identifier resolves to no user, so a miss
	// costs roughly the same as a password mismatch.
	dummyHash string
}

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CodeTTL    time.Duration

	MinPasswordLength         int
	EmailVerificationRequired bool
}

func NewService(
	users UserRepo,
	refresh RefreshTokenRepo,
	codes AuthCodeRepo,
	clients ClientRepo,
	hasher PasswordHasher,
	codec TokenCodec,
	pub EventPublisher,
	cfg Config,
) *Service {
	minLen := cfg.MinPasswordLength
	if minLen <= 0 {
		minLen = 8
	}
	codeTTL := cfg.CodeTTL
	if codeTTL <= 0 || codeTTL > 10*time.Minute {
		codeTTL = 10 * time.Minute
	}

	dummy, err := hasher.Hash("identra-timing-equalizer")
	if err != nil {
		dummy = ""
	}

	return &Service{
		users:   users,
		refresh: refresh,
		codes:   codes,
		clients: clients,
		hasher:  hasher,
		codec:   codec,
		pub:     pub,

		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		codeTTL:    codeTTL,

		minPasswordLen:       minLen,
		requireVerifiedEmail: cfg.EmailVerificationRequired,

		dummyHash: dummy,
	}
}

// AccessTTLSeconds is the expires_in value for token responses.
func (s *Service) AccessTTLSeconds() int64 { return int64(s.accessTTL.Seconds()) }

// SessionTokens is the common token output for handlers/DTO mapping.
type SessionTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64  // seconds
	TokenType    string // "Bearer"
}

// newAuthCode returns a URL-safe authorization code with 256 bits of entropy.
// The unique index on auth_codes.code stays authoritative for collisions.
func newAuthCode() (string, error) {
	return newOpaqueToken(32)
}

func newOpaqueToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// isStorageFault reports whether a repository error is an infrastructure or
// internal failure. Such errors propagate unchanged so the edge maps them to
// a 5xx; only genuine lookup misses may be folded into auth/grant errors.
func isStorageFault(err error) bool {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Kind == domain.KindInfrastructure || de.Kind == domain.KindInternal
	}
	// Unclassified errors are never treated as misses.
	return err != nil
}

// tokenDigest is the at-rest form of a refresh token. SHA-256 is deliberate:
// the input is already a high-entropy JWT and the digest runs on every
// refresh.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
