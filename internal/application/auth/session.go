package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/identra/identra/internal/domain"
)

// IssueSession produces an (access, refresh) pair and persists the refresh
// record. Only the digest of the refresh token is stored.
func (s *Service) IssueSession(ctx context.Context, u domain.User) (SessionTokens, error) {
	access, err := s.codec.SignAccess(u, s.accessTTL)
	if err != nil {
		return SessionTokens{}, domain.ErrTokenSignFailed(err)
	}

	tokenID := uuid.NewString()
	refresh, err := s.codec.SignRefresh(u.ID, tokenID, s.refreshTTL)
	if err != nil {
		return SessionTokens{}, domain.ErrTokenSignFailed(err)
	}

	rec := domain.RefreshRecord{
		ID:        tokenID,
		UserID:    u.ID,
		TokenHash: tokenDigest(refresh),
		ExpiresAt: time.Now().Add(s.refreshTTL),
		Revoked:   false,
	}
	if err := s.refresh.Insert(ctx, rec); err != nil {
		return SessionTokens{}, err
	}

	return SessionTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// Refresh validates a raw refresh token and returns a fresh access token.
// The refresh token itself is NOT rotated; rotation is an extension point.
// Each failure is terminal - no state changes before the record is known
// good.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (string, domain.User, error) {
	if rawRefresh == "" {
		return "", domain.User{}, domain.ErrRefreshTokenInvalid()
	}

	if _, err := s.codec.VerifyRefresh(rawRefresh); err != nil {
		return "", domain.User{}, err
	}

	rec, err := s.refresh.GetByHash(ctx, tokenDigest(rawRefresh))
	if err != nil {
		if isStorageFault(err) {
			return "", domain.User{}, err
		}
		return "", domain.User{}, domain.ErrRefreshTokenInvalid()
	}

	if rec.Revoked {
		return "", domain.User{}, domain.ErrRefreshTokenRevoked()
	}
	// The record's expiry wins even if the JWT exp is later.
	if rec.Expired(time.Now()) {
		return "", domain.User{}, domain.ErrRefreshTokenExpired()
	}

	u, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		if isStorageFault(err) {
			return "", domain.User{}, err
		}
		return "", domain.User{}, domain.ErrRefreshTokenInvalid()
	}

	if err := s.refresh.Touch(ctx, rec.TokenHash, time.Now()); err != nil {
		return "", domain.User{}, err
	}

	access, err := s.codec.SignAccess(u, s.accessTTL)
	if err != nil {
		return "", domain.User{}, domain.ErrTokenSignFailed(err)
	}

	return access, u, nil
}

// Revoke marks the refresh record revoked. Idempotent; a missing record is
// not an error, so logout never leaks token existence.
func (s *Service) Revoke(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}
	if err := s.refresh.MarkRevoked(ctx, tokenDigest(rawRefresh)); err != nil {
		return err
	}
	if s.pub != nil {
		if claims, err := s.codec.VerifyRefresh(rawRefresh); err == nil {
			_ = s.pub.PublishSessionRevoked(ctx, SessionRevokedEvent{UserID: claims.UserID})
		}
	}
	return nil
}
