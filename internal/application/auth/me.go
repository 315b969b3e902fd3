package auth

import (
	"context"

	"github.com/identra/identra/internal/domain"
)

func (s *Service) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// VerifyAccess exposes token verification to the HTTP middleware and applies
// the email-verification gate on otherwise-valid sessions.
func (s *Service) VerifyAccess(token string) (AccessClaims, error) {
	claims, err := s.codec.VerifyAccess(token)
	if err != nil {
		return AccessClaims{}, err
	}
	if s.requireVerifiedEmail && !claims.EmailVerified {
		return AccessClaims{}, domain.ErrEmailNotVerified()
	}
	return claims, nil
}
