package auth

import (
	"context"
	"strings"

	"github.com/identra/identra/internal/domain"
)

// Authenticate resolves the identifier by shape (an "@" means email,
// anything else is a username) and verifies the password.
// IMPORTANT: unknown identifier and wrong password must be indistinguishable
// externally - same error, similar timing (hence the dummy compare).
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (domain.User, error) {
	identifier = strings.TrimSpace(identifier)

	if identifier == "" || password == "" {
		return domain.User{}, domain.ErrInvalidCredentials()
	}

	var (
		u   domain.User
		err error
	)
	if strings.Contains(identifier, "@") {
		u, err = s.users.GetByEmail(ctx, identifier)
	} else {
		u, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if isStorageFault(err) {
			return domain.User{}, err
		}
		// Burn a comparison so the miss costs as much as a mismatch.
		if s.dummyHash != "" {
			_ = s.hasher.Compare(s.dummyHash, password)
		}
		return domain.User{}, domain.ErrInvalidCredentials()
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials()
	}

	if s.pub != nil {
		_ = s.pub.PublishUserLoggedIn(ctx, UserLoggedInEvent{UserID: u.ID})
	}

	return u, nil
}
