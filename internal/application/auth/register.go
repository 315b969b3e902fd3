package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/identra/identra/internal/domain"
)

type RegisterInput struct {
	Email    string
	Username string // optional
	Password string
	Name     string // optional
}

// Register creates a user. It does NOT issue tokens; login is a separate
// step.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if in.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if !strings.Contains(in.Email, "@") {
		return domain.User{}, domain.ErrInvalidField("email", "invalid format")
	}
	if in.Password == "" {
		return domain.User{}, domain.ErrMissingField("password")
	}
	if len(in.Password) < s.minPasswordLen {
		return domain.User{}, domain.ErrWeakPassword(fmt.Sprintf("min length %d", s.minPasswordLen))
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return domain.User{}, domain.ErrEmailTaken()
	} else if isStorageFault(err) {
		return domain.User{}, err
	}
	// Username uniqueness is checked only when a username was supplied.
	if in.Username != "" {
		if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
			return domain.User{}, domain.ErrUsernameTaken()
		} else if isStorageFault(err) {
			return domain.User{}, err
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, domain.ErrHashFailed(err)
	}

	u := domain.User{
		ID:            uuid.NewString(),
		Email:         in.Email,
		Username:      in.Username,
		Name:          in.Name,
		PasswordHash:  hash,
		EmailVerified: false,
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return domain.User{}, err
	}

	if s.pub != nil {
		_ = s.pub.PublishUserRegistered(ctx, UserRegisteredEvent{
			UserID: created.ID,
			Email:  created.Email,
		})
	}

	return created, nil
}
