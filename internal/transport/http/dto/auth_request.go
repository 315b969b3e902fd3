package dto

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/identra/identra/internal/domain"
)

var validate = validator.New()

// mapValidationError converts the first validator failure into a domain error
// so the edge renders it like every other validation problem.
func mapValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			return domain.ErrMissingField(field)
		}
		return domain.ErrInvalidField(field, "failed "+fe.Tag()+" check")
	}
	return domain.ErrInvalidJSON(err)
}

// -------- Core auth --------

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=32"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=128"`
}

func (r *RegisterRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	if err := validate.Struct(r); err != nil {
		return mapValidationError(err)
	}
	return nil
}

// LoginRequest carries the credential pair plus optional OAuth continuation
// parameters. When client_id and redirect_uri are both present the handler
// 302s back into /oauth/authorize instead of returning JSON.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`

	ClientID    string `json:"client_id,omitempty"`
	RedirectURI string `json:"redirect_uri,omitempty"`
	State       string `json:"state,omitempty"`
}

func (r *LoginRequest) Validate() error {
	r.Identifier = strings.TrimSpace(r.Identifier)
	if err := validate.Struct(r); err != nil {
		return mapValidationError(err)
	}
	return nil
}

func (r *LoginRequest) WantsAuthorizeRedirect() bool {
	return r.ClientID != "" && r.RedirectURI != ""
}

// RefreshRequest is usually empty; the refresh token normally arrives in the
// HttpOnly cookie, with the body as fallback.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}
