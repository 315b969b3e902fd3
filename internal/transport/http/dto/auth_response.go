package dto

import "github.com/identra/identra/internal/domain"

// UserView is the public user payload; never includes the password hash.
type UserView struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Username      string `json:"username,omitempty"`
	Name          string `json:"name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

func NewUserView(u domain.User) UserView {
	return UserView{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
	}
}

// TokensView is the session token payload for browser-facing endpoints.
type TokensView struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"` // "Bearer"
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

// RegisterData is returned by /auth/register.
type RegisterData struct {
	Success bool     `json:"success"`
	User    UserView `json:"user"`
}

// AuthData is returned by /auth/login.
type AuthData struct {
	Success bool       `json:"success"`
	User    UserView   `json:"user"`
	Tokens  TokensView `json:"tokens"`
}

// RefreshData is returned by /auth/refresh; only a fresh access token.
type RefreshData struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// LogoutData is returned by /auth/logout.
type LogoutData struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MeData is returned by /auth/me.
type MeData struct {
	Success bool     `json:"success"`
	User    UserView `json:"user"`
}

// TokenData is returned by /oauth/token.
type TokenData struct {
	Success      bool   `json:"success"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"` // "Bearer"
	ExpiresIn    int64  `json:"expires_in"` // seconds
}
