package auth

import (
	"context"
	"time"

	"github.com/identra/identra/internal/domain"
)

type AuthorizeRequest struct {
	ClientID     string
	RedirectURI  string
	ResponseType string
	State        string // opaque, echoed back
	SSOToken     string // raw sso_session cookie value, may be empty
}

// AuthorizeResult is one of two outcomes: LoginRequired (the edge redirects
// to the login page, preserving the request parameters) or a fresh code bound
// to the validated redirect URI.
type AuthorizeResult struct {
	LoginRequired bool

	Code        string
	RedirectURI string
	State       string
	UserID      string
}

// Authorize runs the /authorize request checks in order. Validation failures
// on client or redirect_uri are returned as errors and MUST NOT redirect to
// the unvalidated URI; an absent or unusable session is not an error but a
// login redirect.
func (s *Service) Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizeResult, error) {
	if req.ClientID == "" {
		return AuthorizeResult{}, domain.ErrOAuthInvalidRequest("client_id is required")
	}
	if req.RedirectURI == "" {
		return AuthorizeResult{}, domain.ErrOAuthInvalidRequest("redirect_uri is required")
	}
	if req.ResponseType != "code" {
		return AuthorizeResult{}, domain.ErrOAuthInvalidRequest("response_type must be \"code\"")
	}

	client, err := s.clients.GetByClientID(ctx, req.ClientID)
	if err != nil {
		if isStorageFault(err) {
			return AuthorizeResult{}, err
		}
		return AuthorizeResult{}, domain.ErrUnknownClient()
	}

	if !client.AllowsRedirect(req.RedirectURI) {
		return AuthorizeResult{}, domain.ErrBadRedirect()
	}

	// No cookie, a stale/forged cookie, or an unverified email (when policy
	// demands one) all funnel to the login page.
	if req.SSOToken == "" {
		return AuthorizeResult{LoginRequired: true}, nil
	}
	claims, err := s.codec.VerifyAccess(req.SSOToken)
	if err != nil {
		return AuthorizeResult{LoginRequired: true}, nil
	}
	if s.requireVerifiedEmail && !claims.EmailVerified {
		return AuthorizeResult{LoginRequired: true}, nil
	}

	code, err := newAuthCode()
	if err != nil {
		return AuthorizeResult{}, domain.ErrRandomFailed(err)
	}

	ac := domain.AuthCode{
		Code:        code,
		UserID:      claims.UserID,
		ClientID:    client.ClientID,
		RedirectURI: req.RedirectURI,
		ExpiresAt:   time.Now().Add(s.codeTTL),
		Used:        false,
	}
	if err := s.codes.Insert(ctx, ac); err != nil {
		return AuthorizeResult{}, err
	}

	return AuthorizeResult{
		Code:        code,
		RedirectURI: req.RedirectURI,
		State:       req.State,
		UserID:      claims.UserID,
	}, nil
}
