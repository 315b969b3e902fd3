package auth

import (
	"context"
	"time"

	"github.com/identra/identra/internal/domain"
)

type TokenRequest struct {
	GrantType    string
	Code         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string // "Bearer"
	ExpiresIn    int64  // access TTL seconds
}

// ExchangeCode is the one-time authorization-code exchange. The checks run
// strictly in order and none progresses past its own failure. The Fresh→Used
// transition happens through the conditional MarkUsed, so of two concurrent
// exchanges for the same code exactly one issues tokens.
func (s *Service) ExchangeCode(ctx context.Context, req TokenRequest) (TokenResponse, error) {
	// 1. parameter shape
	if req.GrantType != "authorization_code" {
		return TokenResponse{}, domain.ErrOAuthInvalidRequest("grant_type must be \"authorization_code\"")
	}
	if req.Code == "" || req.ClientID == "" || req.ClientSecret == "" || req.RedirectURI == "" {
		return TokenResponse{}, domain.ErrOAuthInvalidRequest("code, client_id, client_secret and redirect_uri are required")
	}

	// 2-3. client authentication
	client, err := s.clients.GetByClientID(ctx, req.ClientID)
	if err != nil {
		if isStorageFault(err) {
			return TokenResponse{}, err
		}
		return TokenResponse{}, domain.ErrInvalidClient()
	}
	if err := s.hasher.Compare(client.ClientSecretHash, req.ClientSecret); err != nil {
		return TokenResponse{}, domain.ErrInvalidClient()
	}

	// 4-7. code validation
	code, err := s.codes.GetByCode(ctx, req.Code)
	if err != nil {
		if isStorageFault(err) {
			return TokenResponse{}, err
		}
		return TokenResponse{}, domain.ErrInvalidGrant(domain.GrantReasonUnknownCode)
	}
	if code.ClientID != req.ClientID {
		return TokenResponse{}, domain.ErrInvalidGrant(domain.GrantReasonUnknownCode)
	}
	if code.Used {
		return TokenResponse{}, domain.ErrInvalidGrant(domain.GrantReasonAlreadyUsed)
	}
	if code.Expired(time.Now()) {
		return TokenResponse{}, domain.ErrInvalidGrant(domain.GrantReasonExpired)
	}
	if code.RedirectURI != req.RedirectURI {
		return TokenResponse{}, domain.ErrInvalidGrant(domain.GrantReasonRedirectMismatch)
	}

	// 8. principal
	u, err := s.users.GetByID(ctx, code.UserID)
	if err != nil {
		if isStorageFault(err) {
			return TokenResponse{}, err
		}
		return TokenResponse{}, domain.ErrInvalidGrant(domain.GrantReasonUserGone)
	}

	// 9. atomic Fresh→Used; the loser of a race fails here
	flipped, err := s.codes.MarkUsed(ctx, req.Code)
	if err != nil {
		return TokenResponse{}, err
	}
	if !flipped {
		return TokenResponse{}, domain.ErrInvalidGrant(domain.GrantReasonAlreadyUsed)
	}

	// 10. issuance
	toks, err := s.IssueSession(ctx, u)
	if err != nil {
		return TokenResponse{}, err
	}
	idToken, err := s.codec.SignID(u, s.accessTTL)
	if err != nil {
		return TokenResponse{}, domain.ErrTokenSignFailed(err)
	}

	if s.pub != nil {
		_ = s.pub.PublishTokensIssued(ctx, TokensIssuedEvent{
			UserID:   u.ID,
			ClientID: client.ClientID,
		})
	}

	return TokenResponse{
		AccessToken:  toks.AccessToken,
		RefreshToken: toks.RefreshToken,
		IDToken:      idToken,
		TokenType:    "Bearer",
		ExpiresIn:    toks.ExpiresIn,
	}, nil
}
