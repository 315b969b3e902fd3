package http_handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/identra/identra/internal/application/auth"
	"github.com/identra/identra/internal/domain"
	"github.com/identra/identra/internal/infrastructure/security"
	"github.com/identra/identra/internal/logger"
	"github.com/identra/identra/internal/transport/http/dto"
	"github.com/identra/identra/internal/transport/http/middleware"
	"github.com/identra/identra/internal/transport/http/response"
)

type AuthHandler struct {
	svc        *auth.Service
	cookies    security.CookieWriter
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthHandler(svc *auth.Service, cookies security.CookieWriter, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		svc:        svc,
		cookies:    cookies,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		middleware.RegistrationsTotal.WithLabelValues("validation").Inc()
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		middleware.RegistrationsTotal.WithLabelValues(registerStatus(err)).Inc()
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", u.ID).
		Str("email", u.Email).
		Msg("user_registered")
	middleware.RegistrationsTotal.WithLabelValues("success").Inc()

	response.Created(w, dto.RegisterData{
		Success: true,
		User:    dto.NewUserView(u),
	})
}

func registerStatus(err error) string {
	switch {
	case domain.Is(err, "email_taken"):
		return "email_taken"
	case domain.Is(err, "username_taken"):
		return "username_taken"
	default:
		return "validation"
	}
}

// Login authenticates the credential pair and establishes the browser
// session: access_token and refresh_token on the IdP host plus the
// parent-domain sso_session. When the request carries OAuth continuation
// parameters, the response is a 302 back into /oauth/authorize so the flow
// completes without a second user action.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.Authenticate(r.Context(), req.Identifier, req.Password)
	if err != nil {
		middleware.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		response.WriteError(w, r, err)
		return
	}

	toks, err := h.svc.IssueSession(r.Context(), u)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", u.ID).
		Msg("user_logged_in")
	middleware.LoginAttemptsTotal.WithLabelValues("success").Inc()

	h.cookies.SetAccessToken(w, toks.AccessToken, h.accessTTL)
	h.cookies.SetRefreshToken(w, toks.RefreshToken, h.refreshTTL)
	h.cookies.SetSSOSession(w, toks.AccessToken, h.accessTTL)

	if req.WantsAuthorizeRedirect() {
		q := url.Values{}
		q.Set("client_id", req.ClientID)
		q.Set("redirect_uri", req.RedirectURI)
		q.Set("response_type", "code")
		if req.State != "" {
			q.Set("state", req.State)
		}
		http.Redirect(w, r, "/oauth/authorize?"+q.Encode(), http.StatusFound)
		return
	}

	response.OK(w, dto.AuthData{
		Success: true,
		User:    dto.NewUserView(u),
		Tokens: dto.TokensView{
			AccessToken:  toks.AccessToken,
			RefreshToken: toks.RefreshToken,
			TokenType:    toks.TokenType,
			ExpiresIn:    toks.ExpiresIn,
		},
	})
}

// Refresh reissues an access token. The refresh token arrives in the cookie,
// or in the body as a fallback for non-browser clients.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw, ok := security.ReadRefreshToken(r)
	if !ok {
		var req dto.RefreshRequest
		if err := response.DecodeJSON(r, &req); err == nil {
			raw = req.RefreshToken
		}
	}
	if raw == "" {
		middleware.TokenRefreshTotal.WithLabelValues("invalid").Inc()
		response.WriteError(w, r, domain.ErrRefreshTokenInvalid())
		return
	}

	access, _, err := h.svc.Refresh(r.Context(), raw)
	if err != nil {
		middleware.TokenRefreshTotal.WithLabelValues(refreshStatus(err)).Inc()
		response.WriteError(w, r, err)
		return
	}

	middleware.TokenRefreshTotal.WithLabelValues("success").Inc()
	h.cookies.SetAccessToken(w, access, h.accessTTL)

	response.OK(w, dto.RefreshData{
		Success:     true,
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   h.svc.AccessTTLSeconds(),
	})
}

func refreshStatus(err error) string {
	switch {
	case domain.Is(err, "refresh_token_expired"):
		return "expired"
	case domain.Is(err, "refresh_token_revoked"):
		return "revoked"
	default:
		return "invalid"
	}
}

// Logout revokes the refresh record (idempotent) and clears all three
// cookies. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	raw, ok := security.ReadRefreshToken(r)
	if !ok {
		var req dto.LogoutRequest
		if err := response.DecodeJSON(r, &req); err == nil {
			raw = req.RefreshToken
		}
	}
	if raw != "" {
		if err := h.svc.Revoke(r.Context(), raw); err != nil {
			logger.WithCtx(r.Context()).Warn().Err(err).Msg("refresh revoke failed")
		}
	}

	h.cookies.ClearAll(w)
	response.OK(w, dto.LogoutData{Success: true, Message: "logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenInvalid())
		return
	}

	u, err := h.svc.GetUserByID(r.Context(), userID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.MeData{
		Success: true,
		User:    dto.NewUserView(u),
	})
}
