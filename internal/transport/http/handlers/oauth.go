package http_handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/identra/identra/internal/application/auth"
	"github.com/identra/identra/internal/domain"
	"github.com/identra/identra/internal/infrastructure/security"
	"github.com/identra/identra/internal/logger"
	"github.com/identra/identra/internal/transport/http/dto"
	"github.com/identra/identra/internal/transport/http/middleware"
	"github.com/identra/identra/internal/transport/http/response"
)

// OAuthHandler serves the authorization-code endpoints. /token is called by
// RP backends, not browsers, so it never touches cookies; only /authorize
// reads the sso_session cookie.
type OAuthHandler struct {
	svc      *auth.Service
	loginURL string
}

func NewOAuthHandler(svc *auth.Service, loginURL string) *OAuthHandler {
	if loginURL == "" {
		loginURL = "/login"
	}
	return &OAuthHandler{svc: svc, loginURL: loginURL}
}

// Authorize handles GET /oauth/authorize. Client and redirect validation
// errors render as 400 JSON and never redirect to the unvalidated URI. A
// missing or unusable SSO session 302s to the login page with the request
// parameters preserved; a recognized session 302s back to the relying party
// with a fresh one-time code.
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sso, _ := security.ReadSSOSession(r)
	res, err := h.svc.Authorize(r.Context(), auth.AuthorizeRequest{
		ClientID:     strings.TrimSpace(q.Get("client_id")),
		RedirectURI:  strings.TrimSpace(q.Get("redirect_uri")),
		ResponseType: q.Get("response_type"),
		State:        q.Get("state"),
		SSOToken:     sso,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	if res.LoginRequired {
		http.Redirect(w, r, h.loginRedirectURL(q), http.StatusFound)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", res.UserID).
		Str("client_id", q.Get("client_id")).
		Msg("code_issued")
	middleware.AuthCodesIssuedTotal.Inc()

	http.Redirect(w, r, callbackURL(res.RedirectURI, res.Code, res.State), http.StatusFound)
}

func (h *OAuthHandler) loginRedirectURL(q url.Values) string {
	v := url.Values{}
	v.Set("client_id", q.Get("client_id"))
	v.Set("redirect_uri", q.Get("redirect_uri"))
	if s := q.Get("state"); s != "" {
		v.Set("state", s)
	}
	return h.loginURL + "?" + v.Encode()
}

// callbackURL appends code and state to the validated redirect URI without
// clobbering query parameters the client already put there.
func callbackURL(redirectURI, code, state string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		// The URI was validated against the whitelist; fall back to naive
		// concatenation rather than failing the flow.
		sep := "?"
		if strings.Contains(redirectURI, "?") {
			sep = "&"
		}
		out := redirectURI + sep + "code=" + url.QueryEscape(code)
		if state != "" {
			out += "&state=" + url.QueryEscape(state)
		}
		return out
	}

	v := u.Query()
	v.Set("code", code)
	if state != "" {
		v.Set("state", state)
	}
	u.RawQuery = v.Encode()
	return u.String()
}

// Token handles POST /oauth/token. RP backends usually send a form body, but
// JSON is accepted too.
func (h *OAuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTokenRequest(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	toks, err := h.svc.ExchangeCode(r.Context(), req)
	if err != nil {
		middleware.CodeExchangesTotal.WithLabelValues(exchangeStatus(err)).Inc()
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("client_id", req.ClientID).
		Msg("tokens_exchanged")
	middleware.CodeExchangesTotal.WithLabelValues("success").Inc()

	response.OK(w, dto.TokenData{
		Success:      true,
		AccessToken:  toks.AccessToken,
		RefreshToken: toks.RefreshToken,
		IDToken:      toks.IDToken,
		TokenType:    toks.TokenType,
		ExpiresIn:    toks.ExpiresIn,
	})
}

func decodeTokenRequest(r *http.Request) (auth.TokenRequest, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			GrantType    string `json:"grant_type"`
			Code         string `json:"code"`
			ClientID     string `json:"client_id"`
			ClientSecret string `json:"client_secret"`
			RedirectURI  string `json:"redirect_uri"`
		}
		if err := response.DecodeJSON(r, &body); err != nil {
			return auth.TokenRequest{}, err
		}
		return auth.TokenRequest{
			GrantType:    body.GrantType,
			Code:         body.Code,
			ClientID:     body.ClientID,
			ClientSecret: body.ClientSecret,
			RedirectURI:  body.RedirectURI,
		}, nil
	}

	_ = r.ParseForm()
	return auth.TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
	}, nil
}

func exchangeStatus(err error) string {
	switch {
	case domain.Is(err, "invalid_client"):
		return "invalid_client"
	case domain.Is(err, "invalid_grant"):
		return "invalid_grant"
	default:
		return "invalid_request"
	}
}
