package http_handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/identra/identra/internal/infrastructure/security"
	"github.com/identra/identra/internal/transport/http/dto"
	"github.com/identra/identra/internal/transport/http/response"
)

func TestRegister_Created(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email":    "bob@example.com",
		"username": "bob",
		"password": "password123",
		"name":     "Bob",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody[dto.RegisterData](t, rec)
	require.True(t, body.Success)
	require.Equal(t, "bob@example.com", body.User.Email)
	require.NotEmpty(t, body.User.ID)
	require.False(t, body.User.EmailVerified)
	require.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email":    testEmail,
		"password": "password123",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	body := decodeBody[response.ErrorBody](t, rec)
	require.False(t, body.Success)
	require.Equal(t, "email_taken", body.Error)
	require.NotEmpty(t, body.RequestID)
}

func TestRegister_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email":    "not-an-email",
		"password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_field", decodeBody[response.ErrorBody](t, rec).Error)
}

func TestRegister_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", nil, func(r *http.Request) {
		r.Body = http.NoBody
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_SetsSessionCookies(t *testing.T) {
	env := newTestEnv(t)

	rec := env.login(t)

	body := decodeBody[dto.AuthData](t, rec)
	require.True(t, body.Success)
	require.Equal(t, testEmail, body.User.Email)
	require.NotEmpty(t, body.Tokens.AccessToken)
	require.NotEmpty(t, body.Tokens.RefreshToken)
	require.Equal(t, "Bearer", body.Tokens.TokenType)
	require.EqualValues(t, 3600, body.Tokens.ExpiresIn)

	at := cookieNamed(rec, security.AccessCookieName)
	require.NotNil(t, at)
	require.Equal(t, body.Tokens.AccessToken, at.Value)
	require.True(t, at.HttpOnly)

	rt := cookieNamed(rec, security.RefreshCookieName)
	require.NotNil(t, rt)
	require.Equal(t, body.Tokens.RefreshToken, rt.Value)

	sso := cookieNamed(rec, security.SSOCookieName)
	require.NotNil(t, sso)
	require.Equal(t, body.Tokens.AccessToken, sso.Value, "sso cookie carries the access JWT")
}

func TestLogin_ByUsername(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"identifier": "alice",
		"password":   testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"identifier": testEmail,
		"password":   "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_credentials", decodeBody[response.ErrorBody](t, rec).Error)
	require.Nil(t, cookieNamed(rec, security.AccessCookieName))
}

func TestLogin_UnknownUser_SameError(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"identifier": "ghost@example.com",
		"password":   "whatever",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_credentials", decodeBody[response.ErrorBody](t, rec).Error)
}

func TestLogin_OAuthContinuation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"identifier":   testEmail,
		"password":     testPassword,
		"client_id":    testClientID,
		"redirect_uri": testCallback,
		"state":        "xyz",
	})
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/oauth/authorize", loc.Path)
	require.Equal(t, testClientID, loc.Query().Get("client_id"))
	require.Equal(t, testCallback, loc.Query().Get("redirect_uri"))
	require.Equal(t, "code", loc.Query().Get("response_type"))
	require.Equal(t, "xyz", loc.Query().Get("state"))

	// Cookies are set even on the redirect response.
	require.NotNil(t, cookieNamed(rec, security.SSOCookieName))
}

func TestRefresh_FromCookie(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)
	rt := cookieNamed(login, security.RefreshCookieName)

	rec := env.do(t, http.MethodPost, "/auth/refresh", nil, func(r *http.Request) {
		r.AddCookie(rt)
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody[dto.RefreshData](t, rec)
	require.True(t, body.Success)
	require.NotEmpty(t, body.AccessToken)
	require.Equal(t, "Bearer", body.TokenType)
	require.EqualValues(t, 3600, body.ExpiresIn)

	at := cookieNamed(rec, security.AccessCookieName)
	require.NotNil(t, at)
	require.Equal(t, body.AccessToken, at.Value)
}

func TestRefresh_FromBody(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)
	rt := cookieNamed(login, security.RefreshCookieName)

	rec := env.do(t, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": rt.Value,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRefresh_Missing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "refresh_token_invalid", decodeBody[response.ErrorBody](t, rec).Error)
}

func TestRefresh_AfterLogout(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)
	rt := cookieNamed(login, security.RefreshCookieName)

	out := env.do(t, http.MethodPost, "/auth/logout", nil, func(r *http.Request) {
		r.AddCookie(rt)
	})
	require.Equal(t, http.StatusOK, out.Code)

	rec := env.do(t, http.MethodPost, "/auth/refresh", nil, func(r *http.Request) {
		r.AddCookie(rt)
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "refresh_token_revoked", decodeBody[response.ErrorBody](t, rec).Error)
}

func TestLogout_ClearsCookies(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)
	rt := cookieNamed(login, security.RefreshCookieName)

	rec := env.do(t, http.MethodPost, "/auth/logout", nil, func(r *http.Request) {
		r.AddCookie(rt)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[dto.LogoutData](t, rec)
	require.True(t, body.Success)
	require.Equal(t, "logged out", body.Message)

	for _, name := range []string{security.AccessCookieName, security.RefreshCookieName, security.SSOCookieName} {
		c := cookieNamed(rec, name)
		require.NotNil(t, c, name)
		require.Empty(t, c.Value)
		require.Less(t, c.MaxAge, 0, name)
	}
}

func TestLogout_WithoutSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMe_WithBearer(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)
	body := decodeBody[dto.AuthData](t, login)

	rec := env.do(t, http.MethodGet, "/auth/me", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+body.Tokens.AccessToken)
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	me := decodeBody[dto.MeData](t, rec)
	require.Equal(t, env.userID, me.User.ID)
	require.Equal(t, testEmail, me.User.Email)
}

func TestMe_WithCookie(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)
	at := cookieNamed(login, security.AccessCookieName)

	rec := env.do(t, http.MethodGet, "/auth/me", nil, func(r *http.Request) {
		r.AddCookie(at)
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMe_NoToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "token_missing", decodeBody[response.ErrorBody](t, rec).Error)
}

func TestMe_GarbageToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/auth/me", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-jwt")
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "token_invalid", decodeBody[response.ErrorBody](t, rec).Error)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `"status":"ok"`))
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
