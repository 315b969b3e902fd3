package http_handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/identra/identra/internal/application/auth"
	"github.com/identra/identra/internal/domain"
	"github.com/identra/identra/internal/infrastructure/memory"
	"github.com/identra/identra/internal/infrastructure/security"
	"github.com/identra/identra/internal/transport/http/middleware"
	"github.com/identra/identra/internal/transport/http/response"
	"github.com/identra/identra/internal/transport/http/router"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "password123"
	testClientID = "appA"
	testSecret   = "appA-secret"
	testCallback = "http://localhost:3000/callback"
)

type testEnv struct {
	handler http.Handler
	svc     *auth.Service
	userID  string
}

// newTestEnv wires the real router over in-memory stores with low-cost
// hashing, seeded with one user and one client.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := memory.NewUserRepo()
	refresh := memory.NewRefreshTokenRepo()
	codes := memory.NewAuthCodeRepo()
	clients := memory.NewClientRepo()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	codec := security.NewJWTCodec("access-secret", "refresh-secret", "", "identra", "identra")

	svc := auth.NewService(users, refresh, codes, clients, hasher, codec, memory.NewNoopPublisher(), auth.Config{
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		CodeTTL:    10 * time.Minute,
	})

	pwHash, err := hasher.Hash(testPassword)
	require.NoError(t, err)
	userID := uuid.NewString()
	_, err = users.Create(t.Context(), domain.User{
		ID: userID, Email: testEmail, Username: "alice",
		PasswordHash: pwHash, EmailVerified: true,
	})
	require.NoError(t, err)

	secretHash, err := hasher.Hash(testSecret)
	require.NoError(t, err)
	_, err = clients.Create(t.Context(), domain.Client{
		ID: uuid.NewString(), ClientID: testClientID, Name: "App A",
		ClientSecretHash: secretHash,
		RedirectURIs:     []string{testCallback},
	})
	require.NoError(t, err)

	cookies := security.CookieWriter{}
	mux, err := router.New(router.Deps{
		Health: NewHealthHandler(nil),
		Auth:   NewAuthHandler(svc, cookies, time.Hour, 24*time.Hour),
		OAuth:  NewOAuthHandler(svc, "/login"),
		Base:   []func(http.Handler) http.Handler{middleware.RequestID},
		AuthMW: middleware.Auth(svc, response.WriteError),
	})
	require.NoError(t, err)

	return &testEnv{handler: mux, svc: svc, userID: userID}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mutate {
		m(req)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// login runs a real login and returns the response for cookie harvesting.
func (e *testEnv) login(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", map[string]string{
		"identifier": testEmail,
		"password":   testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec
}
