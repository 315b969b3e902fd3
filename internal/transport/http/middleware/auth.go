package middleware

import (
	"net/http"
	"strings"

	"github.com/identra/identra/internal/application/auth"
	"github.com/identra/identra/internal/domain"
	"github.com/identra/identra/internal/infrastructure/security"
)

// TokenVerifier is satisfied by auth.Service.VerifyAccess, which also applies
// the email-verification policy.
type TokenVerifier interface {
	VerifyAccess(token string) (auth.AccessClaims, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// Auth extracts the access token (cookie first, then Authorization: Bearer),
// verifies it, and injects the identity into the request context.
func Auth(verifier TokenVerifier, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := security.ReadAccessToken(r)
			if !ok {
				writeErr(w, r, domain.ErrTokenMissing())
				return
			}

			claims, err := verifier.VerifyAccess(raw)
			if err != nil {
				writeErr(w, r, err)
				return
			}

			if strings.TrimSpace(claims.UserID) == "" {
				writeErr(w, r, domain.ErrTokenInvalid())
				return
			}

			ctx := WithUser(r.Context(), claims.UserID, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
