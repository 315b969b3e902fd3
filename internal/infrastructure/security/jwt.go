package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/identra/identra/internal/application/auth"
	"github.com/identra/identra/internal/domain"
)

// JWTCodec signs and verifies the three token kinds. Access and ID tokens may
// share a secret; refresh tokens must not, so a leaked access secret cannot
// forge refresh tokens.
type JWTCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	idSecret      []byte
	issuer        string
	audience      string
}

func NewJWTCodec(accessSecret, refreshSecret, idSecret, issuer, audience string) *JWTCodec {
	if idSecret == "" {
		idSecret = accessSecret
	}
	return &JWTCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		idSecret:      []byte(idSecret),
		issuer:        issuer,
		audience:      audience,
	}
}

type accessClaims struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID  string `json:"userId"`
	TokenID string `json:"tokenId"`
	jwt.RegisteredClaims
}

type idClaims struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	jwt.RegisteredClaims
}

func (c *JWTCodec) SignAccess(u domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := accessClaims{
		UserID:        u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (c *JWTCodec) SignRefresh(userID, tokenID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := refreshClaims{
		UserID:  userID,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (c *JWTCodec) SignID(u domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := idClaims{
		UserID:        u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.idSecret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (c *JWTCodec) VerifyAccess(token string) (auth.AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method != jwt.SigningMethodHS256 {
			return nil, domain.ErrTokenInvalid()
		}
		return c.accessSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
	)
	if err != nil {
		return auth.AccessClaims{}, mapAccessJWTError(err)
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return auth.AccessClaims{}, domain.ErrTokenInvalid()
	}

	out := auth.AccessClaims{
		UserID:        claims.UserID,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (c *JWTCodec) VerifyRefresh(token string) (auth.RefreshClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &refreshClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, domain.ErrRefreshTokenInvalid()
		}
		return c.refreshSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.RefreshClaims{}, domain.ErrRefreshTokenExpired()
		}
		return auth.RefreshClaims{}, domain.ErrRefreshTokenInvalid()
	}

	claims, ok := parsed.Claims.(*refreshClaims)
	if !ok || !parsed.Valid || claims.TokenID == "" {
		return auth.RefreshClaims{}, domain.ErrRefreshTokenInvalid()
	}

	out := auth.RefreshClaims{
		UserID:  claims.UserID,
		TokenID: claims.TokenID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// mapAccessJWTError keeps the three verification failure classes distinct:
// expired, issuer/audience mismatch, and everything else (malformed or bad
// signature).
func mapAccessJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired()
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return domain.ErrTokenClaimsMismatch()
	default:
		return domain.ErrTokenInvalid()
	}
}
