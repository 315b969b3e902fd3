package security

import (
	"net/http"
	"strings"
	"time"
)

// The three session cookies. access_token and refresh_token are scoped to the
// IdP host; sso_session carries the cookie domain (a parent suffix shared
// with the relying parties) so /oauth/authorize can recognize prior logins
// from sibling subdomains.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
	SSOCookieName     = "sso_session"
)

type CookieWriter struct {
	Domain string // parent suffix for sso_session; empty = host-only (dev)
	Secure bool   // prod=true, dev=false
}

func (c CookieWriter) set(w http.ResponseWriter, name, value, domain string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func (c CookieWriter) SetAccessToken(w http.ResponseWriter, token string, ttl time.Duration) {
	c.set(w, AccessCookieName, token, "", ttl)
}

func (c CookieWriter) SetRefreshToken(w http.ResponseWriter, token string, ttl time.Duration) {
	c.set(w, RefreshCookieName, token, "", ttl)
}

// SetSSOSession writes the cross-subdomain cookie. Its value is the signed
// access-token JWT; lifetime must be at least the access token's.
func (c CookieWriter) SetSSOSession(w http.ResponseWriter, token string, ttl time.Duration) {
	c.set(w, SSOCookieName, token, c.Domain, ttl)
}

func (c CookieWriter) ClearAll(w http.ResponseWriter) {
	c.clear(w, AccessCookieName, "")
	c.clear(w, RefreshCookieName, "")
	c.clear(w, SSOCookieName, c.Domain)
}

func (c CookieWriter) clear(w http.ResponseWriter, name, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// ReadAccessToken applies the presentation precedence: cookie first, then the
// Authorization: Bearer header.
func ReadAccessToken(r *http.Request) (string, bool) {
	if c, err := r.Cookie(AccessCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

func ReadRefreshToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func ReadSSOSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(SSOCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
