package domain

import "time"

// Client is a registered relying party. Provisioned administratively and
// effectively immutable at runtime.
type Client struct {
	ID               string
	ClientID         string
	Name             string
	ClientSecretHash string
	RedirectURIs     []string
	CreatedAt        time.Time
}

// AllowsRedirect reports whether uri is byte-exactly in the whitelist.
// Prefix or scheme-only matching is deliberately not supported.
func (c Client) AllowsRedirect(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}
