//go:build integration

package cases

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/identra/identra/internal/application/auth"
	"github.com/identra/identra/internal/domain"
)

const itCallback = "http://localhost:3000/callback"

func TestAuthorizationCodeFlow(t *testing.T) {
	d := MustNewDeps(t)
	ctx := context.Background()

	d.MustClient(t, "appA", "appA-secret", itCallback)

	u, err := d.Svc.Register(ctx, auth.RegisterInput{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	toks, err := d.Svc.IssueSession(ctx, u)
	require.NoError(t, err)

	res, err := d.Svc.Authorize(ctx, auth.AuthorizeRequest{
		ClientID:     "appA",
		RedirectURI:  itCallback,
		ResponseType: "code",
		State:        "xyz",
		SSOToken:     toks.AccessToken,
	})
	require.NoError(t, err)
	require.False(t, res.LoginRequired)
	require.NotEmpty(t, res.Code)
	require.Equal(t, "xyz", res.State)

	out, err := d.Svc.ExchangeCode(ctx, auth.TokenRequest{
		GrantType:    "authorization_code",
		Code:         res.Code,
		ClientID:     "appA",
		ClientSecret: "appA-secret",
		RedirectURI:  itCallback,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.AccessToken)
	require.NotEmpty(t, out.RefreshToken)
	require.NotEmpty(t, out.IDToken)
	require.Equal(t, "Bearer", out.TokenType)

	// Second redemption fails against the database row.
	_, err = d.Svc.ExchangeCode(ctx, auth.TokenRequest{
		GrantType:    "authorization_code",
		Code:         res.Code,
		ClientID:     "appA",
		ClientSecret: "appA-secret",
		RedirectURI:  itCallback,
	})
	require.True(t, domain.Is(err, "invalid_grant"), "got %v", err)
	require.Equal(t, "already used", domain.Reason(err))
}

func TestAuthorize_LoginRequiredWithoutSession(t *testing.T) {
	d := MustNewDeps(t)
	ctx := context.Background()

	d.MustClient(t, "appA", "appA-secret", itCallback)

	res, err := d.Svc.Authorize(ctx, auth.AuthorizeRequest{
		ClientID:     "appA",
		RedirectURI:  itCallback,
		ResponseType: "code",
	})
	require.NoError(t, err)
	require.True(t, res.LoginRequired)
}

// TestConcurrentExchange drives the conditional UPDATE through real
// connections: of N racing redemptions exactly one issues tokens.
func TestConcurrentExchange(t *testing.T) {
	d := MustNewDeps(t)
	ctx := context.Background()

	d.MustClient(t, "appA", "appA-secret", itCallback)

	u, err := d.Svc.Register(ctx, auth.RegisterInput{
		Email:    "race@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	toks, err := d.Svc.IssueSession(ctx, u)
	require.NoError(t, err)

	res, err := d.Svc.Authorize(ctx, auth.AuthorizeRequest{
		ClientID:     "appA",
		RedirectURI:  itCallback,
		ResponseType: "code",
		SSOToken:     toks.AccessToken,
	})
	require.NoError(t, err)

	const racers = 8
	var (
		wins int64
		wg   sync.WaitGroup
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Svc.ExchangeCode(ctx, auth.TokenRequest{
				GrantType:    "authorization_code",
				Code:         res.Code,
				ClientID:     "appA",
				ClientSecret: "appA-secret",
				RedirectURI:  itCallback,
			})
			if err == nil {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, wins)
}
