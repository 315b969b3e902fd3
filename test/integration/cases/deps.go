//go:build integration

package cases

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/identra/identra/internal/application/auth"
	"github.com/identra/identra/internal/domain"
	pg "github.com/identra/identra/internal/infrastructure/db/postgres"
	"github.com/identra/identra/internal/infrastructure/memory"
	"github.com/identra/identra/internal/infrastructure/security"
	itinfra "github.com/identra/identra/test/integration/infra"
)

type Deps struct {
	DB *sql.DB

	Users   *pg.UserRepo
	Refresh *pg.RefreshTokenRepo
	Codes   *pg.AuthCodeRepo
	Clients *pg.ClientRepo
	Hasher  *security.BcryptHasher

	Svc *auth.Service
}

// MustNewDeps wires the real service over a live postgres. Low bcrypt cost
// keeps the cases fast; everything else is the production wiring.
func MustNewDeps(t *testing.T) *Deps {
	t.Helper()

	db := itinfra.StartPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, itinfra.Reset(ctx, db))

	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	codec := security.NewJWTCodec("it-access-secret", "it-refresh-secret", "", "identra", "identra")

	users := pg.NewUserRepo(db)
	refresh := pg.NewRefreshTokenRepo(db)
	codes := pg.NewAuthCodeRepo(db)
	clients := pg.NewClientRepo(db)

	svc := auth.NewService(users, refresh, codes, clients, hasher, codec, memory.NewNoopPublisher(), auth.Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		CodeTTL:    10 * time.Minute,
	})

	return &Deps{
		DB:      db,
		Users:   users,
		Refresh: refresh,
		Codes:   codes,
		Clients: clients,
		Hasher:  hasher,
		Svc:     svc,
	}
}

// MustClient registers a relying party and returns it with the plaintext
// secret for exchange calls.
func (d *Deps) MustClient(t *testing.T, clientID, secret string, redirects ...string) domain.Client {
	t.Helper()

	hash, err := d.Hasher.Hash(secret)
	require.NoError(t, err)

	c, err := d.Clients.Create(context.Background(), domain.Client{
		ID:               uuid.NewString(),
		ClientID:         clientID,
		Name:             clientID,
		ClientSecretHash: hash,
		RedirectURIs:     redirects,
	})
	require.NoError(t, err)
	return c
}
