package postgres

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/identra/identra/internal/domain"
)

type SeederHasher interface {
	Hash(password string) (string, error)
}

type SeederUserRepo interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

type SeederClientRepo interface {
	Create(ctx context.Context, c domain.Client) (domain.Client, error)
}

// SeedUsers inserts a fixed set of dev accounts. Duplicates are skipped so
// the call is restart safe.
func SeedUsers(ctx context.Context, repo SeederUserRepo, hasher SeederHasher) {
	type seedUser struct {
		Email    string
		Username string
		Name     string
		Pass     string
	}

	seeds := []seedUser{
		{Email: "admin@example.com", Username: "admin", Name: "Admin", Pass: "AdminPassword123!"},
		{Email: "alice@example.com", Username: "alice", Name: "Alice", Pass: "AlicePassword123!"},
		{Email: "bob@example.com", Username: "bob", Name: "Bob", Pass: "BobPassword123!"},
	}

	for _, s := range seeds {
		hash, err := hasher.Hash(s.Pass)
		if err != nil {
			log.Printf("[seed] hash failed (%s): %v", s.Email, err)
			continue
		}

		u := domain.User{
			ID:            uuid.NewString(),
			Email:         s.Email,
			Username:      s.Username,
			Name:          s.Name,
			PasswordHash:  hash,
			EmailVerified: true,
		}

		_, err = repo.Create(ctx, u)
		if err != nil {
			// ignore duplicates (restart safe)
			continue
		}
	}

	log.Println("[seed] postgres users seeded")
}

// SeedClients registers a demo relying party so the authorization-code flow
// works out of the box in dev.
func SeedClients(ctx context.Context, repo SeederClientRepo, hasher SeederHasher) {
	hash, err := hasher.Hash("appA-secret")
	if err != nil {
		log.Printf("[seed] client secret hash failed: %v", err)
		return
	}

	c := domain.Client{
		ID:               uuid.NewString(),
		ClientID:         "appA",
		Name:             "Demo App A",
		ClientSecretHash: hash,
		RedirectURIs: []string{
			"http://localhost:3000/callback",
			"http://localhost:3000/auth/callback",
		},
	}

	if _, err := repo.Create(ctx, c); err != nil {
		// ignore duplicates (restart safe)
		return
	}

	log.Println("[seed] postgres clients seeded")
}
