package memory

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/identra/identra/internal/domain"
)

// Hasher is the minimal surface we need for seeding.
type Hasher interface {
	Hash(password string) (string, error)
}

// Seed creates initial users and a demo relying party for local development
// (in-memory only). Safe to call multiple times (duplicates ignored).
func Seed(ctx context.Context, users *UserRepo, clients *ClientRepo, hasher Hasher) {
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

		if _, err := users.Create(ctx, u); err != nil {
			// ignore duplicates / restart
			continue
		}
	}

	if secretHash, err := hasher.Hash("appA-secret"); err == nil {
		_, _ = clients.Create(ctx, domain.Client{
			ID:               uuid.NewString(),
			ClientID:         "appA",
			Name:             "Demo App A",
			ClientSecretHash: secretHash,
			RedirectURIs: []string{
				"http://localhost:3000/callback",
				"http://localhost:3000/auth/callback",
			},
		})
	}

	log.Println("[seed] in-memory users and clients seeded")
}
