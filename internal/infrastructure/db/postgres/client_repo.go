package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/identra/identra/internal/domain"
)

type ClientRepo struct {
	db *sql.DB
}

func NewClientRepo(db *sql.DB) *ClientRepo {
	return &ClientRepo{db: db}
}

func (r *ClientRepo) GetByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return domain.Client{}, domain.ErrMissingField("client_id")
	}

	const q = `
SELECT id, client_id, name, client_secret_hash, redirect_uris, created_at
FROM client_apps
WHERE client_id = $1
LIMIT 1;
`
	var (
		c            domain.Client
		redirectsRaw []byte
	)
	err := r.db.QueryRowContext(ctx, q, clientID).Scan(
		&c.ID,
		&c.ClientID,
		&c.Name,
		&c.ClientSecretHash,
		&redirectsRaw,
		&c.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return domain.Client{}, domain.ErrUnknownClient()
		}
		return domain.Client{}, domain.ErrDBUnavailable(err)
	}

	// redirect_uris is a JSONB array; order is preserved.
	if err := json.Unmarshal(redirectsRaw, &c.RedirectURIs); err != nil {
		return domain.Client{}, domain.ErrInternal(err)
	}
	return c, nil
}

// Create exists for seeding and admin tooling; clients are immutable at
// runtime.
func (r *ClientRepo) Create(ctx context.Context, c domain.Client) (domain.Client, error) {
	if c.ID == "" || c.ClientID == "" || c.ClientSecretHash == "" {
		return domain.Client{}, domain.ErrMissingField("client")
	}

	redirects, err := json.Marshal(c.RedirectURIs)
	if err != nil {
		return domain.Client{}, domain.ErrInternal(err)
	}

	const q = `
INSERT INTO client_apps (id, client_id, name, client_secret_hash, redirect_uris)
VALUES ($1,$2,$3,$4,$5)
RETURNING created_at;
`
	err = r.db.QueryRowContext(ctx, q,
		c.ID, c.ClientID, c.Name, c.ClientSecretHash, redirects,
	).Scan(&c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Client{}, domain.New(domain.KindConflict, "client_exists", "client already registered")
		}
		return domain.Client{}, domain.ErrDBUnavailable(err)
	}
	return c, nil
}
