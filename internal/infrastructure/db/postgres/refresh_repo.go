package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/identra/identra/internal/domain"
)

type RefreshTokenRepo struct {
	db *sql.DB
}

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

const refreshColumns = `id, user_id, token_hash, expires_at, revoked, last_used_at, created_at`

func scanRefreshRow(row *sql.Row) (domain.RefreshRecord, error) {
	var (
		rec      domain.RefreshRecord
		lastUsed sql.NullTime
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.TokenHash,
		&rec.ExpiresAt,
		&rec.Revoked,
		&lastUsed,
		&rec.CreatedAt,
	)
	if err != nil {
		return domain.RefreshRecord{}, err
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		rec.LastUsedAt = &t
	}
	return rec, nil
}

func (r *RefreshTokenRepo) Insert(ctx context.Context, rec domain.RefreshRecord) error {
	if rec.ID == "" || rec.UserID == "" || rec.TokenHash == "" {
		return domain.ErrMissingField("refresh_record")
	}

	const q = `
INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked)
VALUES ($1,$2,$3,$4,$5);
`
	if _, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.UserID, rec.TokenHash, rec.ExpiresAt, rec.Revoked,
	); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

func (r *RefreshTokenRepo) GetByHash(ctx context.Context, hash string) (domain.RefreshRecord, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return domain.RefreshRecord{}, domain.ErrMissingField("token_hash")
	}

	const q = `
SELECT ` + refreshColumns + `
FROM refresh_tokens
WHERE token_hash = $1
LIMIT 1;
`
	rec, err := scanRefreshRow(r.db.QueryRowContext(ctx, q, hash))
	if err != nil {
		if isNoRows(err) {
			return domain.RefreshRecord{}, domain.ErrRefreshTokenInvalid()
		}
		return domain.RefreshRecord{}, domain.ErrDBUnavailable(err)
	}
	return rec, nil
}

// MarkRevoked is idempotent: zero affected rows (unknown hash or already
// revoked) is not an error, so logout never leaks token existence.
func (r *RefreshTokenRepo) MarkRevoked(ctx context.Context, hash string) error {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil
	}

	const q = `
UPDATE refresh_tokens
SET revoked = TRUE
WHERE token_hash = $1;
`
	if _, err := r.db.ExecContext(ctx, q, hash); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

func (r *RefreshTokenRepo) Touch(ctx context.Context, hash string, when time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return domain.ErrMissingField("token_hash")
	}

	const q = `
UPDATE refresh_tokens
SET last_used_at = $2
WHERE token_hash = $1;
`
	if _, err := r.db.ExecContext(ctx, q, hash, when); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}
