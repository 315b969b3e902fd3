package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/identra/identra/internal/domain"
)

type AuthCodeRepo struct {
	db *sql.DB
}

func NewAuthCodeRepo(db *sql.DB) *AuthCodeRepo {
	return &AuthCodeRepo{db: db}
}

func (r *AuthCodeRepo) Insert(ctx context.Context, c domain.AuthCode) error {
	if c.Code == "" || c.UserID == "" || c.ClientID == "" || c.RedirectURI == "" {
		return domain.ErrMissingField("auth_code")
	}

	const q = `
INSERT INTO auth_codes (code, user_id, client_id, redirect_uri, expires_at, used)
VALUES ($1,$2,$3,$4,$5,$6);
`
	if _, err := r.db.ExecContext(ctx, q,
		c.Code, c.UserID, c.ClientID, c.RedirectURI, c.ExpiresAt, c.Used,
	); err != nil {
		if isUniqueViolation(err) {
			// 256-bit codes should never collide; the unique index is the
			// authority if one somehow does.
			return domain.ErrInternal(err)
		}
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

// GetByCode returns the full record including used and expires_at; policy
// stays with the caller.
func (r *AuthCodeRepo) GetByCode(ctx context.Context, code string) (domain.AuthCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.AuthCode{}, domain.ErrMissingField("code")
	}

	const q = `
SELECT code, user_id, client_id, redirect_uri, expires_at, used, created_at
FROM auth_codes
WHERE code = $1
LIMIT 1;
`
	var c domain.AuthCode
	err := r.db.QueryRowContext(ctx, q, code).Scan(
		&c.Code,
		&c.UserID,
		&c.ClientID,
		&c.RedirectURI,
		&c.ExpiresAt,
		&c.Used,
		&c.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return domain.AuthCode{}, domain.ErrInvalidGrant(domain.GrantReasonUnknownCode)
		}
		return domain.AuthCode{}, domain.ErrDBUnavailable(err)
	}
	return c, nil
}

// MarkUsed flips Fresh→Used conditionally. The WHERE used = FALSE clause
// makes the transition exclusive: of two racing exchanges only one sees an
// affected row.
func (r *AuthCodeRepo) MarkUsed(ctx context.Context, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, domain.ErrMissingField("code")
	}

	const q = `
UPDATE auth_codes
SET used = TRUE
WHERE code = $1 AND used = FALSE;
`
	res, err := r.db.ExecContext(ctx, q, code)
	if err != nil {
		return false, domain.ErrDBUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.ErrDBUnavailable(err)
	}
	return n == 1, nil
}
