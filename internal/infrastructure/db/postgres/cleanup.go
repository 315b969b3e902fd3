package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/identra/identra/internal/logger"
)

// Cleaner periodically purges rows the token flows no longer need: expired
// or used authorization codes and refresh records past their expiry.
type Cleaner struct {
	db *sql.DB
}

func NewCleaner(db *sql.DB) *Cleaner {
	return &Cleaner{db: db}
}

// Start launches the background sweep. It runs once immediately, then every
// hour until ctx is cancelled.
func (c *Cleaner) Start(ctx context.Context) {
	go func() {
		log := logger.Logger.With().Str("component", "token_cleanup").Logger()
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		c.sweep(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopped")
				return
			case <-ticker.C:
				c.sweep(ctx)
			}
		}
	}()
}

func (c *Cleaner) sweep(ctx context.Context) {
	c.purge(ctx, "auth_codes",
		`DELETE FROM auth_codes WHERE used = TRUE OR expires_at < NOW()`)
	c.purge(ctx, "refresh_tokens",
		`DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
}

func (c *Cleaner) purge(ctx context.Context, table, query string) {
	res, err := c.db.ExecContext(ctx, query)
	if err != nil {
		logger.Logger.Warn().Err(err).Str("table", table).Msg("token cleanup failed")
		return
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		logger.Logger.Info().Int64("deleted", n).Str("table", table).Msg("expired rows cleaned up")
	}
}
