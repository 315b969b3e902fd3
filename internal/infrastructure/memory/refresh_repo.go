package memory

import (
	"context"
	"sync"
	"time"

	"github.com/identra/identra/internal/domain"
)

type RefreshTokenRepo struct {
	mu     sync.RWMutex
	byHash map[string]domain.RefreshRecord
}

func NewRefreshTokenRepo() *RefreshTokenRepo {
	return &RefreshTokenRepo{byHash: make(map[string]domain.RefreshRecord)}
}

func (r *RefreshTokenRepo) Insert(ctx context.Context, rec domain.RefreshRecord) error {
	if rec.ID == "" || rec.TokenHash == "" {
		return domain.ErrMissingField("refresh_record")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byHash[rec.TokenHash] = rec
	return nil
}

func (r *RefreshTokenRepo) GetByHash(ctx context.Context, hash string) (domain.RefreshRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byHash[hash]
	if !ok {
		return domain.RefreshRecord{}, domain.ErrRefreshTokenInvalid()
	}
	return rec, nil
}

func (r *RefreshTokenRepo) MarkRevoked(ctx context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byHash[hash]
	if !ok {
		return nil // idempotent
	}
	rec.Revoked = true
	r.byHash[hash] = rec
	return nil
}

func (r *RefreshTokenRepo) Touch(ctx context.Context, hash string, when time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byHash[hash]
	if !ok {
		return nil
	}
	t := when
	rec.LastUsedAt = &t
	r.byHash[hash] = rec
	return nil
}
