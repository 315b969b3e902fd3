package memory

import (
	"context"
	"sync"
	"time"

	"github.com/identra/identra/internal/domain"
)

type AuthCodeRepo struct {
	mu     sync.Mutex
	byCode map[string]domain.AuthCode
}

func NewAuthCodeRepo() *AuthCodeRepo {
	return &AuthCodeRepo{byCode: make(map[string]domain.AuthCode)}
}

func (r *AuthCodeRepo) Insert(ctx context.Context, c domain.AuthCode) error {
	if c.Code == "" {
		return domain.ErrMissingField("code")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[c.Code]; exists {
		return domain.ErrInternal(nil)
	}
	r.byCode[c.Code] = c
	return nil
}

func (r *AuthCodeRepo) GetByCode(ctx context.Context, code string) (domain.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byCode[code]
	if !ok {
		return domain.AuthCode{}, domain.ErrInvalidGrant(domain.GrantReasonUnknownCode)
	}
	return c, nil
}

// MarkUsed flips the code under the lock; only the first caller sees true.
func (r *AuthCodeRepo) MarkUsed(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byCode[code]
	if !ok || c.Used {
		return false, nil
	}
	c.Used = true
	r.byCode[code] = c
	return true, nil
}
