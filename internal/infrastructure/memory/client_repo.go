package memory

import (
	"context"
	"sync"

	"github.com/identra/identra/internal/domain"
)

type ClientRepo struct {
	mu         sync.RWMutex
	byClientID map[string]domain.Client
}

func NewClientRepo() *ClientRepo {
	return &ClientRepo{byClientID: make(map[string]domain.Client)}
}

func (r *ClientRepo) GetByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byClientID[clientID]
	if !ok {
		return domain.Client{}, domain.ErrUnknownClient()
	}
	return c, nil
}

func (r *ClientRepo) Create(ctx context.Context, c domain.Client) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byClientID[c.ClientID]; exists {
		return domain.Client{}, domain.New(domain.KindConflict, "client_exists", "client already registered")
	}
	r.byClientID[c.ClientID] = c
	return c, nil
}
