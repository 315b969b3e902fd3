package memory

import (
	"context"
	"log"

	"github.com/identra/identra/internal/application/auth"
)

type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) PublishUserRegistered(ctx context.Context, evt auth.UserRegisteredEvent) error {
	log.Printf("[noop-pub] user registered: user_id=%s email=%s", evt.UserID, evt.Email)
	return nil
}

func (p *NoopPublisher) PublishUserLoggedIn(ctx context.Context, evt auth.UserLoggedInEvent) error {
	log.Printf("[noop-pub] user logged in: user_id=%s", evt.UserID)
	return nil
}

func (p *NoopPublisher) PublishTokensIssued(ctx context.Context, evt auth.TokensIssuedEvent) error {
	log.Printf("[noop-pub] tokens issued: user_id=%s client_id=%s", evt.UserID, evt.ClientID)
	return nil
}

func (p *NoopPublisher) PublishSessionRevoked(ctx context.Context, evt auth.SessionRevokedEvent) error {
	log.Printf("[noop-pub] session revoked: user_id=%s", evt.UserID)
	return nil
}
