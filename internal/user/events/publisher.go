package events

import (
	"context"

	"github.com/eczanem/pharmatrack-backend/internal/user/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
	"github.com/eczanem/pharmatrack-backend/pkg/messaging"
)

// UserEventPublisher publishes user lifecycle events
type UserEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewUserEventPublisher creates a new user event publisher
func NewUserEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*UserEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeUserEvents, "pharmatrack", log)
	if err != nil {
		return nil, err
	}

	return &UserEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishUserRegistered publishes a user registered event
func (p *UserEventPublisher) PublishUserRegistered(ctx context.Context, user *repository.User) {
	if p == nil {
		return
	}

	data := messaging.UserRegisteredEvent{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}

	if err := p.publisher.Publish(ctx, messaging.EventUserRegistered, data); err != nil {
		p.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to publish user registered event")
	}
}
