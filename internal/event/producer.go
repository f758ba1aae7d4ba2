package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/epten08/go-rest-api/internal/domain"
	pkgkafka "github.com/epten08/go-rest-api/pkg/kafka"
)

// Kafka topic constants for user domain events.
const (
	TopicUserRegistered    = "api.user.registered"
	TopicUserVerified      = "api.user.verified"
	TopicUserUpdated       = "api.user.updated"
	TopicUserPasswordReset = "api.user.password_reset"
)

const aggregateTypeUser = "user"

const sourceAPI = "go-rest-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserVerifiedData is the payload for a user.verified event.
type UserVerifiedData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserUpdatedData is the payload for a user.updated event.
type UserUpdatedData struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

// UserPasswordResetData is the payload for a user.password_reset event.
type UserPasswordResetData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Publisher publishes user domain events. Implementations must treat
// publishing as best-effort; callers log failures and move on.
type Publisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserVerified(ctx context.Context, userID, email string) error
	PublishUserUpdated(ctx context.Context, user *domain.User) error
	PublishUserPasswordReset(ctx context.Context, userID, email string) error
}

// Producer publishes user domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	return p.publish(ctx, TopicUserRegistered, user.ID, data)
}

// PublishUserVerified publishes a user.verified event.
func (p *Producer) PublishUserVerified(ctx context.Context, userID, email string) error {
	return p.publish(ctx, TopicUserVerified, userID, UserVerifiedData{ID: userID, Email: email})
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	data := UserUpdatedData{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	}
	return p.publish(ctx, TopicUserUpdated, user.ID, data)
}

// PublishUserPasswordReset publishes a user.password_reset event.
func (p *Producer) PublishUserPasswordReset(ctx context.Context, userID, email string) error {
	return p.publish(ctx, TopicUserPasswordReset, userID, UserPasswordResetData{UserID: userID, Email: email})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateTypeUser, sourceAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
