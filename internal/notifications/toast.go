package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/nutritrack-backend/pkg/logger"
)

// Toaster receives the new-notification signal for every accepted add.
type Toaster interface {
	Toast(ctx context.Context, n Notification) error
}

// LogToaster writes toasts to the structured log.
type LogToaster struct {
	logg *logger.Logger
}

func NewLogToaster(logg *logger.Logger) *LogToaster {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogToaster{logg: logg}
}

func (t *LogToaster) Toast(ctx context.Context, n Notification) error {
	ctx = t.logg.WithFields(ctx, map[string]any{
		"event":           "notification.toast",
		"notification_id": n.ID,
		"type":            n.Type.String(),
	})
	t.logg.Info(ctx, n.Message)
	return nil
}

type publisher interface {
	Publish(ctx context.Context, channel string, message any) (int64, error)
	ToastChannel(userID string) string
}

// RedisToaster publishes toasts on the user's pub/sub channel for a UI gateway to relay.
type RedisToaster struct {
	client  publisher
	channel string
}

func NewRedisToaster(client publisher, userID string) (*RedisToaster, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}
	return &RedisToaster{client: client, channel: client.ToastChannel(userID)}, nil
}

func (t *RedisToaster) Toast(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode toast: %w", err)
	}
	if _, err := t.client.Publish(ctx, t.channel, string(payload)); err != nil {
		return fmt.Errorf("publish toast: %w", err)
	}
	return nil
}

// MultiToaster fans a toast out to every toaster and combines their errors.
type MultiToaster []Toaster

func (m MultiToaster) Toast(ctx context.Context, n Notification) error {
	var errs error
	for _, t := range m {
		if t == nil {
			continue
		}
		errs = multierr.Append(errs, t.Toast(ctx, n))
	}
	return errs
}

// NewToasterFactory logs every toast and, when pub is non-nil, also publishes it.
func NewToasterFactory(logg *logger.Logger, pub publisher) ToasterFactory {
	return func(userID uuid.UUID) (Toaster, error) {
		toasters := MultiToaster{NewLogToaster(logg)}
		if pub != nil {
			rt, err := NewRedisToaster(pub, userID.String())
			if err != nil {
				return nil, err
			}
			toasters = append(toasters, rt)
		}
		return toasters, nil
	}
}
