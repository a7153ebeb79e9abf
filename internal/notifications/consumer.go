package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox/payloads"
)

// DispatchConsumer names the idempotency scope of this consumer.
const DispatchConsumer = "notification-dispatch"

type dispatcher interface {
	MarkDispatched(ctx context.Context, notificationID uuid.UUID) (bool, error)
}

type eventClaims interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// Consumer drains notification_requested events and marks the stored rows dispatched.
type Consumer struct {
	notifications dispatcher
	subscription  *pubsub.Subscriber
	claims        eventClaims
	logg          *logger.Logger
}

// NewConsumer builds a notification dispatch consumer.
func NewConsumer(notifications dispatcher, subscription *pubsub.Subscriber, claims eventClaims, logg *logger.Logger) (*Consumer, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if claims == nil {
		return nil, fmt.Errorf("event claims required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		notifications: notifications,
		subscription:  subscription,
		claims:        claims,
		logg:          logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, attributes map[string]string, data []byte) processResult {
	eventType := attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	claimed, err := c.claims.Claim(ctx, eventID.String())
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !claimed {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.NotificationRequestedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		c.release(logCtx, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"notification_id": payload.NotificationID.String(),
		"user_id":         payload.UserID.String(),
		"type":            payload.Type,
	})

	updated, err := c.notifications.MarkDispatched(ctx, payload.NotificationID)
	if err != nil {
		c.logg.Error(logCtx, "mark dispatched failed", err)
		c.release(logCtx, eventID)
		return processResult{nack: true}
	}
	if !updated {
		c.logg.Warn(logCtx, "notification missing or already dispatched")
		return processResult{ack: true}
	}
	c.logg.Info(logCtx, "notification dispatched")
	return processResult{ack: true}
}

func (c *Consumer) release(ctx context.Context, eventID uuid.UUID) {
	if err := c.claims.Release(ctx, eventID.String()); err != nil {
		c.logg.Error(ctx, "release event claim failed", err)
	}
}
