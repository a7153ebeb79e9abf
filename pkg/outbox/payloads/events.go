package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once the order, its items and answers commit.
type OrderCreatedEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	Reference       string    `json:"reference"`
	UserID          uuid.UUID `json:"user_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	TotalAmount     string    `json:"total_amount"`
	Currency        string    `json:"currency"`
	ItemCount       int       `json:"item_count"`
}

// OrderPaidEvent is emitted when the gateway reports a succeeded intent.
type OrderPaidEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	Reference       string    `json:"reference"`
	UserID          uuid.UUID `json:"user_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	PaidAt          time.Time `json:"paid_at"`
}

// OrderFailedEvent is emitted when the gateway cancels the intent.
type OrderFailedEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	UserID          uuid.UUID `json:"user_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	GatewayStatus   string    `json:"gateway_status"`
}

// OrderCompletedEvent is emitted when an admin completes a paid order.
type OrderCompletedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	Reference   string    `json:"reference"`
	UserID      uuid.UUID `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// QuoteRequestedEvent tells back office a new quote is waiting.
type QuoteRequestedEvent struct {
	QuoteID   uuid.UUID       `json:"quote_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Type      enums.QuoteType `json:"type"`
	ServiceID *uuid.UUID      `json:"service_id,omitempty"`
}

// NotificationRequestedEvent asks the notification worker to deliver a stored notification.
type NotificationRequestedEvent struct {
	NotificationID uuid.UUID              `json:"notification_id"`
	UserID         uuid.UUID              `json:"user_id"`
	Type           enums.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	OrderID        *uuid.UUID             `json:"order_id,omitempty"`
}
