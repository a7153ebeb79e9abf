package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

// Order is the binding record created at checkout.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference       string            `gorm:"column:reference;not null;uniqueIndex"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency        string            `gorm:"column:currency;not null"`
	IsSouthAfrica   bool              `gorm:"column:is_south_africa;not null"`
	PaymentIntentID string            `gorm:"column:payment_intent_id;not null;uniqueIndex"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null"`
	PaidAt          *time.Time        `gorm:"column:paid_at"`
	CompletedAt     *time.Time        `gorm:"column:completed_at"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	o.ID = ensureID(o.ID)
	return nil
}

// OrderItem snapshots the service title and price at order time.
type OrderItem struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID                 `gorm:"column:order_id;type:uuid;not null"`
	ServiceID       uuid.UUID                 `gorm:"column:service_id;type:uuid;not null"`
	ServiceTitle    string                    `gorm:"column:service_title;not null"`
	Quantity        int                       `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal           `gorm:"column:unit_price;type:numeric(12,2);not null"`
	DeliveryTotal   decimal.Decimal           `gorm:"column:delivery_total;type:numeric(12,2);not null"`
	Subtotal        decimal.Decimal           `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryOptions []OrderItemDeliveryOption `gorm:"foreignKey:OrderItemID"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	i.ID = ensureID(i.ID)
	return nil
}

// OrderItemDeliveryOption is the join row between an order item and a delivery option.
type OrderItemDeliveryOption struct {
	OrderItemID      uuid.UUID       `gorm:"column:order_item_id;type:uuid;primaryKey"`
	DeliveryOptionID uuid.UUID       `gorm:"column:delivery_option_id;type:uuid;primaryKey"`
	Label            string          `gorm:"column:label;not null"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}

// Transaction audits one checkout attempt against the payment gateway.
type Transaction struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	PaymentIntentID string              `gorm:"column:payment_intent_id;not null"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency        string              `gorm:"column:currency;not null"`
	GatewayStatus   string              `gorm:"column:gateway_status;not null"`
	CheckoutState   enums.CheckoutState `gorm:"column:checkout_state;type:text;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	t.ID = ensureID(t.ID)
	return nil
}
