package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/catalog"
	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

// OrderDTO is the API view of an order.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	Reference       string            `json:"reference"`
	UserID          uuid.UUID         `json:"user_id"`
	TotalAmount     string            `json:"total_amount"`
	Currency        string            `json:"currency"`
	IsSouthAfrica   bool              `json:"is_south_africa"`
	PaymentIntentID string            `json:"payment_intent_id"`
	Status          enums.OrderStatus `json:"status"`
	PaidAt          *time.Time        `json:"paid_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Items           []OrderItemDTO    `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// OrderItemDTO carries the price snapshot taken at checkout.
type OrderItemDTO struct {
	ID              uuid.UUID           `json:"id"`
	ServiceID       uuid.UUID           `json:"service_id"`
	ServiceTitle    string              `json:"service_title"`
	Quantity        int                 `json:"quantity"`
	UnitPrice       string              `json:"unit_price"`
	DeliveryTotal   string              `json:"delivery_total"`
	Subtotal        string              `json:"subtotal"`
	DeliveryOptions []DeliveryOptionDTO `json:"delivery_options"`
	Answers         []answers.View      `json:"answers,omitempty"`
}

type DeliveryOptionDTO struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Price string    `json:"price"`
}

// Confirmation reports the outcome of a payment confirmation.
type Confirmation struct {
	Order         OrderDTO `json:"order"`
	Paid          bool     `json:"paid"`
	GatewayStatus string   `json:"gateway_status"`
}

// NewOrderDTO maps an order and whichever items were preloaded.
func NewOrderDTO(order models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		Reference:       order.Reference,
		UserID:          order.UserID,
		TotalAmount:     catalog.Money(order.TotalAmount),
		Currency:        order.Currency,
		IsSouthAfrica:   order.IsSouthAfrica,
		PaymentIntentID: order.PaymentIntentID,
		Status:          order.Status,
		PaidAt:          order.PaidAt,
		CompletedAt:     order.CompletedAt,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, newOrderItemDTO(item))
	}
	return dto
}

func newOrderItemDTO(item models.OrderItem) OrderItemDTO {
	out := OrderItemDTO{
		ID:              item.ID,
		ServiceID:       item.ServiceID,
		ServiceTitle:    item.ServiceTitle,
		Quantity:        item.Quantity,
		UnitPrice:       catalog.Money(item.UnitPrice),
		DeliveryTotal:   catalog.Money(item.DeliveryTotal),
		Subtotal:        catalog.Money(item.Subtotal),
		DeliveryOptions: make([]DeliveryOptionDTO, 0, len(item.DeliveryOptions)),
	}
	for _, opt := range item.DeliveryOptions {
		out.DeliveryOptions = append(out.DeliveryOptions, DeliveryOptionDTO{
			ID:    opt.DeliveryOptionID,
			Label: opt.Label,
			Price: catalog.Money(opt.Price),
		})
	}
	return out
}
