package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/catalog"
)

// AddItemInput is a single service line with its questionnaire answers.
type AddItemInput struct {
	ServiceID         uuid.UUID
	Quantity          *int
	DeliveryOptionIDs []uuid.UUID
	Answers           []answers.Input
}

// ItemView is a cart line expanded with live catalog data.
type ItemView struct {
	ID                uuid.UUID                   `json:"id"`
	CartID            uuid.UUID                   `json:"cart_id"`
	Quantity          int                         `json:"quantity"`
	DeliveryOptionIDs []uuid.UUID                 `json:"delivery_option_ids"`
	DeliveryOptions   []catalog.DeliveryOptionDTO `json:"delivery_options"`
	Service           catalog.ServiceDTO          `json:"service"`
	Answers           []answers.View              `json:"answers"`
	Subtotal          string                      `json:"subtotal"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`

	subtotal decimal.Decimal
}

// CartView is the whole cart with its grand total.
type CartView struct {
	CartID     uuid.UUID  `json:"cart_id"`
	UserID     uuid.UUID  `json:"user_id"`
	TotalItems int        `json:"total_items"`
	GrandTotal string     `json:"grand_total"`
	Items      []ItemView `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ItemRequirements lists what each line still needs from the customer.
type ItemRequirements struct {
	CartItemID        uuid.UUID                     `json:"cart_item_id"`
	ServiceID         uuid.UUID                     `json:"service_id"`
	ServiceTitle      string                        `json:"service_title"`
	Questions         []catalog.QuestionDTO         `json:"questions"`
	RequiredDocuments []catalog.RequiredDocumentDTO `json:"required_documents"`
}
