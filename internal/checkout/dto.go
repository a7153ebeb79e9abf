package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/visadesk-backend/internal/answers"
)

// ItemInput is one service the customer is buying.
type ItemInput struct {
	ServiceID         uuid.UUID
	Quantity          *int
	DeliveryOptionIDs []uuid.UUID
	Answers           []answers.Input
}

// Input is the checkout payload. Amount is the client's own total; it is only
// compared against the server total and never charged.
type Input struct {
	Items         []ItemInput
	Amount        *decimal.Decimal
	Email         string
	IsSouthAfrica bool
}

// IntentResult is returned once the order and payment intent exist.
type IntentResult struct {
	OrderID         uuid.UUID `json:"order_id"`
	Reference       string    `json:"reference"`
	TotalAmount     string    `json:"total_amount"`
	Currency        string    `json:"currency"`
	ClientSecret    string    `json:"client_secret"`
	PaymentIntentID string    `json:"payment_intent_id"`
}
