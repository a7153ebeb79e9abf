package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
)

// IntentStatus mirrors the payment intent status reported by Stripe.
type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresCapture       IntentStatus = "requires_capture"
	IntentCanceled              IntentStatus = "canceled"
	IntentSucceeded             IntentStatus = "succeeded"
)

// Succeeded reports whether funds were captured.
func (s IntentStatus) Succeeded() bool {
	return s == IntentSucceeded
}

// Failed reports whether the intent can no longer succeed.
func (s IntentStatus) Failed() bool {
	return s == IntentCanceled
}

// Intent is the gateway-neutral view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	AmountMinor  int64
	Currency     string
}

type intentsAPI interface {
	Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	Retrieve(ctx context.Context, id string, params *stripe.PaymentIntentRetrieveParams) (*stripe.PaymentIntent, error)
}

// Gateway creates and retrieves payment intents through one keyed client.
type Gateway struct {
	intents intentsAPI
}

// NewGateway wraps the configured client's payment intent service.
func NewGateway(client *Client) (*Gateway, error) {
	if client == nil || client.API() == nil {
		return nil, errors.New("stripe client required")
	}
	return &Gateway{intents: client.API().V1PaymentIntents}, nil
}

// CreateIntent opens an intent for amountMinor in the given currency with
// automatic payment methods enabled.
func (g *Gateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	if amountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(strings.TrimSpace(currency))),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata,
	}
	pi, err := g.intents.Create(ctx, params)
	if err != nil {
		return nil, gatewayError(err, "create payment intent")
	}
	return toIntent(pi), nil
}

// RetrieveIntent fetches the current status of an intent.
func (g *Gateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment_intent_id is required")
	}
	pi, err := g.intents.Retrieve(ctx, id, &stripe.PaymentIntentRetrieveParams{})
	if err != nil {
		return nil, gatewayError(err, "retrieve payment intent")
	}
	return toIntent(pi), nil
}

// ToMinorUnits converts a decimal amount into the smallest currency unit.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	if pi == nil {
		return &Intent{}
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       IntentStatus(pi.Status),
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
	}
}

// gatewayError keeps the provider message visible to the caller.
func gatewayError(err error, op string) error {
	msg := op + " failed"
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && strings.TrimSpace(stripeErr.Msg) != "" {
		msg = stripeErr.Msg
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, msg)
}
