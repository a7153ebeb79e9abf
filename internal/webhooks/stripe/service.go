package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/visadesk-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
)

type orderConfirmer interface {
	Confirm(ctx context.Context, paymentIntentID string) (*orders.Confirmation, error)
}

// Service turns payment intent events into order confirmations. The event
// body is only used to find the intent id; Confirm re-reads the status from
// Stripe so a forged or stale payload cannot settle an order.
type Service struct {
	orders orderConfirmer
	logg   *logger.Logger
}

func NewService(confirmer orderConfirmer, logg *logger.Logger) (*Service, error) {
	if confirmer == nil {
		return nil, fmt.Errorf("order confirmer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{orders: confirmer, logg: logg}, nil
}

// Handles reports whether the event type drives order settlement.
func Handles(eventType stripe.EventType) bool {
	switch eventType {
	case stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentPaymentFailed,
		stripe.EventTypePaymentIntentCanceled:
		return true
	}
	return false
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"stripe_event_id":   event.ID,
		"stripe_event_type": string(event.Type),
	})
	if !Handles(event.Type) {
		s.logg.Info(ctx, "stripe event ignored")
		return nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}
	if intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	ctx = s.logg.WithPaymentIntentID(ctx, intent.ID)

	result, err := s.orders.Confirm(ctx, intent.ID)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		// Intents created outside checkout have no order.
		s.logg.Warn(ctx, "no order for payment intent")
		return nil
	}
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":       result.Order.ID.String(),
		"paid":           result.Paid,
		"gateway_status": result.GatewayStatus,
	}), "stripe event applied")
	return nil
}
