package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/visadesk-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
)

type stubConfirmer struct {
	err   error
	calls []string
}

func (c *stubConfirmer) Confirm(_ context.Context, paymentIntentID string) (*orders.Confirmation, error) {
	c.calls = append(c.calls, paymentIntentID)
	if c.err != nil {
		return nil, c.err
	}
	return &orders.Confirmation{Order: orders.OrderDTO{ID: uuid.New()}, Paid: true, GatewayStatus: "succeeded"}, nil
}

func newService(t *testing.T, confirmer *stubConfirmer) *Service {
	t.Helper()
	svc, err := NewService(confirmer, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func intentEvent(t *testing.T, eventType stripe.EventType, intentID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(&stripe.PaymentIntent{ID: intentID, Status: stripe.PaymentIntentStatusSucceeded})
	require.NoError(t, err)
	return &stripe.Event{ID: "evt_" + uuid.NewString(), Type: eventType, Data: &stripe.EventData{Raw: raw}}
}

func TestHandleEventConfirmsPaymentIntents(t *testing.T) {
	for _, eventType := range []stripe.EventType{
		stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentPaymentFailed,
		stripe.EventTypePaymentIntentCanceled,
	} {
		t.Run(string(eventType), func(t *testing.T) {
			confirmer := &stubConfirmer{}
			svc := newService(t, confirmer)
			require.NoError(t, svc.HandleEvent(context.Background(), intentEvent(t, eventType, "pi_123")))
			assert.Equal(t, []string{"pi_123"}, confirmer.calls)
		})
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	confirmer := &stubConfirmer{}
	svc := newService(t, confirmer)
	require.NoError(t, svc.HandleEvent(context.Background(), intentEvent(t, stripe.EventTypeChargeRefunded, "pi_123")))
	assert.Empty(t, confirmer.calls)
}

func TestHandleEventToleratesUnknownIntent(t *testing.T) {
	confirmer := &stubConfirmer{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	svc := newService(t, confirmer)
	assert.NoError(t, svc.HandleEvent(context.Background(), intentEvent(t, stripe.EventTypePaymentIntentSucceeded, "pi_other")))
}

func TestHandleEventPropagatesConfirmErrors(t *testing.T) {
	boom := pkgerrors.Wrap(pkgerrors.CodeGateway, errors.New("timeout"), "retrieve payment intent")
	confirmer := &stubConfirmer{err: boom}
	svc := newService(t, confirmer)
	err := svc.HandleEvent(context.Background(), intentEvent(t, stripe.EventTypePaymentIntentSucceeded, "pi_123"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGateway))
}

func TestHandleEventRejectsMalformedPayload(t *testing.T) {
	svc := newService(t, &stubConfirmer{})
	event := &stripe.Event{Type: stripe.EventTypePaymentIntentSucceeded, Data: &stripe.EventData{Raw: json.RawMessage(`{}`)}}
	err := svc.HandleEvent(context.Background(), event)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = svc.HandleEvent(context.Background(), &stripe.Event{Type: stripe.EventTypePaymentIntentSucceeded})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
