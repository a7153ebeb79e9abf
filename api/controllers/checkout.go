package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/visadesk-backend/api/middleware"
	"github.com/angelmondragon/visadesk-backend/api/responses"
	"github.com/angelmondragon/visadesk-backend/api/validators"
	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/checkout"
	"github.com/angelmondragon/visadesk-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
)

type checkoutItemRequest struct {
	ServiceID          uuid.UUID       `json:"service_id"`
	Quantity           *int            `json:"quantity"`
	DeliveryDetailsIDs []uuid.UUID     `json:"delivery_details_ids"`
	DeliveryIDs        []uuid.UUID     `json:"delivery_ids"`
	Answers            []answers.Input `json:"answers"`
}

type checkoutRequest struct {
	Amount        *decimal.Decimal      `json:"amount"`
	IsSouthAfrica bool                  `json:"is_south_africa"`
	Items         []checkoutItemRequest `json:"items" validate:"required,min=1"`
}

type confirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

// CheckoutCreateIntent prices the submitted items, opens a payment intent and
// records the pending order.
func CheckoutCreateIntent(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkout.Input{
			Amount:        payload.Amount,
			Email:         middleware.EmailFromContext(r.Context()),
			IsSouthAfrica: payload.IsSouthAfrica,
			Items:         make([]checkout.ItemInput, 0, len(payload.Items)),
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, checkout.ItemInput{
				ServiceID:         item.ServiceID,
				Quantity:          item.Quantity,
				DeliveryOptionIDs: deliveryIDs(item.DeliveryDetailsIDs, item.DeliveryIDs),
				Answers:           item.Answers,
			})
		}

		result, err := svc.CreateIntent(r.Context(), middleware.UserUUIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "Payment intent created", result)
	}
}

// CheckoutConfirm re-reads the payment intent and settles its order. Callers
// may only confirm their own orders unless they are admins.
func CheckoutConfirm(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.ConfirmForUser(ctx, middleware.UserUUIDFromContext(ctx), middleware.RoleFromContext(ctx), payload.PaymentIntentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		message := "Payment pending"
		if result.Paid {
			message = "Payment confirmed"
		}
		responses.WriteMessage(w, http.StatusOK, message, result)
	}
}
