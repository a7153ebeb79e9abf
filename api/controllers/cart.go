package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/visadesk-backend/api/middleware"
	"github.com/angelmondragon/visadesk-backend/api/responses"
	"github.com/angelmondragon/visadesk-backend/api/validators"
	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
)

type cartAddRequest struct {
	ServiceID          uuid.UUID       `json:"service_id"`
	Quantity           *int            `json:"quantity"`
	DeliveryDetailsIDs []uuid.UUID     `json:"delivery_details_ids"`
	DeliveryIDs        []uuid.UUID     `json:"delivery_ids"`
	Answers            []answers.Input `json:"answers"`
}

type cartUpdateRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartGet returns the caller's cart, or a null payload when it is empty.
func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		view, err := svc.GetCart(r.Context(), middleware.UserUUIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if view == nil {
			responses.WriteMessage(w, http.StatusOK, "Cart is empty", nil)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAdd adds one service line. It accepts JSON or a multipart form whose
// answers[<question_id>] parts may carry files.
func CartAdd(svc cart.Service, stager fileStager, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID := middleware.UserUUIDFromContext(r.Context())

		var input cart.AddItemInput
		if validators.IsMultipart(r) {
			form, err := validators.ParseMultipart(w, r, MaxFormBytes(maxUploadBytes))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			defer form.RemoveAll()

			serviceIDs, err := validators.ParseUUIDs("service_id", []string{validators.FormValue(form, "service_id")})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if len(serviceIDs) == 1 {
				input.ServiceID = serviceIDs[0]
			}
			if input.Quantity, err = formQuantity(form); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if input.DeliveryOptionIDs, err = formDeliveryIDs(form); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if input.Answers, err = formAnswers(r.Context(), stager, userID, form); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else {
			var payload cartAddRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input = cart.AddItemInput{
				ServiceID:         payload.ServiceID,
				Quantity:          payload.Quantity,
				DeliveryOptionIDs: deliveryIDs(payload.DeliveryDetailsIDs, payload.DeliveryIDs),
				Answers:           payload.Answers,
			}
		}

		item, err := svc.AddItem(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "Item added to cart", item)
	}
}

func CartUpdate(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cartUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), middleware.UserUUIDFromContext(r.Context()), itemID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Cart item updated", item)
	}
}

func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveItem(r.Context(), middleware.UserUUIDFromContext(r.Context()), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Cart item removed", nil)
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		if err := svc.ClearCart(r.Context(), middleware.UserUUIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Cart cleared", nil)
	}
}

// CartRequirements lists the questions and documents each cart line needs.
func CartRequirements(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		requirements, err := svc.Requirements(r.Context(), middleware.UserUUIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requirements)
	}
}
