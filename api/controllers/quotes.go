package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/visadesk-backend/api/middleware"
	"github.com/angelmondragon/visadesk-backend/api/responses"
	"github.com/angelmondragon/visadesk-backend/api/validators"
	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/quotes"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
)

type customQuoteRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	ContactNumber    string `json:"contact_number"`
	ResidenceCountry string `json:"residence_country"`
	DocRequest       string `json:"doc_request"`
}

type serviceQuoteRequest struct {
	ServiceID          uuid.UUID       `json:"service_id"`
	DeliveryDetailsIDs []uuid.UUID     `json:"delivery_details_ids"`
	DeliveryIDs        []uuid.UUID     `json:"delivery_ids"`
	Answers            []answers.Input `json:"answers"`
}

// CreateCustomQuote records a free-text document request. Required fields are
// checked by the quotes service so every missing field is reported at once.
func CreateCustomQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotes service unavailable"))
			return
		}
		var payload customQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.CreateCustomQuote(r.Context(), middleware.UserUUIDFromContext(r.Context()), quotes.CustomInput{
			Name:             payload.Name,
			Email:            payload.Email,
			ContactNumber:    payload.ContactNumber,
			ResidenceCountry: payload.ResidenceCountry,
			DocRequest:       payload.DocRequest,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "Quote requested", quote)
	}
}

// CreateServiceQuote asks for a price on a quote-type service. Accepts JSON or
// a multipart form carrying answer files.
func CreateServiceQuote(svc quotes.Service, stager fileStager, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotes service unavailable"))
			return
		}
		userID := middleware.UserUUIDFromContext(r.Context())

		var input quotes.ServiceInput
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
			if input.DeliveryOptionIDs, err = formDeliveryIDs(form); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if input.Answers, err = formAnswers(r.Context(), stager, userID, form); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else {
			var payload serviceQuoteRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input = quotes.ServiceInput{
				ServiceID:         payload.ServiceID,
				DeliveryOptionIDs: deliveryIDs(payload.DeliveryDetailsIDs, payload.DeliveryIDs),
				Answers:           payload.Answers,
			}
		}

		quote, err := svc.CreateServiceQuote(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "Quote requested", quote)
	}
}

func AdminListCustomQuotes(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotes service unavailable"))
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListCustom(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminListServiceQuotes(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotes service unavailable"))
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListService(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminGetQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotes service unavailable"))
			return
		}
		quoteID, err := validators.ParseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.Get(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// AdminDeleteQuote removes a quote together with its answers and uploaded files.
func AdminDeleteQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotes service unavailable"))
			return
		}
		quoteID, err := validators.ParseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), quoteID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Quote deleted", nil)
	}
}
