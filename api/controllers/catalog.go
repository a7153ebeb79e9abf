package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/visadesk-backend/api/responses"
	"github.com/angelmondragon/visadesk-backend/api/validators"
	"github.com/angelmondragon/visadesk-backend/internal/catalog"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/pagination"
)

// ListServices returns the public catalog filtered by category, region, type and search.
func ListServices(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		filter, err := parseServiceFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListServices(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// GetService returns one service with its delivery options.
func GetService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		serviceID, err := validators.ParseUUIDParam(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		service, err := svc.GetService(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		options, err := svc.ListDeliveryOptions(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery := make([]catalog.DeliveryOptionDTO, 0, len(options))
		for _, option := range options {
			delivery = append(delivery, catalog.NewDeliveryOptionDTO(option))
		}
		responses.WriteSuccess(w, map[string]any{
			"service":          catalog.NewServiceDTO(*service),
			"delivery_options": delivery,
		})
	}
}

// ServiceQuestions returns the questionnaire and document checklist for a service.
func ServiceQuestions(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		serviceID, err := validators.ParseUUIDParam(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requirements, err := svc.ServiceRequirements(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requirements)
	}
}

func parseServiceFilter(r *http.Request) (catalog.ServiceFilter, error) {
	query := r.URL.Query()
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return catalog.ServiceFilter{}, err
	}
	filter := catalog.ServiceFilter{
		Search: validators.SanitizeString(query.Get("search"), 120),
		Limit:  limit,
		Cursor: strings.TrimSpace(query.Get("cursor")),
	}

	if filter.CategoryID, err = validators.ParseQueryUUID(r, "category_id"); err != nil {
		return catalog.ServiceFilter{}, err
	}
	if filter.SouthAfrican, err = validators.ParseQueryBool(r, "is_south_african"); err != nil {
		return catalog.ServiceFilter{}, err
	}
	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		serviceType, err := enums.ParseServiceType(raw)
		if err != nil {
			return catalog.ServiceFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type").WithDetails(map[string]any{"type": "must be checkout or quote"})
		}
		filter.Type = &serviceType
	}
	return filter, nil
}
