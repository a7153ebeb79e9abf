package quotes

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

// CustomInput is a free-text document request.
type CustomInput struct {
	Name             string
	Email            string
	ContactNumber    string
	ResidenceCountry string
	DocRequest       string
}

// ServiceInput asks for a price on a catalog service.
type ServiceInput struct {
	ServiceID         uuid.UUID
	DeliveryOptionIDs []uuid.UUID
	Answers           []answers.Input
}

type QuoteDTO struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Type      enums.QuoteType `json:"type"`
	Status    string          `json:"status"`
	Custom    *CustomDetail   `json:"custom,omitempty"`
	Service   *ServiceDetail  `json:"service,omitempty"`
	Answers   []answers.View  `json:"answers,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type CustomDetail struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	ContactNumber    string `json:"contact_number"`
	ResidenceCountry string `json:"residence_country"`
	DocRequest       string `json:"doc_request"`
}

type ServiceDetail struct {
	ServiceID         uuid.UUID   `json:"service_id"`
	DeliveryOptionIDs []uuid.UUID `json:"delivery_option_ids"`
}

func newQuoteDTO(q models.Quote) QuoteDTO {
	dto := QuoteDTO{
		ID:        q.ID,
		UserID:    q.UserID,
		Type:      q.Type,
		Status:    q.Status,
		CreatedAt: q.CreatedAt,
	}
	if q.Custom != nil {
		dto.Custom = &CustomDetail{
			Name:             q.Custom.Name,
			Email:            q.Custom.Email,
			ContactNumber:    q.Custom.ContactNumber,
			ResidenceCountry: q.Custom.ResidenceCountry,
			DocRequest:       q.Custom.DocRequest,
		}
	}
	if q.Service != nil {
		ids := []uuid.UUID(q.Service.DeliveryOptionIDs)
		if ids == nil {
			ids = []uuid.UUID{}
		}
		dto.Service = &ServiceDetail{ServiceID: q.Service.ServiceID, DeliveryOptionIDs: ids}
	}
	return dto
}
