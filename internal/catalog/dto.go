package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

// Money renders amounts with two fixed decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type ServiceDTO struct {
	ID             uuid.UUID         `json:"id"`
	CategoryID     *uuid.UUID        `json:"category_id,omitempty"`
	Title          string            `json:"title"`
	Subtitle       *string           `json:"subtitle,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Price          string            `json:"price"`
	Type           enums.ServiceType `json:"type"`
	OrderType      *string           `json:"order_type,omitempty"`
	IsSouthAfrican bool              `json:"is_south_african"`
	CreatedAt      time.Time         `json:"created_at"`
}

func NewServiceDTO(m models.Service) ServiceDTO {
	return ServiceDTO{
		ID:             m.ID,
		CategoryID:     m.CategoryID,
		Title:          m.Title,
		Subtitle:       m.Subtitle,
		Description:    m.Description,
		Price:          Money(m.Price),
		Type:           m.Type,
		OrderType:      m.OrderType,
		IsSouthAfrican: m.IsSouthAfrican,
		CreatedAt:      m.CreatedAt,
	}
}

type QuestionDTO struct {
	ID         uuid.UUID          `json:"id"`
	Name       string             `json:"name"`
	Kind       enums.QuestionKind `json:"kind"`
	Options    []string           `json:"options,omitempty"`
	IsRequired bool               `json:"is_required"`
	Position   int                `json:"position"`
}

func NewQuestionDTO(m models.Questionnaire) QuestionDTO {
	return QuestionDTO{
		ID:         m.ID,
		Name:       m.Name,
		Kind:       m.Kind,
		Options:    []string(m.Options),
		IsRequired: m.IsRequired,
		Position:   m.Position,
	}
}

type DeliveryOptionDTO struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Price string    `json:"price"`
}

func NewDeliveryOptionDTO(m models.DeliveryOption) DeliveryOptionDTO {
	return DeliveryOptionDTO{ID: m.ID, Label: m.Label, Price: Money(m.Price)}
}

type RequiredDocumentDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
}

func NewRequiredDocumentDTO(m models.RequiredDocument) RequiredDocumentDTO {
	return RequiredDocumentDTO{ID: m.ID, Title: m.Title, Description: m.Description}
}

// Requirements bundles what a customer has to answer and provide for a service.
type Requirements struct {
	Service           ServiceDTO            `json:"service"`
	Questions         []QuestionDTO         `json:"questions"`
	RequiredDocuments []RequiredDocumentDTO `json:"required_documents"`
	DeliveryOptions   []DeliveryOptionDTO   `json:"delivery_options"`
}

func mapSlice[M any, D any](rows []M, fn func(M) D) []D {
	out := make([]D, 0, len(rows))
	for _, row := range rows {
		out = append(out, fn(row))
	}
	return out
}
