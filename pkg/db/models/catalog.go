package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

// Category groups catalog services for browsing.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	c.ID = ensureID(c.ID)
	return nil
}

// Service is a purchasable document or visa offering. Price is authoritative.
type Service struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID     *uuid.UUID        `gorm:"column:category_id;type:uuid"`
	Title          string            `gorm:"column:title;not null"`
	Subtitle       *string           `gorm:"column:subtitle"`
	Description    *string           `gorm:"column:description"`
	Price          decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Type           enums.ServiceType `gorm:"column:type;type:text;not null"`
	OrderType      *string           `gorm:"column:order_type"`
	IsSouthAfrican bool              `gorm:"column:is_south_african;not null"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	s.ID = ensureID(s.ID)
	return nil
}

// Questionnaire is one dynamic question attached to a service.
type Questionnaire struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceID  uuid.UUID          `gorm:"column:service_id;type:uuid;not null"`
	Name       string             `gorm:"column:name;not null"`
	Kind       enums.QuestionKind `gorm:"column:kind;type:text;not null"`
	Options    pq.StringArray     `gorm:"column:options;type:text[]"`
	IsRequired bool               `gorm:"column:is_required;not null"`
	Position   int                `gorm:"column:position;not null"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (Questionnaire) TableName() string { return "questionnaires" }

func (q *Questionnaire) BeforeCreate(*gorm.DB) error {
	q.ID = ensureID(q.ID)
	return nil
}

// HasOption reports whether value is one of the dropdown choices.
func (q Questionnaire) HasOption(value string) bool {
	for _, option := range q.Options {
		if option == value {
			return true
		}
	}
	return false
}

// DeliveryOption is a priced delivery tier selectable per line.
type DeliveryOption struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceID uuid.UUID       `gorm:"column:service_id;type:uuid;not null"`
	Label     string          `gorm:"column:label;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (d *DeliveryOption) BeforeCreate(*gorm.DB) error {
	d.ID = ensureID(d.ID)
	return nil
}

// RequiredDocument lists paperwork the customer must provide for a service.
type RequiredDocument struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceID   uuid.UUID `gorm:"column:service_id;type:uuid;not null"`
	Title       string    `gorm:"column:title;not null"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *RequiredDocument) BeforeCreate(*gorm.DB) error {
	r.ID = ensureID(r.ID)
	return nil
}

func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
