package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/visadesk-backend/pkg/db/types"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

const QuoteStatusOpen = "open"

// Quote is a non-binding pricing request. Exactly one of Custom or Service is set.
type Quote struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	Type      enums.QuoteType `gorm:"column:type;type:text;not null"`
	Status    string          `gorm:"column:status;not null;default:'open'"`
	Custom    *CustomQuote    `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	Service   *ServiceQuote   `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (q *Quote) BeforeCreate(*gorm.DB) error {
	q.ID = ensureID(q.ID)
	return nil
}

// CustomQuote holds a free-text document request.
type CustomQuote struct {
	QuoteID          uuid.UUID `gorm:"column:quote_id;type:uuid;primaryKey"`
	Name             string    `gorm:"column:name;not null"`
	Email            string    `gorm:"column:email;not null"`
	ContactNumber    string    `gorm:"column:contact_number;not null"`
	ResidenceCountry string    `gorm:"column:residence_country;not null"`
	DocRequest       string    `gorm:"column:doc_request;type:text;not null"`
}

// ServiceQuote ties a quote to a catalog service. Answers are owned by the quote id.
type ServiceQuote struct {
	QuoteID           uuid.UUID         `gorm:"column:quote_id;type:uuid;primaryKey"`
	ServiceID         uuid.UUID         `gorm:"column:service_id;type:uuid;not null"`
	DeliveryOptionIDs dbtypes.UUIDArray `gorm:"column:delivery_option_ids;type:uuid[]"`
}
