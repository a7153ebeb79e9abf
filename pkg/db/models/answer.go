package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

// Answer stores one questionnaire response owned by exactly one cart item,
// order item or service quote.
type Answer struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	OwnerType       enums.AnswerOwnerKind `gorm:"column:owner_type;type:text;not null"`
	OwnerID         uuid.UUID             `gorm:"column:owner_id;type:uuid;not null"`
	QuestionnaireID uuid.UUID             `gorm:"column:questionnaire_id;type:uuid;not null"`
	ValueKind       enums.AnswerValueKind `gorm:"column:value_kind;type:text;not null"`
	Value           string                `gorm:"column:value;type:text;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (a *Answer) BeforeCreate(*gorm.DB) error {
	a.ID = ensureID(a.ID)
	return nil
}
