package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to users.
type Notification struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	Type         enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title        string                 `gorm:"column:title;type:text;not null"`
	Body         string                 `gorm:"column:body;type:text;not null"`
	OrderID      *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	ReadAt       *time.Time             `gorm:"column:read_at"`
	DispatchedAt *time.Time             `gorm:"column:dispatched_at"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	n.ID = ensureID(n.ID)
	return nil
}
