package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/visadesk-backend/pkg/db/types"
)

// Cart is the single active cart of a user.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	c.ID = ensureID(c.ID)
	return nil
}

// CartItem references a service; its subtotal is always computed on read.
type CartItem struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID            uuid.UUID         `gorm:"column:cart_id;type:uuid;not null"`
	ServiceID         uuid.UUID         `gorm:"column:service_id;type:uuid;not null"`
	Quantity          int               `gorm:"column:quantity;not null"`
	DeliveryOptionIDs dbtypes.UUIDArray `gorm:"column:delivery_option_ids;type:uuid[]"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	i.ID = ensureID(i.ID)
	return nil
}
