package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	"github.com/angelmondragon/visadesk-backend/pkg/pagination"
)

type View struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	OrderID   *uuid.UUID             `json:"order_id,omitempty"`
	Read      bool                   `json:"read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func NewView(n models.Notification) View {
	return View{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		OrderID:   n.OrderID,
		Read:      n.ReadAt != nil,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// NewViewPage maps a page of rows without touching its cursor.
func NewViewPage(page pagination.Page[models.Notification]) pagination.Page[View] {
	items := make([]View, 0, len(page.Items))
	for _, n := range page.Items {
		items = append(items, NewView(n))
	}
	return pagination.Page[View]{Items: items, NextCursor: page.NextCursor}
}
