package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/visadesk-backend/pkg/pagination"
)

// Input describes a notification raised by a domain service.
type Input struct {
	UserID  uuid.UUID
	Type    enums.NotificationType
	Title   string
	Body    string
	OrderID *uuid.UUID
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// Service defines notification write, list and read operations.
type Service interface {
	// Notify stores the row and queues a notification_requested event on tx.
	Notify(ctx context.Context, tx *gorm.DB, input Input) (*models.Notification, error)
	List(ctx context.Context, params ListParams) (pagination.Page[models.Notification], error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkDispatched(ctx context.Context, notificationID uuid.UUID) (bool, error)
}

type service struct {
	repo    *Repository
	emitter outbox.Emitter
	now     func() time.Time
}

// NewService wires notifications dependencies.
func NewService(repo *Repository, emitter outbox.Emitter) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{repo: repo, emitter: emitter, now: time.Now}, nil
}

func (s *service) Notify(ctx context.Context, tx *gorm.DB, input Input) (*models.Notification, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification user required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type").
			WithDetails(map[string]any{"type": input.Type})
	}

	row := &models.Notification{
		ID:      uuid.New(),
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   strings.TrimSpace(input.Title),
		Body:    strings.TrimSpace(input.Body),
		OrderID: input.OrderID,
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return nil, err
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   row.ID,
		Data: payloads.NotificationRequestedEvent{
			NotificationID: row.ID,
			UserID:         row.UserID,
			Type:           row.Type,
			Title:          row.Title,
			OrderID:        row.OrderID,
		},
	}
	if err := s.emitter.Emit(ctx, tx, event); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[models.Notification], error) {
	if params.UserID == uuid.Nil {
		return pagination.Page[models.Notification]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Notification]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, listParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		Cursor:     cursor,
		UnreadOnly: params.UnreadOnly,
	})
	if err != nil {
		return pagination.Page[models.Notification]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list notifications")
	}
	return pagination.Build(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	}), nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	count, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) MarkDispatched(ctx context.Context, notificationID uuid.UUID) (bool, error) {
	if notificationID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	updated, err := s.repo.MarkDispatched(ctx, notificationID, s.now().UTC())
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "mark notification dispatched")
	}
	return updated, nil
}
