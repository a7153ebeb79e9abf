package notifications

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/visadesk-backend/pkg/db"
	"github.com/angelmondragon/visadesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox"
)

func newTestService(t *testing.T) (*gorm.DB, Service) {
	t.Helper()
	db := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), outbox.NewService(outbox.NewRepository(db), logg))
	require.NoError(t, err)
	return db, svc
}

func notify(t *testing.T, db *gorm.DB, svc Service, input Input) *models.Notification {
	t.Helper()
	var row *models.Notification
	err := dbpkg.NewFromConn(db).WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		row, err = svc.Notify(context.Background(), tx, input)
		return err
	})
	require.NoError(t, err)
	return row
}

func TestNotifyStoresRowAndQueuesEvent(t *testing.T) {
	db, svc := newTestService(t)
	userID := uuid.New()
	orderID := uuid.New()

	row := notify(t, db, svc, Input{
		UserID:  userID,
		Type:    enums.NotificationTypeOrderPlaced,
		Title:   " Order placed ",
		Body:    "Order 123456 is awaiting payment.",
		OrderID: &orderID,
	})
	assert.Equal(t, "Order placed", row.Title)

	var events []models.OutboxEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventNotificationRequested, events[0].EventType)
	assert.Equal(t, row.ID, events[0].AggregateID)
}

func TestNotifyRejectsUnknownType(t *testing.T) {
	db, svc := newTestService(t)
	err := dbpkg.NewFromConn(db).WithTx(context.Background(), func(tx *gorm.DB) error {
		_, err := svc.Notify(context.Background(), tx, Input{UserID: uuid.New(), Type: "bogus"})
		return err
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListPaginatesAndFiltersUnread(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		row := models.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      enums.NotificationTypeOrderPaid,
			Title:     "Paid",
			Body:      "Payment received.",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&row).Error)
	}
	notify(t, db, svc, Input{UserID: uuid.New(), Type: enums.NotificationTypeOrderPaid, Title: "other"})

	first, err := svc.List(ctx, ListParams{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.True(t, first.Items[0].CreatedAt.After(first.Items[1].CreatedAt))

	second, err := svc.List(ctx, ListParams{UserID: userID, Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)

	marked, err := svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, marked)

	unread, err := svc.List(ctx, ListParams{UserID: userID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread.Items)
}

func TestListRejectsBadCursor(t *testing.T) {
	_, svc := newTestService(t)
	_, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "%%%"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMarkDispatchedOnce(t *testing.T) {
	db, svc := newTestService(t)
	row := notify(t, db, svc, Input{UserID: uuid.New(), Type: enums.NotificationTypeOrderCompleted, Title: "Done"})

	updated, err := svc.MarkDispatched(context.Background(), row.ID)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = svc.MarkDispatched(context.Background(), row.ID)
	require.NoError(t, err)
	assert.False(t, updated)
}
