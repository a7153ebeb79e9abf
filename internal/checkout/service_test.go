package checkout

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/catalog"
	"github.com/angelmondragon/visadesk-backend/internal/notifications"
	"github.com/angelmondragon/visadesk-backend/internal/orders"
	dbpkg "github.com/angelmondragon/visadesk-backend/pkg/db"
	"github.com/angelmondragon/visadesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox"
	"github.com/angelmondragon/visadesk-backend/pkg/storage"
	"github.com/angelmondragon/visadesk-backend/pkg/storage/local"
	"github.com/angelmondragon/visadesk-backend/pkg/stripe"
)

type stubGateway struct {
	err      error
	calls    int
	amount   int64
	currency string
	metadata map[string]string
}

func (g *stubGateway) CreateIntent(_ context.Context, amountMinor int64, currency string, metadata map[string]string) (*stripe.Intent, error) {
	g.calls++
	g.amount = amountMinor
	g.currency = currency
	g.metadata = metadata
	if g.err != nil {
		return nil, g.err
	}
	return &stripe.Intent{
		ID:           "pi_" + uuid.NewString(),
		ClientSecret: "secret_123",
		Status:       stripe.IntentRequiresPaymentMethod,
		AmountMinor:  amountMinor,
		Currency:     currency,
	}, nil
}

type fixture struct {
	db      *gorm.DB
	store   *local.Store
	gateway *stubGateway
	svc     Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	store, err := local.New(t.TempDir(), "/storage")
	require.NoError(t, err)

	catalogRepo := catalog.NewRepository(db)
	catalogSvc, err := catalog.NewService(catalogRepo)
	require.NoError(t, err)
	answerSvc, err := answers.NewService(answers.NewRepository(db), catalogRepo, store, logg)
	require.NoError(t, err)
	emitter := outbox.NewService(outbox.NewRepository(db), logg)
	notifier, err := notifications.NewService(notifications.NewRepository(db), emitter)
	require.NoError(t, err)

	gateway := &stubGateway{}
	svc, err := NewService(dbpkg.NewFromConn(db), orders.NewRepository(db), catalogSvc, catalogRepo, answerSvc, gateway, emitter, notifier, nil, logg, Options{Currency: "USD"})
	require.NoError(t, err)
	return fixture{db: db, store: store, gateway: gateway, svc: svc}
}

func (f fixture) count(t *testing.T, model any, where ...any) int64 {
	t.Helper()
	var n int64
	query := f.db.Model(model)
	if len(where) > 0 {
		query = query.Where(where[0], where[1:]...)
	}
	require.NoError(t, query.Count(&n).Error)
	return n
}

func (f fixture) assertNothingRecorded(t *testing.T) {
	t.Helper()
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.OrderItem{}))
	assert.Zero(t, f.count(t, &models.OrderItemDeliveryOption{}))
	assert.Zero(t, f.count(t, &models.Answer{}))
	assert.Zero(t, f.count(t, &models.Transaction{}))
	assert.Zero(t, f.count(t, &models.OutboxEvent{}))
	assert.Zero(t, f.count(t, &models.Notification{}))
}

func intPtr(v int) *int { return &v }

func TestCreateIntentRecordsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	visa := dbtest.CreateService(t, f.db, "Visa", "50.00")
	courier := dbtest.CreateDeliveryOption(t, f.db, visa.ID, "Courier", "5.00")
	name := dbtest.CreateQuestion(t, f.db, visa.ID, "Full name", enums.QuestionKindText)
	client := decimal.RequireFromString("1.00")

	result, err := f.svc.CreateIntent(ctx, userID, Input{
		Items: []ItemInput{{
			ServiceID:         visa.ID,
			Quantity:          intPtr(2),
			DeliveryOptionIDs: []uuid.UUID{courier.ID, courier.ID},
			Answers:           []answers.Input{{QuestionID: name.ID, Value: "Ada Lovelace"}},
		}},
		Amount: &client,
		Email:  "ada@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "105.00", result.TotalAmount)
	assert.Equal(t, "usd", result.Currency)
	assert.Equal(t, "secret_123", result.ClientSecret)
	assert.Len(t, result.Reference, 6)
	assert.EqualValues(t, 10500, f.gateway.amount)
	assert.Equal(t, result.Reference, f.gateway.metadata["reference"])
	assert.Equal(t, userID.String(), f.gateway.metadata["user_id"])
	assert.Equal(t, "ada@example.com", f.gateway.metadata["email"])

	var order models.Order
	require.NoError(t, f.db.Where("id = ?", result.OrderID).First(&order).Error)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, result.PaymentIntentID, order.PaymentIntentID)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("105.00")))

	var items []models.OrderItem
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, "Visa", items[0].ServiceTitle)
	assert.True(t, items[0].Subtotal.Equal(decimal.RequireFromString("105.00")))
	assert.EqualValues(t, 1, f.count(t, &models.OrderItemDeliveryOption{}, "order_item_id = ?", items[0].ID))
	assert.EqualValues(t, 1, f.count(t, &models.Answer{}, "owner_type = ? AND owner_id = ?", enums.AnswerOwnerOrderItem, items[0].ID))

	var txn models.Transaction
	require.NoError(t, f.db.Where("order_id = ?", order.ID).First(&txn).Error)
	assert.Equal(t, enums.CheckoutStateOrderRecorded, txn.CheckoutState)

	assert.EqualValues(t, 1, f.count(t, &models.OutboxEvent{}, "event_type = ?", enums.EventOrderCreated))
	assert.EqualValues(t, 1, f.count(t, &models.Notification{}, "user_id = ? AND type = ?", userID, enums.NotificationTypeOrderPlaced))
}

func TestCreateIntentDropsMismatchedAnswer(t *testing.T) {
	f := newFixture(t)
	visa := dbtest.CreateService(t, f.db, "Visa", "40.00")
	passport := dbtest.CreateService(t, f.db, "Passport", "60.00")
	own := dbtest.CreateQuestion(t, f.db, visa.ID, "Nationality", enums.QuestionKindText)
	foreign := dbtest.CreateQuestion(t, f.db, passport.ID, "Old passport number", enums.QuestionKindText)

	result, err := f.svc.CreateIntent(context.Background(), uuid.New(), Input{
		Items: []ItemInput{{
			ServiceID: visa.ID,
			Answers: []answers.Input{
				{QuestionID: own.ID, Value: "ZA"},
				{QuestionID: foreign.ID, Value: "A123"},
			},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "40.00", result.TotalAmount)

	var rows []models.Answer
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, own.ID, rows[0].QuestionnaireID)
}

func TestCreateIntentPlacesFilesUnderOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	visa := dbtest.CreateService(t, f.db, "Visa", "10.00")
	upload := dbtest.CreateQuestion(t, f.db, visa.ID, "Passport scan", enums.QuestionKindFile)
	userID := uuid.New()
	staged := storage.StagedKey(userID, uuid.New(), ".pdf")
	require.NoError(t, f.store.Put(ctx, staged, strings.NewReader("%PDF-1.4"), "application/pdf"))

	result, err := f.svc.CreateIntent(ctx, userID, Input{
		Items: []ItemInput{{
			ServiceID: visa.ID,
			Answers:   []answers.Input{{QuestionID: upload.ID, Value: staged}},
		}},
	})
	require.NoError(t, err)

	var answer models.Answer
	require.NoError(t, f.db.First(&answer).Error)
	assert.Equal(t, enums.AnswerValueFile, answer.ValueKind)
	assert.True(t, strings.HasPrefix(answer.Value, "documents/orders/"+result.OrderID.String()+"/"))

	exists, err := f.store.Exists(ctx, answer.Value)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateIntentValidatesBeforeGateway(t *testing.T) {
	f := newFixture(t)
	visa := dbtest.CreateService(t, f.db, "Visa", "10.00")
	other := dbtest.CreateService(t, f.db, "Other", "10.00")
	foreignOption := dbtest.CreateDeliveryOption(t, f.db, other.ID, "Courier", "5.00")

	cases := map[string]struct {
		input Input
		code  pkgerrors.Code
	}{
		"no items":          {input: Input{}, code: pkgerrors.CodeValidation},
		"zero quantity":     {input: Input{Items: []ItemInput{{ServiceID: visa.ID, Quantity: intPtr(0)}}}, code: pkgerrors.CodeValidation},
		"unknown service":   {input: Input{Items: []ItemInput{{ServiceID: uuid.New()}}}, code: pkgerrors.CodeNotFound},
		"foreign delivery":  {input: Input{Items: []ItemInput{{ServiceID: visa.ID, DeliveryOptionIDs: []uuid.UUID{foreignOption.ID}}}}, code: pkgerrors.CodeValidation},
		"second item fails": {input: Input{Items: []ItemInput{{ServiceID: visa.ID}, {ServiceID: uuid.New()}}}, code: pkgerrors.CodeNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateIntent(context.Background(), uuid.New(), tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}
	assert.Zero(t, f.gateway.calls)
	f.assertNothingRecorded(t)
}

func TestCreateIntentGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = pkgerrors.Wrap(pkgerrors.CodeGateway, errors.New("card_declined"), "Your card was declined.")
	visa := dbtest.CreateService(t, f.db, "Visa", "10.00")

	_, err := f.svc.CreateIntent(context.Background(), uuid.New(), Input{Items: []ItemInput{{ServiceID: visa.ID}}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGateway))
	assert.Equal(t, "Your card was declined.", pkgerrors.As(err).Message())
	f.assertNothingRecorded(t)
}

func TestCreateIntentWrapsUntypedGatewayErrors(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("connection reset")
	visa := dbtest.CreateService(t, f.db, "Visa", "10.00")

	_, err := f.svc.CreateIntent(context.Background(), uuid.New(), Input{Items: []ItemInput{{ServiceID: visa.ID}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGateway))
}

func TestCreateIntentRollsBackOnFailedFilePlacement(t *testing.T) {
	f := newFixture(t)
	visa := dbtest.CreateService(t, f.db, "Visa", "10.00")
	courier := dbtest.CreateDeliveryOption(t, f.db, visa.ID, "Courier", "5.00")
	name := dbtest.CreateQuestion(t, f.db, visa.ID, "Full name", enums.QuestionKindText)
	upload := dbtest.CreateQuestion(t, f.db, visa.ID, "Passport scan", enums.QuestionKindFile)

	userID := uuid.New()
	_, err := f.svc.CreateIntent(context.Background(), userID, Input{
		Items: []ItemInput{{
			ServiceID:         visa.ID,
			DeliveryOptionIDs: []uuid.UUID{courier.ID},
			Answers: []answers.Input{
				{QuestionID: name.ID, Value: "Ada"},
				{QuestionID: upload.ID, Value: storage.StagedKey(userID, uuid.New(), ".pdf")},
			},
		}},
	})
	require.Error(t, err)
	assert.Equal(t, 1, f.gateway.calls)
	f.assertNothingRecorded(t)
}

func TestCreateIntentRequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateIntent(context.Background(), uuid.Nil, Input{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
