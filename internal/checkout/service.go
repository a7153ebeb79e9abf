package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/catalog"
	"github.com/angelmondragon/visadesk-backend/internal/notifications"
	"github.com/angelmondragon/visadesk-backend/internal/orders"
	dbpkg "github.com/angelmondragon/visadesk-backend/pkg/db"
	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/metrics"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/visadesk-backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type paymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*stripe.Intent, error)
}

// RecordedItem pairs a freshly inserted order item with its resolved answers.
type RecordedItem struct {
	Item    models.OrderItem
	Answers []answers.Resolved
}

// Service composes orders from a checkout payload.
type Service interface {
	// CreateIntent prices the items, opens a payment intent and records the
	// order, its items, answers and transaction in one database transaction.
	CreateIntent(ctx context.Context, userID uuid.UUID, input Input) (*IntentResult, error)
	// RecordAnswers stores each item's answers against its order item, placing
	// files under the order's document prefix.
	RecordAnswers(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, items []RecordedItem) error
}

// Options carries the tunables read from config.
type Options struct {
	Currency          string
	ReferenceAttempts int
}

type service struct {
	tx            txRunner
	orders        *orders.Repository
	catalog       catalog.Service
	delivery      catalog.DeliveryLookup
	answers       answers.Service
	gateway       paymentGateway
	outbox        outboxPublisher
	notifications notifications.Service
	metrics       *metrics.CheckoutMetrics
	logg          *logger.Logger
	opts          Options
	reference     func() string
}

// NewService wires checkout dependencies. metrics may be nil.
func NewService(
	tx txRunner,
	ordersRepo *orders.Repository,
	catalogSvc catalog.Service,
	delivery catalog.DeliveryLookup,
	answerSvc answers.Service,
	gateway paymentGateway,
	publisher outboxPublisher,
	notifier notifications.Service,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
	opts Options,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if delivery == nil {
		return nil, fmt.Errorf("delivery lookup required")
	}
	if answerSvc == nil {
		return nil, fmt.Errorf("answers service required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	opts.Currency = strings.ToLower(strings.TrimSpace(opts.Currency))
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	return &service{
		tx:            tx,
		orders:        ordersRepo,
		catalog:       catalogSvc,
		delivery:      delivery,
		answers:       answerSvc,
		gateway:       gateway,
		outbox:        publisher,
		notifications: notifier,
		metrics:       checkoutMetrics,
		logg:          logg,
		opts:          opts,
		reference:     orders.RandomReference,
	}, nil
}

func (s *service) CreateIntent(ctx context.Context, userID uuid.UUID, input Input) (result *IntentResult, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveDuration("create_intent", err, time.Since(started)) }()

	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required").
			WithDetails(map[string]any{"items": "required"})
	}
	ctx = s.logg.WithUserID(ctx, userID.String())
	s.enter(ctx, enums.CheckoutStateDraft)

	lines, total, err := s.priceLines(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	if input.Amount != nil && !input.Amount.Round(2).Equal(total) {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"client_amount": input.Amount.StringFixed(2),
			"server_amount": total.StringFixed(2),
		}), "client amount differs from server total")
	}

	reference, err := orders.NewReference(ctx, s.orders, s.opts.ReferenceAttempts, s.reference)
	if err != nil {
		return nil, persistenceError(err, "allocate order reference")
	}

	metadata := map[string]string{
		"user_id":         userID.String(),
		"reference":       reference,
		"is_south_africa": fmt.Sprintf("%t", input.IsSouthAfrica),
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		metadata["email"] = email
	}
	intent, err := s.gateway.CreateIntent(ctx, stripe.ToMinorUnits(total), s.opts.Currency, metadata)
	if err != nil {
		s.fail(ctx, "create payment intent failed", err)
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeGateway, err, "create payment intent failed")
		}
		return nil, err
	}
	ctx = s.logg.WithPaymentIntentID(ctx, intent.ID)
	s.enter(ctx, enums.CheckoutStateIntentCreated)

	order := models.Order{
		ID:              uuid.New(),
		Reference:       reference,
		UserID:          userID,
		TotalAmount:     total,
		Currency:        s.opts.Currency,
		IsSouthAfrica:   input.IsSouthAfrica,
		PaymentIntentID: intent.ID,
		Status:          enums.OrderStatusPending,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.record(ctx, tx, &order, lines, intent)
	})
	if err != nil {
		s.fail(ctx, "record order failed", err)
		if isReferenceClash(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order reference already taken, please retry")
		}
		return nil, persistenceError(err, "record order")
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.enter(ctx, enums.CheckoutStateOrderRecorded)

	return &IntentResult{
		OrderID:         order.ID,
		Reference:       order.Reference,
		TotalAmount:     catalog.Money(order.TotalAmount),
		Currency:        order.Currency,
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// record writes everything the order needs; any error rolls the whole set back.
func (s *service) record(ctx context.Context, tx *gorm.DB, order *models.Order, lines []pricedLine, intent *stripe.Intent) error {
	repo := s.orders.WithTx(tx)
	if err := repo.CreateOrder(ctx, order); err != nil {
		return err
	}

	items := make([]models.OrderItem, 0, len(lines))
	var attachments []models.OrderItemDeliveryOption
	recorded := make([]RecordedItem, 0, len(lines))
	for _, line := range lines {
		item := models.OrderItem{
			ID:            uuid.New(),
			OrderID:       order.ID,
			ServiceID:     line.service.ID,
			ServiceTitle:  line.service.Title,
			Quantity:      line.quantity,
			UnitPrice:     line.service.Price,
			DeliveryTotal: line.delivery.Total(),
			Subtotal:      line.subtotal,
		}
		for _, opt := range line.delivery.Options {
			attachments = append(attachments, models.OrderItemDeliveryOption{
				OrderItemID:      item.ID,
				DeliveryOptionID: opt.ID,
				Label:            opt.Label,
				Price:            opt.Price,
			})
		}
		items = append(items, item)
		recorded = append(recorded, RecordedItem{Item: item, Answers: line.answers})
	}
	if err := repo.CreateItems(ctx, items); err != nil {
		return err
	}
	if err := repo.CreateDeliveryOptions(ctx, attachments); err != nil {
		return err
	}
	if err := s.RecordAnswers(ctx, tx, order.UserID, order.ID, recorded); err != nil {
		return err
	}

	txn := &models.Transaction{
		ID:              uuid.New(),
		OrderID:         order.ID,
		UserID:          order.UserID,
		PaymentIntentID: intent.ID,
		Amount:          order.TotalAmount,
		Currency:        order.Currency,
		GatewayStatus:   string(intent.Status),
		CheckoutState:   enums.CheckoutStateOrderRecorded,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return err
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID, Role: string(enums.UserRoleCustomer)},
		Data: payloads.OrderCreatedEvent{
			OrderID:         order.ID,
			Reference:       order.Reference,
			UserID:          order.UserID,
			PaymentIntentID: order.PaymentIntentID,
			TotalAmount:     catalog.Money(order.TotalAmount),
			Currency:        order.Currency,
			ItemCount:       len(items),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return err
	}
	_, err := s.notifications.Notify(ctx, tx, notifications.Input{
		UserID:  order.UserID,
		Type:    enums.NotificationTypeOrderPlaced,
		Title:   "Order placed",
		Body:    fmt.Sprintf("Order %s for %s %s is awaiting payment.", order.Reference, catalog.Money(order.TotalAmount), strings.ToUpper(order.Currency)),
		OrderID: &order.ID,
	})
	return err
}

func (s *service) RecordAnswers(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, items []RecordedItem) error {
	for _, recorded := range items {
		if len(recorded.Answers) == 0 {
			continue
		}
		keys := answers.OrderItemKeys(orderID, recorded.Item.ID)
		if _, err := s.answers.Persist(ctx, tx, userID, answers.OrderItem(recorded.Item.ID), recorded.Answers, keys); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) enter(ctx context.Context, state enums.CheckoutState) {
	s.metrics.IncState(state.String())
	s.logg.Info(s.logg.WithField(ctx, "checkout_state", state.String()), "checkout state entered")
}

func (s *service) fail(ctx context.Context, msg string, err error) {
	s.metrics.IncState(enums.CheckoutStateFailed.String())
	s.logg.Error(s.logg.WithField(ctx, "checkout_state", enums.CheckoutStateFailed.String()), msg, err)
}

// isReferenceClash matches the Postgres constraint name and the SQLite column form.
func isReferenceClash(err error) bool {
	return dbpkg.IsUniqueViolation(err, "orders_reference_key") || dbpkg.IsUniqueViolation(err, "orders.reference")
}

// persistenceError keeps typed errors raised inside a transaction and wraps the rest.
func persistenceError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, msg)
}
