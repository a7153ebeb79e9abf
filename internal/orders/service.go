package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/notifications"
	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/metrics"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/visadesk-backend/pkg/pagination"
	"github.com/angelmondragon/visadesk-backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type intentRetriever interface {
	RetrieveIntent(ctx context.Context, id string) (*stripe.Intent, error)
}

// Service covers the order lifecycle after checkout recorded it.
type Service interface {
	// Confirm re-checks the intent with the gateway and settles the order once.
	Confirm(ctx context.Context, paymentIntentID string) (*Confirmation, error)
	// ConfirmForUser is Confirm for a signed-in caller. Only the order's owner
	// or an admin may settle it.
	ConfirmForUser(ctx context.Context, userID uuid.UUID, role enums.UserRole, paymentIntentID string) (*Confirmation, error)
	Complete(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	Get(ctx context.Context, userID uuid.UUID, role enums.UserRole, orderID uuid.UUID) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error)
	ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[OrderDTO], error)
}

type service struct {
	repo          *Repository
	tx            txRunner
	gateway       intentRetriever
	outbox        outboxPublisher
	notifications notifications.Service
	answers       answers.Service
	metrics       *metrics.CheckoutMetrics
	logg          *logger.Logger
	now           func() time.Time
}

// NewService wires the order lifecycle dependencies. metrics may be nil.
func NewService(repo *Repository, tx txRunner, gateway intentRetriever, publisher outboxPublisher, notifier notifications.Service, answerSvc answers.Service, checkoutMetrics *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
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
	if answerSvc == nil {
		return nil, fmt.Errorf("answers service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:          repo,
		tx:            tx,
		gateway:       gateway,
		outbox:        publisher,
		notifications: notifier,
		answers:       answerSvc,
		metrics:       checkoutMetrics,
		logg:          logg,
		now:           time.Now,
	}, nil
}

func (s *service) Confirm(ctx context.Context, paymentIntentID string) (result *Confirmation, err error) {
	started := s.now()
	defer func() { s.metrics.ObserveDuration("confirm", err, s.now().Sub(started)) }()

	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment_intent_id is required").
			WithDetails(map[string]any{"payment_intent_id": "required"})
	}
	ctx = s.logg.WithPaymentIntentID(ctx, paymentIntentID)

	order, err := s.repo.FindByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "order")
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if order.Status.IsSettled() {
		s.logg.Info(ctx, "order already settled")
		return s.confirmation(ctx, order.ID, true, string(stripe.IntentSucceeded))
	}
	if order.Status == enums.OrderStatusFailed {
		return s.confirmation(ctx, order.ID, false, string(stripe.IntentCanceled))
	}

	intent, err := s.gateway.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		s.logg.Error(ctx, "retrieve payment intent failed", err)
		return nil, err
	}
	ctx = s.logg.WithField(ctx, "gateway_status", string(intent.Status))

	switch {
	case intent.Status.Succeeded():
		if err := s.markPaid(ctx, order, intent); err != nil {
			return nil, persistenceError(err, "confirm order")
		}
		s.metrics.IncState(enums.CheckoutStateConfirmed.String())
		s.logg.Info(ctx, "order paid")
		return s.confirmation(ctx, order.ID, true, string(intent.Status))
	case intent.Status.Failed():
		if err := s.markFailed(ctx, order, intent); err != nil {
			return nil, persistenceError(err, "fail order")
		}
		s.metrics.IncState(enums.CheckoutStateFailed.String())
		s.logg.Warn(ctx, "payment intent canceled")
		return s.confirmation(ctx, order.ID, false, string(intent.Status))
	default:
		s.logg.Info(ctx, "payment not yet captured")
		return s.confirmation(ctx, order.ID, false, string(intent.Status))
	}
}

func (s *service) ConfirmForUser(ctx context.Context, userID uuid.UUID, role enums.UserRole, paymentIntentID string) (*Confirmation, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return s.Confirm(ctx, paymentIntentID)
	}

	order, err := s.repo.FindByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "order")
	}
	if order.UserID != userID && role != enums.UserRoleAdmin {
		ctx = s.logg.WithOrderID(s.logg.WithPaymentIntentID(ctx, paymentIntentID), order.ID.String())
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "confirm refused for order of another user")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return s.Confirm(ctx, paymentIntentID)
}

func (s *service) markPaid(ctx context.Context, order *models.Order, intent *stripe.Intent) error {
	paidAt := s.now().UTC()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		changed, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPaid, map[string]any{"paid_at": paidAt})
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		if err := s.settleTransaction(ctx, repo, order.PaymentIntentID, intent, enums.CheckoutStateConfirmed); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaidEvent{
				OrderID:         order.ID,
				Reference:       order.Reference,
				UserID:          order.UserID,
				PaymentIntentID: order.PaymentIntentID,
				PaidAt:          paidAt,
			},
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}
		orderID := order.ID
		_, err = s.notifications.Notify(ctx, tx, notifications.Input{
			UserID:  order.UserID,
			Type:    enums.NotificationTypeOrderPaid,
			Title:   "Payment received",
			Body:    fmt.Sprintf("We received payment for order %s.", order.Reference),
			OrderID: &orderID,
		})
		return err
	})
}

func (s *service) markFailed(ctx context.Context, order *models.Order, intent *stripe.Intent) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		changed, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusFailed, nil)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		if err := s.settleTransaction(ctx, repo, order.PaymentIntentID, intent, enums.CheckoutStateFailed); err != nil {
			return err
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderFailedEvent{
				OrderID:         order.ID,
				UserID:          order.UserID,
				PaymentIntentID: order.PaymentIntentID,
				GatewayStatus:   string(intent.Status),
			},
		})
	})
}

// settleTransaction moves the single checkout transaction into its terminal state.
func (s *service) settleTransaction(ctx context.Context, repo *Repository, paymentIntentID string, intent *stripe.Intent, state enums.CheckoutState) error {
	txn, err := repo.FindTransactionByIntent(ctx, paymentIntentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logg.Warn(ctx, "transaction missing for payment intent")
		return nil
	}
	if err != nil {
		return err
	}
	updates := map[string]any{"gateway_status": string(intent.Status)}
	if txn.CheckoutState.CanTransition(state) {
		updates["checkout_state"] = state
	}
	return repo.UpdateTransaction(ctx, txn.ID, updates)
}

func (s *service) Complete(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only paid orders can be completed").
			WithDetails(map[string]any{"status": order.Status})
	}

	completedAt := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		changed, err := s.repo.WithTx(tx).TransitionStatus(ctx, order.ID, enums.OrderStatusPaid, enums.OrderStatusCompleted, map[string]any{"completed_at": completedAt})
		if err != nil {
			return err
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer paid")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCompletedEvent{
				OrderID:     order.ID,
				Reference:   order.Reference,
				UserID:      order.UserID,
				CompletedAt: completedAt,
			},
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}
		_, err = s.notifications.Notify(ctx, tx, notifications.Input{
			UserID:  order.UserID,
			Type:    enums.NotificationTypeOrderCompleted,
			Title:   "Order completed",
			Body:    fmt.Sprintf("Order %s has been completed.", order.Reference),
			OrderID: &order.ID,
		})
		return err
	})
	if err != nil {
		return nil, persistenceError(err, "complete order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order completed")
	return s.detail(ctx, order.ID)
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, role enums.UserRole, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return s.withAnswers(ctx, *order)
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if userID == uuid.Nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	return s.list(ctx, listParams{UserID: &userID}, params)
}

func (s *service) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if status != nil && !status.IsValid() {
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": *status})
	}
	return s.list(ctx, listParams{Status: status}, params)
}

func (s *service) list(ctx context.Context, query listParams, params pagination.Params) (pagination.Page[OrderDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Limit = params.Limit
	query.Cursor = cursor

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list orders")
	}
	dtos := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, NewOrderDTO(row))
	}
	return pagination.Build(dtos, params.Limit, func(o OrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "order")
	}
	return order, nil
}

func (s *service) detail(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.withAnswers(ctx, *order)
}

func (s *service) withAnswers(ctx context.Context, order models.Order) (*OrderDTO, error) {
	dto := NewOrderDTO(order)
	itemIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		itemIDs = append(itemIDs, item.ID)
	}
	views, err := s.answers.ListByOwners(ctx, enums.AnswerOwnerOrderItem, itemIDs)
	if err != nil {
		return nil, err
	}
	for i := range dto.Items {
		dto.Items[i].Answers = views[dto.Items[i].ID]
		if dto.Items[i].Answers == nil {
			dto.Items[i].Answers = []answers.View{}
		}
	}
	return &dto, nil
}

func (s *service) confirmation(ctx context.Context, orderID uuid.UUID, paid bool, gatewayStatus string) (*Confirmation, error) {
	dto, err := s.detail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &Confirmation{Order: *dto, Paid: paid, GatewayStatus: gatewayStatus}, nil
}

// persistenceError keeps typed errors raised inside a transaction and wraps the rest.
func persistenceError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, msg)
}
