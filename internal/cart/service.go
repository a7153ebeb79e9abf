package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/catalog"
	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the per-user cart.
type Service interface {
	// GetCart returns nil when the user has no cart or an empty one.
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*ItemView, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	Requirements(ctx context.Context, userID uuid.UUID) ([]ItemRequirements, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	catalog  catalog.Service
	delivery catalog.DeliveryLookup
	answers  answers.Service
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, catalogSvc catalog.Service, delivery catalog.DeliveryLookup, answerSvc answers.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
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
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		catalog:  catalogSvc,
		delivery: delivery,
		answers:  answerSvc,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*ItemView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	quantity, ok := ValidateQuantity(input.Quantity)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": *input.Quantity})
	}

	svc, err := s.catalog.GetService(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	selection, err := catalog.ResolveDelivery(ctx, s.delivery, svc.ID, input.DeliveryOptionIDs)
	if err != nil {
		return nil, err
	}
	questions, err := s.catalog.ListQuestionnaires(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	resolved, err := answers.Resolve(questions, input.Answers)
	if err != nil {
		return nil, err
	}

	var item models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		item = models.CartItem{
			ID:                uuid.New(),
			CartID:            cart.ID,
			ServiceID:         svc.ID,
			Quantity:          quantity,
			DeliveryOptionIDs: selection.IDs,
		}
		if err := repo.CreateItem(ctx, &item); err != nil {
			return err
		}
		_, err = s.answers.Persist(ctx, tx, userID, answers.CartItem(item.ID), resolved, answers.CartUploadKeys(s.now()))
		return err
	})
	if err != nil {
		return nil, persistenceError(err, "add cart item")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "cart_item_id": item.ID.String()})
	s.logg.Info(ctx, "cart item added")

	return s.itemView(ctx, item)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemView, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": quantity})
	}
	item, err := s.ownedItem(ctx, s.repo, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update cart item")
	}
	item.Quantity = quantity
	return s.itemView(ctx, *item)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.ownedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if err := s.answers.Purge(ctx, tx, enums.AnswerOwnerCartItem, []uuid.UUID{item.ID}); err != nil {
			return err
		}
		return repo.DeleteItems(ctx, []uuid.UUID{item.ID})
	})
	if err != nil {
		return persistenceError(err, "remove cart item")
	}
	return nil
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUser(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		items, err := repo.ListItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ID)
		}
		if err := s.answers.Purge(ctx, tx, enums.AnswerOwnerCartItem, ids); err != nil {
			return err
		}
		return repo.DeleteItems(ctx, ids)
	})
	if err != nil {
		return persistenceError(err, "clear cart")
	}
	return nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load cart")
	}
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load cart items")
	}
	if len(items) == 0 {
		return nil, nil
	}

	views, err := s.itemViews(ctx, items)
	if err != nil {
		return nil, err
	}
	grand := decimal.Zero
	for _, view := range views {
		grand = grand.Add(view.subtotal)
	}
	return &CartView{
		CartID:     cart.ID,
		UserID:     cart.UserID,
		TotalItems: len(views),
		GrandTotal: catalog.Money(grand),
		Items:      views,
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
	}, nil
}

func (s *service) Requirements(ctx context.Context, userID uuid.UUID) ([]ItemRequirements, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []ItemRequirements{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load cart")
	}
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load cart items")
	}

	out := make([]ItemRequirements, 0, len(items))
	for _, item := range items {
		svc, err := s.catalog.GetService(ctx, item.ServiceID)
		if err != nil {
			return nil, err
		}
		questions, err := s.catalog.ListQuestionnaires(ctx, item.ServiceID)
		if err != nil {
			return nil, err
		}
		docs, err := s.catalog.ListRequiredDocuments(ctx, item.ServiceID)
		if err != nil {
			return nil, err
		}
		req := ItemRequirements{
			CartItemID:        item.ID,
			ServiceID:         svc.ID,
			ServiceTitle:      svc.Title,
			Questions:         make([]catalog.QuestionDTO, 0, len(questions)),
			RequiredDocuments: make([]catalog.RequiredDocumentDTO, 0, len(docs)),
		}
		for _, q := range questions {
			req.Questions = append(req.Questions, catalog.NewQuestionDTO(q))
		}
		for _, d := range docs {
			req.RequiredDocuments = append(req.RequiredDocuments, catalog.NewRequiredDocumentDTO(d))
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *service) ownedItem(ctx context.Context, repo *Repository, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := repo.FindItemForUser(ctx, userID, itemID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "cart item")
	}
	return item, nil
}

func (s *service) itemView(ctx context.Context, item models.CartItem) (*ItemView, error) {
	views, err := s.itemViews(ctx, []models.CartItem{item})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// itemViews expands items with live prices, delivery options and answers.
func (s *service) itemViews(ctx context.Context, items []models.CartItem) ([]ItemView, error) {
	serviceIDs := make([]uuid.UUID, 0, len(items))
	itemIDs := make([]uuid.UUID, 0, len(items))
	var deliveryIDs []uuid.UUID
	for _, item := range items {
		serviceIDs = append(serviceIDs, item.ServiceID)
		itemIDs = append(itemIDs, item.ID)
		deliveryIDs = append(deliveryIDs, item.DeliveryOptionIDs...)
	}

	services, err := s.catalog.GetServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}
	options, err := s.delivery.FindDeliveryOptionsByIDs(ctx, deliveryIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load delivery options")
	}
	optionsByID := make(map[uuid.UUID]models.DeliveryOption, len(options))
	for _, opt := range options {
		optionsByID[opt.ID] = opt
	}
	answerViews, err := s.answers.ListByOwners(ctx, enums.AnswerOwnerCartItem, itemIDs)
	if err != nil {
		return nil, err
	}

	out := make([]ItemView, 0, len(items))
	for _, item := range items {
		svc := services[item.ServiceID]
		deliveryTotal := decimal.Zero
		chosen := make([]catalog.DeliveryOptionDTO, 0, len(item.DeliveryOptionIDs))
		for _, id := range item.DeliveryOptionIDs {
			opt, ok := optionsByID[id]
			if !ok || opt.ServiceID != item.ServiceID {
				continue
			}
			deliveryTotal = deliveryTotal.Add(opt.Price)
			chosen = append(chosen, catalog.NewDeliveryOptionDTO(opt))
		}
		views := answerViews[item.ID]
		if views == nil {
			views = []answers.View{}
		}
		ids := []uuid.UUID(item.DeliveryOptionIDs)
		if ids == nil {
			ids = []uuid.UUID{}
		}
		subtotal := LineSubtotal(svc.Price, item.Quantity, deliveryTotal)
		out = append(out, ItemView{
			ID:                item.ID,
			CartID:            item.CartID,
			Quantity:          item.Quantity,
			DeliveryOptionIDs: ids,
			DeliveryOptions:   chosen,
			Service:           catalog.NewServiceDTO(svc),
			Answers:           views,
			Subtotal:          catalog.Money(subtotal),
			CreatedAt:         item.CreatedAt,
			UpdatedAt:         item.UpdatedAt,
			subtotal:          subtotal,
		})
	}
	return out, nil
}

// persistenceError keeps typed errors raised inside a transaction and wraps the rest.
func persistenceError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, msg)
}
