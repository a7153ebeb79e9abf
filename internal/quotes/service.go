package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/catalog"
	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/visadesk-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service records quote requests. Quotes never turn into orders.
type Service interface {
	CreateCustomQuote(ctx context.Context, userID uuid.UUID, input CustomInput) (*QuoteDTO, error)
	CreateServiceQuote(ctx context.Context, userID uuid.UUID, input ServiceInput) (*QuoteDTO, error)
	Get(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error)
	// Delete removes the quote along with its answers and their files.
	Delete(ctx context.Context, quoteID uuid.UUID) error
	ListCustom(ctx context.Context, params pagination.Params) (pagination.Page[QuoteDTO], error)
	ListService(ctx context.Context, params pagination.Params) (pagination.Page[QuoteDTO], error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	catalog  catalog.Service
	delivery catalog.DeliveryLookup
	answers  answers.Service
	outbox   outboxPublisher
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(repo *Repository, tx txRunner, catalogSvc catalog.Service, delivery catalog.DeliveryLookup, answerSvc answers.Service, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quotes repository required")
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
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
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
		outbox:   publisher,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) CreateCustomQuote(ctx context.Context, userID uuid.UUID, input CustomInput) (*QuoteDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	detail := models.CustomQuote{
		Name:             strings.TrimSpace(input.Name),
		Email:            strings.TrimSpace(input.Email),
		ContactNumber:    strings.TrimSpace(input.ContactNumber),
		ResidenceCountry: strings.TrimSpace(input.ResidenceCountry),
		DocRequest:       strings.TrimSpace(input.DocRequest),
	}
	missing := map[string]any{}
	for field, value := range map[string]string{
		"name":              detail.Name,
		"email":             detail.Email,
		"contact_number":    detail.ContactNumber,
		"residence_country": detail.ResidenceCountry,
		"doc_request":       detail.DocRequest,
	} {
		if value == "" {
			missing[field] = "required"
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote request is incomplete").WithDetails(missing)
	}

	quote := models.Quote{
		ID:     uuid.New(),
		UserID: userID,
		Type:   enums.QuoteTypeCustom,
		Status: models.QuoteStatusOpen,
		Custom: &detail,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &quote); err != nil {
			return err
		}
		return s.emitRequested(ctx, tx, quote, nil)
	})
	if err != nil {
		return nil, persistenceError(err, "create custom quote")
	}

	s.logg.Info(s.logg.WithField(ctx, "quote_id", quote.ID.String()), "custom quote requested")
	dto := newQuoteDTO(quote)
	return &dto, nil
}

func (s *service) CreateServiceQuote(ctx context.Context, userID uuid.UUID, input ServiceInput) (*QuoteDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
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

	quote := models.Quote{
		ID:     uuid.New(),
		UserID: userID,
		Type:   enums.QuoteTypeService,
		Status: models.QuoteStatusOpen,
		Service: &models.ServiceQuote{
			ServiceID:         svc.ID,
			DeliveryOptionIDs: selection.IDs,
		},
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &quote); err != nil {
			return err
		}
		if _, err := s.answers.Persist(ctx, tx, userID, answers.ServiceQuote(quote.ID), resolved, answers.QuoteUploadKeys(s.now())); err != nil {
			return err
		}
		return s.emitRequested(ctx, tx, quote, &svc.ID)
	})
	if err != nil {
		return nil, persistenceError(err, "create service quote")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"quote_id":   quote.ID.String(),
		"service_id": svc.ID.String(),
	}), "service quote requested")
	return s.Get(ctx, quote.ID)
}

func (s *service) emitRequested(ctx context.Context, tx *gorm.DB, quote models.Quote, serviceID *uuid.UUID) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventQuoteRequested,
		AggregateType: enums.AggregateQuote,
		AggregateID:   quote.ID,
		Actor:         &outbox.ActorRef{UserID: quote.UserID, Role: string(enums.UserRoleCustomer)},
		Data: payloads.QuoteRequestedEvent{
			QuoteID:   quote.ID,
			UserID:    quote.UserID,
			Type:      quote.Type,
			ServiceID: serviceID,
		},
	})
}

func (s *service) Get(ctx context.Context, quoteID uuid.UUID) (*QuoteDTO, error) {
	quote, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	dto := newQuoteDTO(*quote)
	if quote.Type == enums.QuoteTypeService {
		views, err := s.answers.ListByOwners(ctx, enums.AnswerOwnerServiceQuote, []uuid.UUID{quote.ID})
		if err != nil {
			return nil, err
		}
		dto.Answers = views[quote.ID]
		if dto.Answers == nil {
			dto.Answers = []answers.View{}
		}
	}
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, quoteID uuid.UUID) error {
	if _, err := s.load(ctx, quoteID); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.answers.Purge(ctx, tx, enums.AnswerOwnerServiceQuote, []uuid.UUID{quoteID}); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(ctx, quoteID)
	})
	if err != nil {
		return persistenceError(err, "delete quote")
	}
	s.logg.Info(s.logg.WithField(ctx, "quote_id", quoteID.String()), "quote deleted")
	return nil
}

func (s *service) ListCustom(ctx context.Context, params pagination.Params) (pagination.Page[QuoteDTO], error) {
	return s.list(ctx, enums.QuoteTypeCustom, params)
}

func (s *service) ListService(ctx context.Context, params pagination.Params) (pagination.Page[QuoteDTO], error) {
	return s.list(ctx, enums.QuoteTypeService, params)
}

func (s *service) list(ctx context.Context, quoteType enums.QuoteType, params pagination.Params) (pagination.Page[QuoteDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[QuoteDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, quoteType, params.Limit, cursor)
	if err != nil {
		return pagination.Page[QuoteDTO]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list quotes")
	}
	dtos := make([]QuoteDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, newQuoteDTO(row))
	}
	return pagination.Build(dtos, params.Limit, func(q QuoteDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: q.CreatedAt, ID: q.ID}
	}), nil
}

func (s *service) load(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error) {
	if quoteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}
	quote, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "quote")
	}
	return quote, nil
}

// persistenceError keeps typed errors raised inside a transaction and wraps the rest.
func persistenceError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, msg)
}
