package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/pagination"
)

// ServiceFilter narrows the public services listing.
type ServiceFilter struct {
	CategoryID   *uuid.UUID
	SouthAfrican *bool
	Type         *enums.ServiceType
	Search       string
	Limit        int
	Cursor       string
}

// Service exposes read-only catalog lookups. Unknown ids surface as NOT_FOUND;
// callers treat that as fatal for the operation, never a silent skip.
type Service interface {
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	GetServicesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Service, error)
	ListServices(ctx context.Context, filter ServiceFilter) (pagination.Page[ServiceDTO], error)
	ListQuestionnaires(ctx context.Context, serviceID uuid.UUID) ([]models.Questionnaire, error)
	ListDeliveryOptions(ctx context.Context, serviceID uuid.UUID) ([]models.DeliveryOption, error)
	ListRequiredDocuments(ctx context.Context, serviceID uuid.UUID) ([]models.RequiredDocument, error)
	ServiceRequirements(ctx context.Context, serviceID uuid.UUID) (*Requirements, error)
}

type service struct {
	repo *Repository
}

// NewService builds a catalog service backed by repo.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id is required")
	}
	svc, err := s.repo.FindService(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "service")
	}
	return svc, nil
}

// GetServicesByIDs returns every requested service keyed by id, or NOT_FOUND
// naming the first missing id.
func (s *service) GetServicesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Service, error) {
	unique := uniqueIDs(ids)
	rows, err := s.repo.FindServicesByIDs(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load services")
	}
	byID := make(map[uuid.UUID]models.Service, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	for _, id := range unique {
		if _, ok := byID[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found").WithDetails(map[string]any{"service_id": id})
		}
	}
	return byID, nil
}

func (s *service) ListServices(ctx context.Context, filter ServiceFilter) (pagination.Page[ServiceDTO], error) {
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return pagination.Page[ServiceDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListServices(ctx, filter, cursor)
	if err != nil {
		return pagination.Page[ServiceDTO]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list services")
	}
	dtos := mapSlice(rows, NewServiceDTO)
	return pagination.Build(dtos, filter.Limit, func(svc ServiceDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: svc.CreatedAt, ID: svc.ID}
	}), nil
}

func (s *service) ListQuestionnaires(ctx context.Context, serviceID uuid.UUID) ([]models.Questionnaire, error) {
	rows, err := s.repo.ListQuestionnaires(ctx, serviceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list questionnaires")
	}
	return rows, nil
}

func (s *service) ListDeliveryOptions(ctx context.Context, serviceID uuid.UUID) ([]models.DeliveryOption, error) {
	rows, err := s.repo.ListDeliveryOptions(ctx, serviceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list delivery options")
	}
	return rows, nil
}

func (s *service) ListRequiredDocuments(ctx context.Context, serviceID uuid.UUID) ([]models.RequiredDocument, error) {
	rows, err := s.repo.ListRequiredDocuments(ctx, serviceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list required documents")
	}
	return rows, nil
}

func (s *service) ServiceRequirements(ctx context.Context, serviceID uuid.UUID) (*Requirements, error) {
	svc, err := s.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	questions, err := s.ListQuestionnaires(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	docs, err := s.ListRequiredDocuments(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	options, err := s.ListDeliveryOptions(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return &Requirements{
		Service:           NewServiceDTO(*svc),
		Questions:         mapSlice(questions, NewQuestionDTO),
		RequiredDocuments: mapSlice(docs, NewRequiredDocumentDTO),
		DeliveryOptions:   mapSlice(options, NewDeliveryOptionDTO),
	}, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
