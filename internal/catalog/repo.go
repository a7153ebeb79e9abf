package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/pagination"
)

// Repository reads the catalog tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var svc models.Service
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *Repository) FindServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Service
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListServices returns services newest first using keyset pagination.
func (r *Repository) ListServices(ctx context.Context, filter ServiceFilter, cursor *pagination.Cursor) ([]models.Service, error) {
	query := r.db.WithContext(ctx).Model(&models.Service{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SouthAfrican != nil {
		query = query.Where("is_south_african = ?", *filter.SouthAfrican)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Service
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListQuestionnaires returns a service's questions ordered by position.
func (r *Repository) ListQuestionnaires(ctx context.Context, serviceID uuid.UUID) ([]models.Questionnaire, error) {
	var rows []models.Questionnaire
	err := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindQuestionnairesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Questionnaire, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Questionnaire
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListDeliveryOptions(ctx context.Context, serviceID uuid.UUID) ([]models.DeliveryOption, error) {
	var rows []models.DeliveryOption
	err := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("price ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindDeliveryOptionsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.DeliveryOption, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.DeliveryOption
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListRequiredDocuments(ctx context.Context, serviceID uuid.UUID) ([]models.RequiredDocument, error) {
	var rows []models.RequiredDocument
	err := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
