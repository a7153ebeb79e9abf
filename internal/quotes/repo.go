package quotes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	"github.com/angelmondragon/visadesk-backend/pkg/pagination"
)

// Repository persists quotes and their custom or service detail rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the quote row followed by whichever detail row is set.
func (r *Repository) Create(ctx context.Context, quote *models.Quote) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(quote).Error; err != nil {
		return err
	}
	if quote.Custom != nil {
		quote.Custom.QuoteID = quote.ID
		if err := db.Create(quote.Custom).Error; err != nil {
			return err
		}
	}
	if quote.Service != nil {
		quote.Service.QuoteID = quote.ID
		if err := db.Create(quote.Service).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).
		Preload("Custom").
		Preload("Service").
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// Delete removes the detail rows before the quote itself.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("quote_id = ?", id).Delete(&models.CustomQuote{}).Error; err != nil {
		return err
	}
	if err := db.Where("quote_id = ?", id).Delete(&models.ServiceQuote{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Quote{}).Error
}

// List returns up to limit+1 quotes of one type newest first.
func (r *Repository) List(ctx context.Context, quoteType enums.QuoteType, limit int, cursor *pagination.Cursor) ([]models.Quote, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("type = ?", quoteType)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Quote
	err := query.
		Preload("Custom").
		Preload("Service").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
