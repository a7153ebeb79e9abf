package answers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

// Repository persists answer rows.
type Repository struct {
	db *gorm.DB
}

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

func (r *Repository) Create(ctx context.Context, rows []models.Answer) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *Repository) ListByOwners(ctx context.Context, kind enums.AnswerOwnerKind, ownerIDs []uuid.UUID) ([]models.Answer, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	var rows []models.Answer
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id IN ?", kind, ownerIDs).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// OwnsFile reports whether userID has an answer row that stores key.
func (r *Repository) OwnsFile(ctx context.Context, userID uuid.UUID, key string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("user_id = ? AND value_kind = ? AND value = ?", userID, enums.AnswerValueFile, key).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) DeleteByOwners(ctx context.Context, kind enums.AnswerOwnerKind, ownerIDs []uuid.UUID) (int64, error) {
	if len(ownerIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id IN ?", kind, ownerIDs).
		Delete(&models.Answer{})
	return res.RowsAffected, res.Error
}
