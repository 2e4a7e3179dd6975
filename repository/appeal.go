package repository

import (
	"context"
	"errors"

	"civica/models"

	"gorm.io/gorm"
)

// AppealRepository defines the interface for appeal data operations.
// Pending-appeal uniqueness is not checked here: it lives inside the
// submission transaction and the store's partial unique index.
type AppealRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Appeal, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Appeal, error)
}

type appealRepository struct {
	db *gorm.DB
}

// NewAppealRepository creates a new appeal repository
func NewAppealRepository(db *gorm.DB) AppealRepository {
	return &appealRepository{db: db}
}

func (r *appealRepository) GetByID(ctx context.Context, id uint) (*models.Appeal, error) {
	var appeal models.Appeal
	err := r.db.WithContext(ctx).First(&appeal, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("appeal", id)
	}
	if err != nil {
		return nil, err
	}
	return &appeal, nil
}

func (r *appealRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Appeal, error) {
	var appeals []*models.Appeal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&appeals).Error
	return appeals, err
}
