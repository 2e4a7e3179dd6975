package repository

import (
	"context"
	"errors"
	"time"

	"civica/models"

	"gorm.io/gorm"
)

// PenaltyRepository defines the interface for penalty data operations
type PenaltyRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Penalty, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Penalty, error)
	// ActiveByUser returns active penalties that have not lapsed as of now,
	// even if the expiry sweep has not yet run.
	ActiveByUser(ctx context.Context, userID uint, now time.Time) ([]*models.Penalty, error)
}

type penaltyRepository struct {
	db *gorm.DB
}

// NewPenaltyRepository creates a new penalty repository
func NewPenaltyRepository(db *gorm.DB) PenaltyRepository {
	return &penaltyRepository{db: db}
}

func (r *penaltyRepository) GetByID(ctx context.Context, id uint) (*models.Penalty, error) {
	var penalty models.Penalty
	err := r.db.WithContext(ctx).First(&penalty, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("penalty", id)
	}
	if err != nil {
		return nil, err
	}
	return &penalty, nil
}

func (r *penaltyRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Penalty, error) {
	var penalties []*models.Penalty
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&penalties).Error
	return penalties, err
}

func (r *penaltyRepository) ActiveByUser(ctx context.Context, userID uint, now time.Time) ([]*models.Penalty, error) {
	var penalties []*models.Penalty
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)",
			userID, models.PenaltyActive, now).
		Order("issued_at DESC").
		Find(&penalties).Error
	return penalties, err
}
