package repository

import (
	"context"
	"errors"

	"civica/models"

	"gorm.io/gorm"
)

// WatchlistRepository defines the interface for watchlist data operations
type WatchlistRepository interface {
	GetByID(ctx context.Context, id uint) (*models.WatchlistEntry, error)
	OpenForUser(ctx context.Context, userID uint) (*models.WatchlistEntry, error)
	ListOpen(ctx context.Context, limit, offset int) ([]*models.WatchlistEntry, error)
}

type watchlistRepository struct {
	db *gorm.DB
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

func (r *watchlistRepository) GetByID(ctx context.Context, id uint) (*models.WatchlistEntry, error) {
	var entry models.WatchlistEntry
	err := r.db.WithContext(ctx).First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("watchlist entry", id)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *watchlistRepository) OpenForUser(ctx context.Context, userID uint) (*models.WatchlistEntry, error) {
	var entry models.WatchlistEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND cleared_at IS NULL", userID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *watchlistRepository) ListOpen(ctx context.Context, limit, offset int) ([]*models.WatchlistEntry, error) {
	var entries []*models.WatchlistEntry
	err := r.db.WithContext(ctx).
		Where("cleared_at IS NULL").
		Order("flagged_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}
