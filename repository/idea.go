package repository

import (
	"context"
	"errors"

	"civica/models"

	"gorm.io/gorm"
)

// IdeaRepository defines the interface for idea data operations. Writes go
// through the lifecycle service, which owns the status machine; the
// repository is read-side only.
type IdeaRepository interface {
	// GetByID returns the idea regardless of moderation state; callers
	// decide whether a soft-deleted row may be shown.
	GetByID(ctx context.Context, id uint) (*models.Idea, error)
	// GetVisibleByID returns only approved, non-deleted ideas.
	GetVisibleByID(ctx context.Context, id uint) (*models.Idea, error)
	ListPublic(ctx context.Context, limit, offset int) ([]*models.Idea, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Idea, error)
	ListForReview(ctx context.Context, limit, offset int) ([]*models.Idea, error)
}

type ideaRepository struct {
	db *gorm.DB
}

// NewIdeaRepository creates a new idea repository
func NewIdeaRepository(db *gorm.DB) IdeaRepository {
	return &ideaRepository{db: db}
}

// visibleIdeas is the derived public view: approved and not soft-deleted.
func visibleIdeas(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND deleted_at IS NULL", models.IdeaApproved)
}

func (r *ideaRepository) GetByID(ctx context.Context, id uint) (*models.Idea, error) {
	var idea models.Idea
	err := r.db.WithContext(ctx).Preload("User").First(&idea, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("idea", id)
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

func (r *ideaRepository) GetVisibleByID(ctx context.Context, id uint) (*models.Idea, error) {
	var idea models.Idea
	err := visibleIdeas(r.db.WithContext(ctx)).Preload("User").First(&idea, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("idea", id)
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

func (r *ideaRepository) ListPublic(ctx context.Context, limit, offset int) ([]*models.Idea, error) {
	var ideas []*models.Idea
	err := visibleIdeas(r.db.WithContext(ctx)).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&ideas).Error
	return ideas, err
}

func (r *ideaRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Idea, error) {
	var ideas []*models.Idea
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&ideas).Error
	return ideas, err
}

func (r *ideaRepository) ListForReview(ctx context.Context, limit, offset int) ([]*models.Idea, error) {
	var ideas []*models.Idea
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status IN ? AND deleted_at IS NULL", []string{models.IdeaPending, models.IdeaPendingEdit}).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&ideas).Error
	return ideas, err
}
