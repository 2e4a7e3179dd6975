package repository

import (
	"context"
	"errors"

	"civica/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// ListVisibleByIdea returns non-hidden, non-deleted comments for an idea.
	// viewerID (0 for anonymous) is used to compute Liked.
	ListVisibleByIdea(ctx context.Context, ideaID, viewerID uint, limit, offset int) ([]*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("comment", id)
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListVisibleByIdea(ctx context.Context, ideaID, viewerID uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("idea_id = ? AND is_hidden = ? AND deleted_at IS NULL", ideaID, false).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	if viewerID != 0 && len(comments) > 0 {
		ids := make([]uint, 0, len(comments))
		for _, c := range comments {
			ids = append(ids, c.ID)
		}
		var liked []uint
		err = r.db.WithContext(ctx).
			Model(&models.CommentLike{}).
			Where("user_id = ? AND comment_id IN ?", viewerID, ids).
			Pluck("comment_id", &liked).Error
		if err != nil {
			return nil, err
		}
		likedSet := make(map[uint]bool, len(liked))
		for _, id := range liked {
			likedSet[id] = true
		}
		for _, c := range comments {
			c.Liked = likedSet[c.ID]
		}
	}

	return comments, nil
}
