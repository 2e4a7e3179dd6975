package models

import (
	"time"
)

// Comment represents a comment on an idea.
//
// LikeCount is a persisted counter kept in lockstep with CommentLike rows;
// the like toggle updates both inside one transaction.
type Comment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Content   string     `gorm:"not null" json:"content"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	IdeaID    uint       `gorm:"not null;index" json:"idea_id"`
	User      User       `gorm:"foreignKey:UserID" json:"user"`
	IsHidden  bool       `gorm:"not null;default:false" json:"is_hidden"`
	LikeCount int        `gorm:"not null;default:0" json:"like_count"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	// Liked indicates whether the current requesting user liked this comment (computed)
	Liked bool `gorm:"-" json:"liked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Deleted reports whether the comment was soft-deleted.
func (c *Comment) Deleted() bool {
	return c.DeletedAt != nil
}

// CommentLike represents a user's like on a comment.
// The combination of UserID and CommentID must be unique.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_comment" json:"user_id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_user_comment" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}
