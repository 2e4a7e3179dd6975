package models

import (
	"time"
)

// Idea moderation statuses.
const (
	IdeaPending     = "pending"
	IdeaApproved    = "approved"
	IdeaRejected    = "rejected"
	IdeaPendingEdit = "pending_edit"
)

// Idea represents a citizen-submitted idea under moderation.
//
// PreviousStatus is set only while Status is pending_edit; it records the
// status to restore when the edit is rejected without an explicit override.
//
// Soft deletion is a plain DeletedAt column rather than gorm.DeletedAt:
// public queries filter it out, but moderators, appeals, and the audit
// trail still need to read removed rows without Unscoped.
type Idea struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Title          string     `gorm:"not null" json:"title"`
	Content        string     `gorm:"not null" json:"content"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	User           User       `gorm:"foreignKey:UserID" json:"user"`
	Status         string     `gorm:"not null;default:pending;index" json:"status"`
	PreviousStatus *string    `json:"previous_status,omitempty"`
	EditCount      int        `gorm:"not null;default:0" json:"edit_count"`
	LastEditAt     *time.Time `json:"last_edit_at,omitempty"`

	DeletedAt      *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	DeletedBy      *uint      `json:"deleted_by,omitempty"`
	DeletionReason string     `json:"deletion_reason,omitempty"`

	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"-" json:"comments_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Deleted reports whether the idea was soft-deleted by moderation.
func (i *Idea) Deleted() bool {
	return i.DeletedAt != nil
}
