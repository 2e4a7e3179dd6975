package models

import (
	"time"
)

// Appeal statuses.
const (
	AppealPending  = "pending"
	AppealApproved = "approved"
	AppealRejected = "rejected"
)

// Appeal is a user-initiated contest of a Penalty. At most one pending
// appeal may exist per penalty; the partial unique index enforces that at
// the store, so two in-flight submissions cannot both land. The terminal
// state is set exactly once by an admin decision.
type Appeal struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PenaltyID uint       `gorm:"not null;index;uniqueIndex:idx_appeals_one_pending,where:status = 'pending'" json:"penalty_id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Reason    string     `gorm:"not null" json:"reason"`
	Status    string     `gorm:"not null;default:pending;index" json:"status"`
	DecidedBy *uint      `json:"decided_by,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Decided reports whether the appeal reached a terminal state.
func (a *Appeal) Decided() bool {
	return a.Status != AppealPending
}

// AppealResponse is the API shape returned for appeal operations.
type AppealResponse struct {
	ID        uint      `json:"id"`
	PenaltyID uint      `json:"penalty_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts the appeal to its API shape.
func (a *Appeal) ToResponse() AppealResponse {
	return AppealResponse{
		ID:        a.ID,
		PenaltyID: a.PenaltyID,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}
