package models

import (
	"time"
)

// Audit target types.
const (
	TargetIdea      = "idea"
	TargetComment   = "comment"
	TargetPenalty   = "penalty"
	TargetAppeal    = "appeal"
	TargetWatchlist = "watchlist"
	TargetUser      = "user"
)

// AuditEntry is an immutable record of a state-changing action.
// Rows are append-only: never updated, never deleted.
type AuditEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EventID    string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"event_id"`
	ActorID    uint      `gorm:"not null;index" json:"actor_id"`
	Action     string    `gorm:"not null;index" json:"action"`
	TargetType string    `gorm:"not null" json:"target_type"`
	TargetID   uint      `gorm:"not null;index" json:"target_id"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
