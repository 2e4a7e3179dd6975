package models

import (
	"time"
)

// Penalty kinds, ordered by severity. The escalation rule upgrades along
// this order and never downgrades.
const (
	PenaltyWarning    = "warning"
	PenaltySuspension = "suspension"
	PenaltyBan        = "ban"
)

// Penalty statuses.
const (
	PenaltyActive  = "active"
	PenaltyExpired = "expired"
	PenaltyRevoked = "revoked"
)

// PenaltySeverity returns the rank of a penalty kind in the escalation
// order, or -1 for an unknown kind.
func PenaltySeverity(kind string) int {
	switch kind {
	case PenaltyWarning:
		return 0
	case PenaltySuspension:
		return 1
	case PenaltyBan:
		return 2
	default:
		return -1
	}
}

// Penalty is a sanction issued against a user. A nil ExpiresAt means
// permanent: such penalties are never auto-expired by the sweep.
type Penalty struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Kind      string     `gorm:"not null" json:"kind"`
	Reason    string     `gorm:"not null" json:"reason"`
	IssuedBy  uint       `gorm:"not null" json:"issued_by"`
	IssuedAt  time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	Status    string     `gorm:"not null;default:active;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
