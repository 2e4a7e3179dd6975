package models

import (
	"time"
)

// WatchlistEntry flags a user for heightened manual review. Created
// automatically when the active-penalty count crosses the configured
// threshold; cleared manually by an admin. The partial unique index keeps
// at most one open entry per user even under concurrent flagging.
type WatchlistEntry struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index;uniqueIndex:idx_watchlist_one_open,where:cleared_at IS NULL" json:"user_id"`
	Reason    string     `gorm:"not null" json:"reason"`
	FlaggedAt time.Time  `gorm:"not null" json:"flagged_at"`
	ClearedAt *time.Time `json:"cleared_at,omitempty"`
	ClearedBy *uint      `json:"cleared_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open reports whether the entry still requires review.
func (w *WatchlistEntry) Open() bool {
	return w.ClearedAt == nil
}
