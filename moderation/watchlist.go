package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civica/models"

	"gorm.io/gorm"
)

// WatchlistService flags users whose penalty history crosses the review
// threshold and lets admins clear the flag after manual review.
type WatchlistService struct {
	db       *gorm.DB
	recorder *Recorder
	notifier Notifier

	// threshold is the active-penalty count at which a user is flagged.
	threshold int

	now func() time.Time
}

func NewWatchlistService(db *gorm.DB, recorder *Recorder, notifier Notifier, threshold int) *WatchlistService {
	return &WatchlistService{
		db:        db,
		recorder:  recorder,
		notifier:  notifier,
		threshold: threshold,
		now:       time.Now,
	}
}

// Observe re-evaluates a user after a penalty is issued. When the user's
// active-penalty count reaches the threshold and no entry is already open
// for the user, a new entry is created. Returns nil when nothing was
// flagged.
func (s *WatchlistService) Observe(ctx context.Context, userID uint, now time.Time) (*models.WatchlistEntry, error) {
	var active int64
	err := s.db.WithContext(ctx).Model(&models.Penalty{}).
		Where("user_id = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)",
			userID, models.PenaltyActive, now).
		Count(&active).Error
	if err != nil {
		return nil, err
	}
	if int(active) < s.threshold {
		return nil, nil
	}

	var open models.WatchlistEntry
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND cleared_at IS NULL", userID).
		First(&open).Error
	if err == nil {
		// Already flagged; one open entry per user.
		return nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entry := &models.WatchlistEntry{
		UserID:    userID,
		Reason:    fmt.Sprintf("%d active penalties", active),
		FlaggedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		// Lost a flagging race: the unique index on open entries means
		// someone else just created one, which is the already-flagged no-op.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil
		}
		return nil, err
	}

	// Actor 0 marks a system-initiated action. Targeting the user keeps the
	// flag visible in that user's compliance export.
	s.recorder.Record(ctx, 0, "watchlist.flagged", models.TargetUser, userID,
		fmt.Sprintf("entry_id=%d", entry.ID))
	notifyEvent(ctx, s.notifier, EventUserWatchlisted,
		"User flagged for review",
		fmt.Sprintf("User #%d flagged: %s", userID, entry.Reason),
		fmt.Sprintf("/admin/watchlist/%d", entry.ID))
	return entry, nil
}

// Clear marks an entry as reviewed. Clearing an already-cleared entry is a
// no-op, not an error.
func (s *WatchlistService) Clear(ctx context.Context, adminID, entryID uint) (*models.WatchlistEntry, error) {
	var entry models.WatchlistEntry
	err := s.db.WithContext(ctx).First(&entry, entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("watchlist entry", entryID)
	}
	if err != nil {
		return nil, err
	}
	if !entry.Open() {
		return &entry, nil
	}

	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.WatchlistEntry{}).
		Where("id = ? AND cleared_at IS NULL", entryID).
		Updates(map[string]any{"cleared_at": now, "cleared_by": adminID})
	if res.Error != nil {
		return nil, res.Error
	}
	// RowsAffected 0 means someone else cleared it first, which is the
	// same no-op outcome.
	entry.ClearedAt = &now
	entry.ClearedBy = &adminID

	s.recorder.Record(ctx, adminID, "watchlist.cleared", models.TargetWatchlist, entryID, "")
	notifyEvent(ctx, s.notifier, EventWatchlistCleared,
		"Watchlist entry cleared",
		fmt.Sprintf("Entry #%d cleared by admin #%d", entryID, adminID),
		"")
	return &entry, nil
}
