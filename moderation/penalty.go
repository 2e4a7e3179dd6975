package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"civica/models"

	"gorm.io/gorm"
)

// PenaltyService issues and expires penalties, escalating severity based on
// the user's recent violation history.
type PenaltyService struct {
	db        *gorm.DB
	recorder  *Recorder
	notifier  Notifier
	watchlist *WatchlistService
	logger    *slog.Logger

	// escalationWindow is the trailing window in which prior penalties
	// count toward escalation.
	escalationWindow time.Duration

	now func() time.Time
}

func NewPenaltyService(db *gorm.DB, recorder *Recorder, notifier Notifier, watchlist *WatchlistService, logger *slog.Logger, escalationWindowDays int) *PenaltyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PenaltyService{
		db:               db,
		recorder:         recorder,
		notifier:         notifier,
		watchlist:        watchlist,
		logger:           logger,
		escalationWindow: time.Duration(escalationWindowDays) * 24 * time.Hour,
		now:              time.Now,
	}
}

// IssuePenalty creates an active penalty against a user. The requested kind
// may be escalated along warning < suspension < ban based on the number of
// prior penalties (active or expired, revoked ones excluded) issued within
// the trailing escalation window; the engine never downgrades. A ban is
// permanent: ExpiresAt stays nil and the sweep never touches it.
func (s *PenaltyService) IssuePenalty(ctx context.Context, adminID, userID uint, kind, reason string, duration time.Duration) (*models.Penalty, error) {
	if models.PenaltySeverity(kind) < 0 {
		return nil, models.NewValidationError(fmt.Sprintf("unknown penalty kind %q", kind))
	}
	if reason == "" {
		return nil, models.NewValidationError("A reason is required")
	}
	if kind != models.PenaltyBan && duration <= 0 {
		return nil, models.NewValidationError("A positive duration is required for non-ban penalties")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("user", userID)
		}
		return nil, err
	}

	now := s.now()
	effective, err := s.escalate(ctx, userID, kind, now)
	if err != nil {
		return nil, err
	}

	penalty := &models.Penalty{
		UserID:   userID,
		Kind:     effective,
		Reason:   reason,
		IssuedBy: adminID,
		IssuedAt: now,
		Status:   models.PenaltyActive,
	}
	if effective != models.PenaltyBan {
		expires := now.Add(duration)
		penalty.ExpiresAt = &expires
	}

	if err := s.db.WithContext(ctx).Create(penalty).Error; err != nil {
		return nil, err
	}

	// The audit target is the sanctioned user so the entry shows up in that
	// user's compliance export; the penalty id rides in the details.
	details := fmt.Sprintf("penalty_id=%d kind=%s reason=%s", penalty.ID, effective, reason)
	if effective != kind {
		details = fmt.Sprintf("%s escalated_from=%s", details, kind)
	}
	s.recorder.Record(ctx, adminID, "penalty.issued", models.TargetUser, userID, details)
	notifyEvent(ctx, s.notifier, EventPenaltyIssued,
		"Penalty issued",
		fmt.Sprintf("%s issued to user #%d: %s", effective, userID, reason),
		fmt.Sprintf("/admin/users/%d/penalties", userID))

	// Watchlist check rides on issuance as a side effect; its failure must
	// not fail the issuance itself.
	if s.watchlist != nil {
		if _, err := s.watchlist.Observe(ctx, userID, now); err != nil {
			s.logger.Error("watchlist check failed", "user_id", userID, "error", err)
		}
	}

	return penalty, nil
}

// escalate returns the effective kind for a new penalty: the requested kind
// raised to the severity floor implied by prior penalties in the window.
// One prior penalty floors at suspension, two or more floor at ban.
func (s *PenaltyService) escalate(ctx context.Context, userID uint, requested string, now time.Time) (string, error) {
	var prior int64
	err := s.db.WithContext(ctx).Model(&models.Penalty{}).
		Where("user_id = ? AND status IN ? AND issued_at > ?",
			userID,
			[]string{models.PenaltyActive, models.PenaltyExpired},
			now.Add(-s.escalationWindow)).
		Count(&prior).Error
	if err != nil {
		return "", err
	}

	floor := int(prior)
	if floor > models.PenaltySeverity(models.PenaltyBan) {
		floor = models.PenaltySeverity(models.PenaltyBan)
	}
	if models.PenaltySeverity(requested) >= floor {
		return requested, nil
	}
	switch floor {
	case 1:
		return models.PenaltySuspension, nil
	default:
		return models.PenaltyBan, nil
	}
}

// ExpirePenalties transitions lapsed active penalties to expired. Bans
// (nil expires_at) are skipped. The guarded UPDATE makes the sweep
// idempotent: running it twice in the same period expires nothing twice.
func (s *PenaltyService) ExpirePenalties(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Penalty{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
			models.PenaltyActive, s.now()).
		Update("status", models.PenaltyExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.logger.Info("penalty sweep completed", "expired", res.RowsAffected)
		notifyEvent(ctx, s.notifier, EventPenaltyExpired,
			"Penalties expired",
			fmt.Sprintf("%d penalties lapsed and were expired", res.RowsAffected),
			"")
	}
	return res.RowsAffected, nil
}

// HighestActiveKind returns the most severe active penalty kind for a user,
// or "" when the user is unpenalized. Lapsed-but-unswept penalties do not
// count.
func (s *PenaltyService) HighestActiveKind(ctx context.Context, userID uint) (string, error) {
	var penalties []models.Penalty
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)",
			userID, models.PenaltyActive, s.now()).
		Find(&penalties).Error
	if err != nil {
		return "", err
	}

	highest := ""
	for _, p := range penalties {
		if models.PenaltySeverity(p.Kind) > models.PenaltySeverity(highest) {
			highest = p.Kind
		}
	}
	return highest, nil
}
