package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civica/models"

	"gorm.io/gorm"
)

// AppealService lets a penalized user contest a penalty and an admin
// adjudicate it. Submission is deliberately reachable by banned and
// suspended users: the penalized user is the intended caller.
type AppealService struct {
	db       *gorm.DB
	recorder *Recorder
	notifier Notifier
	now      func() time.Time
}

func NewAppealService(db *gorm.DB, recorder *Recorder, notifier Notifier) *AppealService {
	return &AppealService{db: db, recorder: recorder, notifier: notifier, now: time.Now}
}

// Submit files an appeal against a penalty owned by userID. A penalty that
// does not exist or belongs to someone else is reported as not found; a
// penalty with a pending appeal already on file is a business-rule failure.
func (s *AppealService) Submit(ctx context.Context, userID, penaltyID uint, reason string) (*models.Appeal, error) {
	if reason == "" {
		return nil, models.NewValidationError("A reason is required")
	}

	var appeal *models.Appeal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var penalty models.Penalty
		err := tx.Where("id = ? AND user_id = ?", penaltyID, userID).First(&penalty).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("penalty", penaltyID)
		}
		if err != nil {
			return err
		}

		var pending int64
		if err := tx.Model(&models.Appeal{}).
			Where("penalty_id = ? AND status = ?", penaltyID, models.AppealPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return models.NewBusinessRuleError("a pending appeal already exists for this penalty")
		}

		appeal = &models.Appeal{
			PenaltyID: penaltyID,
			UserID:    userID,
			Reason:    reason,
			Status:    models.AppealPending,
		}
		// The partial unique index on pending appeals backstops the count
		// above: under read committed two submissions can both see zero
		// pending rows, and the loser surfaces here.
		if err := tx.Create(appeal).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.NewBusinessRuleError("a pending appeal already exists for this penalty")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, userID, "appeal.submitted", models.TargetAppeal, appeal.ID,
		fmt.Sprintf("penalty_id=%d", penaltyID))
	notifyEvent(ctx, s.notifier, EventAppealSubmitted,
		"Appeal submitted",
		fmt.Sprintf("User #%d appealed penalty #%d: %s", userID, penaltyID, reason),
		fmt.Sprintf("/admin/appeals/%d", appeal.ID))
	return appeal, nil
}

// Decide records the admin decision on a pending appeal, exactly once.
// Approval also revokes the penalty; content visibility is not restored
// automatically, that stays a separate moderator action. Re-deciding a
// terminal appeal fails instead of silently succeeding.
func (s *AppealService) Decide(ctx context.Context, adminID, appealID uint, approve bool) (*models.Appeal, error) {
	var appeal models.Appeal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&appeal, appealID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("appeal", appealID)
		}
		if err != nil {
			return err
		}
		if appeal.Decided() {
			return models.NewBusinessRuleError("appeal has already been decided")
		}

		status := models.AppealRejected
		if approve {
			status = models.AppealApproved
		}
		now := s.now()

		// Guarded on pending so two concurrent decisions cannot both land.
		res := tx.Model(&models.Appeal{}).
			Where("id = ? AND status = ?", appealID, models.AppealPending).
			Updates(map[string]any{
				"status":     status,
				"decided_by": adminID,
				"decided_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewConflictError("appeal", appealID)
		}

		if approve {
			if err := tx.Model(&models.Penalty{}).
				Where("id = ?", appeal.PenaltyID).
				Update("status", models.PenaltyRevoked).Error; err != nil {
				return err
			}
		}

		appeal.Status = status
		appeal.DecidedBy = &adminID
		appeal.DecidedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := "rejected"
	if approve {
		outcome = "approved"
	}
	s.recorder.Record(ctx, adminID, "appeal.decided", models.TargetAppeal, appealID,
		fmt.Sprintf("outcome=%s penalty_id=%d", outcome, appeal.PenaltyID))
	notifyEvent(ctx, s.notifier, EventAppealDecided,
		"Appeal decided",
		fmt.Sprintf("Appeal #%d %s by admin #%d", appealID, outcome, adminID),
		"")
	return &appeal, nil
}
