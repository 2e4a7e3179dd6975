package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civica/models"

	"gorm.io/gorm"
)

// LifecycleService governs idea and comment state: submission, moderation
// approval/rejection, edits of published ideas, soft deletion, comment
// visibility, and like toggling.
//
// Idea transitions are linearized through guarded UPDATEs: the WHERE clause
// pins the status observed at read time, so of two concurrent conflicting
// transitions exactly one wins and the loser gets a retryable conflict.
type LifecycleService struct {
	db       *gorm.DB
	recorder *Recorder
	notifier Notifier

	// restoreOnEditReject controls the default edit-rejection policy: when
	// true, rejecting a pending_edit submission restores the idea to its
	// previous status instead of leaving it rejected. A moderator can
	// override per call.
	restoreOnEditReject bool

	now func() time.Time
}

func NewLifecycleService(db *gorm.DB, recorder *Recorder, notifier Notifier, restoreOnEditReject bool) *LifecycleService {
	return &LifecycleService{
		db:                  db,
		recorder:            recorder,
		notifier:            notifier,
		restoreOnEditReject: restoreOnEditReject,
		now:                 time.Now,
	}
}

// CreateIdea submits a new idea in pending status.
func (s *LifecycleService) CreateIdea(ctx context.Context, userID uint, title, content string) (*models.Idea, error) {
	if title == "" || content == "" {
		return nil, models.NewValidationError("Title and content are required")
	}

	idea := &models.Idea{
		Title:   title,
		Content: content,
		UserID:  userID,
		Status:  models.IdeaPending,
	}
	if err := s.db.WithContext(ctx).Create(idea).Error; err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, userID, "idea.created", models.TargetIdea, idea.ID, "")
	return idea, nil
}

// SubmitEdit applies an author edit. Editing an approved idea moves it to
// pending_edit for re-moderation, recording the previous status and bumping
// the edit counter; editing a still-pending submission updates it in place.
func (s *LifecycleService) SubmitEdit(ctx context.Context, authorID, ideaID uint, title, content string) (*models.Idea, error) {
	if title == "" || content == "" {
		return nil, models.NewValidationError("Title and content are required")
	}

	idea, err := s.loadIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if idea.UserID != authorID {
		return nil, models.NewUnauthorizedError("You can only edit your own ideas")
	}
	if idea.Deleted() {
		return nil, models.NewBusinessRuleError("idea was removed and cannot be edited")
	}

	now := s.now()
	var updates map[string]any
	switch idea.Status {
	case models.IdeaApproved:
		updates = map[string]any{
			"title":           title,
			"content":         content,
			"status":          models.IdeaPendingEdit,
			"previous_status": models.IdeaApproved,
			"edit_count":      gorm.Expr("edit_count + 1"),
			"last_edit_at":    now,
		}
	case models.IdeaPending, models.IdeaPendingEdit:
		updates = map[string]any{
			"title":        title,
			"content":      content,
			"last_edit_at": now,
		}
	default:
		return nil, models.NewBusinessRuleError("rejected ideas cannot be edited")
	}

	if err := s.transitionIdea(ctx, idea, updates); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, authorID, "idea.edited", models.TargetIdea, idea.ID,
		fmt.Sprintf("status=%s", idea.Status))
	return s.loadIdea(ctx, ideaID)
}

// ApproveIdea publishes a pending submission or a pending edit.
func (s *LifecycleService) ApproveIdea(ctx context.Context, moderatorID, ideaID uint) (*models.Idea, error) {
	idea, err := s.loadIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if idea.Deleted() {
		return nil, models.NewBusinessRuleError("cannot moderate a deleted idea")
	}
	if idea.Status != models.IdeaPending && idea.Status != models.IdeaPendingEdit {
		return nil, models.NewBusinessRuleError(
			fmt.Sprintf("idea in status %q cannot be approved", idea.Status))
	}

	updates := map[string]any{
		"status":          models.IdeaApproved,
		"previous_status": nil,
	}
	if err := s.transitionIdea(ctx, idea, updates); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, moderatorID, "idea.approved", models.TargetIdea, idea.ID, "")
	notifyEvent(ctx, s.notifier, EventIdeaApproved,
		"Idea approved",
		fmt.Sprintf("Idea #%d approved by moderator #%d", idea.ID, moderatorID),
		fmt.Sprintf("/ideas/%d", idea.ID))
	return s.loadIdea(ctx, ideaID)
}

// RejectIdea rejects a pending submission or a pending edit.
//
// Rejecting a pending_edit submission restores the idea to its previous
// status (keeping the previously published revision visible) when the
// restore policy applies; the rejection of the edit itself is still
// audited. With override, or when the policy is disabled, the idea lands
// in rejected.
func (s *LifecycleService) RejectIdea(ctx context.Context, moderatorID, ideaID uint, override bool, reason string) (*models.Idea, error) {
	idea, err := s.loadIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if idea.Deleted() {
		return nil, models.NewBusinessRuleError("cannot moderate a deleted idea")
	}
	if idea.Status != models.IdeaPending && idea.Status != models.IdeaPendingEdit {
		return nil, models.NewBusinessRuleError(
			fmt.Sprintf("idea in status %q cannot be rejected", idea.Status))
	}

	action := "idea.rejected"
	event := EventIdeaRejected
	target := models.IdeaRejected
	if idea.Status == models.IdeaPendingEdit {
		action = "idea.edit_rejected"
		event = EventIdeaEditRejected
		if s.restoreOnEditReject && !override && idea.PreviousStatus != nil {
			target = *idea.PreviousStatus
		}
	}

	updates := map[string]any{
		"status":          target,
		"previous_status": nil,
	}
	if err := s.transitionIdea(ctx, idea, updates); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("restored_to=%s", target)
	if reason != "" {
		details = fmt.Sprintf("%s reason=%s", details, reason)
	}
	s.recorder.Record(ctx, moderatorID, action, models.TargetIdea, idea.ID, details)
	notifyEvent(ctx, s.notifier, event,
		"Idea rejected",
		fmt.Sprintf("Idea #%d rejected by moderator #%d", idea.ID, moderatorID),
		fmt.Sprintf("/ideas/%d", idea.ID))
	return s.loadIdea(ctx, ideaID)
}

// DeleteIdea soft-deletes an idea. The row is retained for audit and
// appeal use; public queries exclude it via the deleted_at predicate.
func (s *LifecycleService) DeleteIdea(ctx context.Context, moderatorID, ideaID uint, reason string) error {
	idea, err := s.loadIdea(ctx, ideaID)
	if err != nil {
		return err
	}
	if idea.Deleted() {
		return models.NewBusinessRuleError("idea is already deleted")
	}

	res := s.db.WithContext(ctx).Model(&models.Idea{}).
		Where("id = ? AND deleted_at IS NULL", ideaID).
		Updates(map[string]any{
			"deleted_at":      s.now(),
			"deleted_by":      moderatorID,
			"deletion_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("idea", ideaID)
	}

	s.recorder.Record(ctx, moderatorID, "idea.deleted", models.TargetIdea, ideaID, reason)
	notifyEvent(ctx, s.notifier, EventIdeaDeleted,
		"Idea removed",
		fmt.Sprintf("Idea #%d removed by moderator #%d: %s", ideaID, moderatorID, reason),
		"")
	return nil
}

// SetCommentHidden hides or unhides a comment. Visibility is orthogonal to
// the idea state machine and to soft deletion. Setting the flag to its
// current value is a no-op.
func (s *LifecycleService) SetCommentHidden(ctx context.Context, moderatorID, commentID uint, hidden bool) (*models.Comment, error) {
	comment, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.IsHidden == hidden {
		return comment, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", commentID).
		Update("is_hidden", hidden).Error; err != nil {
		return nil, err
	}
	comment.IsHidden = hidden

	action := "comment.unhidden"
	if hidden {
		action = "comment.hidden"
		notifyEvent(ctx, s.notifier, EventCommentHidden,
			"Comment hidden",
			fmt.Sprintf("Comment #%d hidden by moderator #%d", commentID, moderatorID),
			"")
	}
	s.recorder.Record(ctx, moderatorID, action, models.TargetComment, commentID, "")
	return comment, nil
}

// DeleteComment soft-deletes a comment. Hiding and deletion are
// independent: a hidden comment can also be deleted.
func (s *LifecycleService) DeleteComment(ctx context.Context, moderatorID, commentID uint) error {
	comment, err := s.loadComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.Deleted() {
		return models.NewBusinessRuleError("comment is already deleted")
	}

	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND deleted_at IS NULL", commentID).
		Update("deleted_at", s.now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("comment", commentID)
	}

	s.recorder.Record(ctx, moderatorID, "comment.deleted", models.TargetComment, commentID, "")
	return nil
}

// ToggleCommentLike flips the caller's like on a comment with exactly-once
// semantics: a second toggle reverses the first. The like row and the
// denormalized counter change inside one transaction so concurrent toggles
// from different users cannot drift the counter.
func (s *LifecycleService) ToggleCommentLike(ctx context.Context, userID, commentID uint) (liked bool, comment *models.Comment, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Comment
		if err := tx.First(&c, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("comment", commentID)
			}
			return err
		}
		if c.Deleted() {
			return models.NewBusinessRuleError("cannot like a deleted comment")
		}
		if c.IsHidden {
			return models.NewBusinessRuleError("cannot like a hidden comment")
		}
		if c.UserID == userID {
			return models.NewBusinessRuleError("cannot like your own comment")
		}

		var like models.CommentLike
		err := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).First(&like).Error
		switch {
		case err == nil:
			// Second toggle: remove the like. The RowsAffected guard keeps
			// the counter honest if a concurrent toggle already removed it.
			res := tx.Where("id = ?", like.ID).Delete(&models.CommentLike{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewConflictError("comment like", commentID)
			}
			if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
				Update("like_count", gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END")).Error; err != nil {
				return err
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			// First toggle: the unique (user, comment) index turns a racing
			// duplicate insert into an error instead of a double count.
			if err := tx.Create(&models.CommentLike{UserID: userID, CommentID: commentID}).Error; err != nil {
				return models.NewConflictError("comment like", commentID)
			}
			if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
				Update("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
				return err
			}
			liked = true
		default:
			return err
		}

		return tx.First(&c, commentID).Error
	})
	if err != nil {
		return false, nil, err
	}

	comment, err = s.loadComment(ctx, commentID)
	if err != nil {
		return false, nil, err
	}
	comment.Liked = liked

	s.recorder.Record(ctx, userID, "comment.like_toggled", models.TargetComment, commentID,
		fmt.Sprintf("liked=%t", liked))
	return liked, comment, nil
}

// transitionIdea applies updates guarded by the status observed on idea.
// RowsAffected 0 means a concurrent transition won; the caller gets a
// retryable conflict rather than a business-rule failure.
func (s *LifecycleService) transitionIdea(ctx context.Context, idea *models.Idea, updates map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.Idea{}).
		Where("id = ? AND status = ? AND deleted_at IS NULL", idea.ID, idea.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("idea", idea.ID)
	}
	return nil
}

func (s *LifecycleService) loadIdea(ctx context.Context, id uint) (*models.Idea, error) {
	var idea models.Idea
	err := s.db.WithContext(ctx).First(&idea, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("idea", id)
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

func (s *LifecycleService) loadComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("comment", id)
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}
