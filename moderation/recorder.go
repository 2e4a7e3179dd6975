package moderation

import (
	"context"
	"log/slog"
	"time"

	"civica/models"
	"civica/repository"

	"github.com/google/uuid"
)

// Recorder writes the immutable audit log. Record is best-effort: an audit
// write failure must never fail or roll back the governing operation, so it
// is only logged.
type Recorder struct {
	repo   repository.AuditRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewRecorder(repo repository.AuditRepository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger, now: time.Now}
}

// Record appends an audit entry. Failures are swallowed after logging.
func (r *Recorder) Record(ctx context.Context, actorID uint, action, targetType string, targetID uint, details string) {
	if r == nil || r.repo == nil {
		return
	}
	entry := &models.AuditEntry{
		EventID:    uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  r.now(),
	}
	if err := r.repo.Append(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Error("audit append failed",
			"action", action,
			"target_type", targetType,
			"target_id", targetID,
			"error", err,
		)
	}
}

// ListForUser returns the audit trail involving a user, newest first.
func (r *Recorder) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditEntry, error) {
	return r.repo.ListForUser(ctx, userID, limit, offset)
}

// ListForTarget returns the moderation history of one target, newest first.
func (r *Recorder) ListForTarget(ctx context.Context, targetType string, targetID uint, limit, offset int) ([]*models.AuditEntry, error) {
	return r.repo.ListForTarget(ctx, targetType, targetID, limit, offset)
}
