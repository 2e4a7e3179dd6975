package moderation

import (
	"context"
	"log/slog"
	"time"

	"civica/models"

	"gorm.io/gorm"
)

// scrubPlaceholder replaces the content of soft-deleted rows past the
// retention window. Rows are kept so the audit trail stays intact.
const scrubPlaceholder = "[removed]"

// RetentionJob scrubs the content of soft-deleted ideas and comments older
// than the retention window. The rows themselves are never physically
// deleted. The WHERE predicates make the job idempotent: a second run in
// the same period finds nothing left to scrub.
type RetentionJob struct {
	db            *gorm.DB
	logger        *slog.Logger
	retentionDays int
	now           func() time.Time
}

func NewRetentionJob(db *gorm.DB, logger *slog.Logger, retentionDays int) *RetentionJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionJob{
		db:            db,
		logger:        logger,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// Run executes one retention pass.
func (j *RetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().AddDate(0, 0, -j.retentionDays)

	ideas := j.db.WithContext(ctx).Model(&models.Idea{}).
		Where("deleted_at IS NOT NULL AND deleted_at < ? AND content <> ?", cutoff, scrubPlaceholder).
		Updates(map[string]any{"title": scrubPlaceholder, "content": scrubPlaceholder})
	if ideas.Error != nil {
		return ideas.Error
	}

	comments := j.db.WithContext(ctx).Model(&models.Comment{}).
		Where("deleted_at IS NOT NULL AND deleted_at < ? AND content <> ?", cutoff, scrubPlaceholder).
		Update("content", scrubPlaceholder)
	if comments.Error != nil {
		return comments.Error
	}

	if ideas.RowsAffected > 0 || comments.RowsAffected > 0 {
		j.logger.Info("retention pass completed",
			"ideas_scrubbed", ideas.RowsAffected,
			"comments_scrubbed", comments.RowsAffected,
		)
	}
	return nil
}
