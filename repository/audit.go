package repository

import (
	"context"

	"civica/models"

	"gorm.io/gorm"
)

// AuditRepository defines the interface for audit log access.
// The log is append-only: there is deliberately no update or delete.
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditEntry, error)
	ListForTarget(ctx context.Context, targetType string, targetID uint, limit, offset int) ([]*models.AuditEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListForUser returns entries where the user is either the actor or the target,
// for compliance/export use.
func (r *auditRepository) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditEntry, error) {
	var entries []*models.AuditEntry
	err := r.db.WithContext(ctx).
		Where("actor_id = ? OR (target_type = ? AND target_id = ?)", userID, models.TargetUser, userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

func (r *auditRepository) ListForTarget(ctx context.Context, targetType string, targetID uint, limit, offset int) ([]*models.AuditEntry, error) {
	var entries []*models.AuditEntry
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}
