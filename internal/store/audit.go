package store

import (
	"context"

	"gorm.io/gorm"

	"accauth/internal/models"
)

var _ AuditLogs = (*GormAuditLogs)(nil)

type GormAuditLogs struct {
	db *gorm.DB
}

func NewGormAuditLogs(db *gorm.DB) *GormAuditLogs {
	return &GormAuditLogs{db: db}
}

func (r *GormAuditLogs) Append(ctx context.Context, e *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *GormAuditLogs) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := r.db.WithContext(ctx).
		Order("created_at desc").Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *GormAuditLogs) RecentForUser(ctx context.Context, userID string, limit int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").Limit(limit).
		Find(&out).Error
	return out, err
}
