package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"accauth/internal/models"
)

var _ Sessions = (*GormSessions)(nil)

type GormSessions struct {
	db *gorm.DB
}

func NewGormSessions(db *gorm.DB) *GormSessions {
	return &GormSessions{db: db}
}

func (r *GormSessions) Create(ctx context.Context, s *models.UserSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *GormSessions) Touch(ctx context.Context, id, userID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.UserSession{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("last_activity", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormSessions) Deactivate(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).Model(&models.UserSession{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormSessions) DeactivateAll(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&models.UserSession{}).
		Where("user_id = ?", userID).
		Update("is_active", false).Error
}

func (r *GormSessions) Active(ctx context.Context, userID string) ([]models.UserSession, error) {
	var out []models.UserSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("last_activity desc").
		Find(&out).Error
	return out, err
}
