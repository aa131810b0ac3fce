package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"accauth/internal/models"
)

var _ Users = (*GormUsers)(nil)

type GormUsers struct {
	db *gorm.DB
}

func NewGormUsers(db *gorm.DB) *GormUsers {
	return &GormUsers{db: db}
}

func (r *GormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUsers) Create(ctx context.Context, u *models.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if isDuplicateKey(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *GormUsers) UpdatePassword(ctx context.Context, email, hash string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"password_hash":       hash,
			"password_changed_at": now,
			"updated_at":          now,
		}).Error
}

func (r *GormUsers) UpdateLastLogin(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", time.Now()).Error
}

func (r *GormUsers) Save(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *GormUsers) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

// isDuplicateKey catches a unique-constraint violation both through GORM's
// translated error and the raw SQLSTATE, since translation depends on the
// gorm.Config used to open the connection.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "SQLSTATE 23505")
}
