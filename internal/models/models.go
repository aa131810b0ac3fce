package models

import (
	"strings"
	"time"
)

// User is the single source of truth for an account. OAuth-only users have
// no PasswordHash; credential users always do.
type User struct {
	ID                 string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name               string     `json:"name"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash       *string    `json:"-"`
	Image              *string    `json:"image,omitempty"`
	FirstName          *string    `json:"first_name,omitempty"`
	LastName           *string    `json:"last_name,omitempty"`
	Phone              *string    `json:"phone,omitempty"`
	Address            *string    `json:"address,omitempty"`
	City               *string    `json:"city,omitempty"`
	State              *string    `json:"state,omitempty"`
	ZipCode            *string    `json:"zip_code,omitempty"`
	Country            string     `gorm:"default:US" json:"country"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	Role               string     `gorm:"not null;default:employee" json:"role"`
	Status             string     `gorm:"not null;default:pending_verification" json:"status"`
	Department         *string    `json:"department,omitempty"`
	Position           *string    `json:"position,omitempty"`
	EmployeeID         *string    `json:"employee_id,omitempty"`
	HireDate           *time.Time `json:"hire_date,omitempty"`
	IsEmailVerified    bool       `gorm:"not null;default:false" json:"is_email_verified"`
	IsPhoneVerified    bool       `gorm:"not null;default:false" json:"is_phone_verified"`
	IsTwoFactorEnabled bool       `gorm:"not null;default:false" json:"is_two_factor_enabled"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	PasswordChangedAt  *time.Time `json:"password_changed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// FullName joins the non-empty name parts. Accounts synced from an identity
// provider may have neither part yet.
func (u *User) FullName() string {
	parts := make([]string, 0, 2)
	if u.FirstName != nil && *u.FirstName != "" {
		parts = append(parts, *u.FirstName)
	}
	if u.LastName != nil && *u.LastName != "" {
		parts = append(parts, *u.LastName)
	}
	if len(parts) == 0 {
		return "Unknown User"
	}
	return strings.Join(parts, " ")
}

// PasswordResetToken proves control of an email address. At most one live
// row per email; issuing a new token deletes older rows first.
type PasswordResetToken struct {
	ID        string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string    `gorm:"index;not null" json:"email"`
	Token     string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	Expires   time.Time `gorm:"not null" json:"expires"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSession tracks a signed-in device. Claims validation never reads this
// table; it exists for activity display and remote sign-out.
type UserSession struct {
	ID           string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       string    `gorm:"type:uuid;index;not null" json:"user_id"`
	DeviceInfo   *string   `json:"device_info,omitempty"`
	IPAddress    *string   `json:"ip_address,omitempty"`
	UserAgent    *string   `json:"user_agent,omitempty"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	LastActivity time.Time `gorm:"not null" json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditLog rows are append-only.
type AuditLog struct {
	ID         string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *string   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action     string    `gorm:"not null" json:"action"`
	Resource   *string   `json:"resource,omitempty"`
	ResourceID *string   `json:"resource_id,omitempty"`
	Details    *string   `json:"details,omitempty"`
	IPAddress  *string   `json:"ip_address,omitempty"`
	UserAgent  *string   `json:"user_agent,omitempty"`
	Metadata   JSONB     `gorm:"type:jsonb;default:'{}'::jsonb" json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}
