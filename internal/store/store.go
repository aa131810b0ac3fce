// Package store holds the typed repositories over the relational schema.
// One repository per entity; the service layer composes them.
package store

import (
	"context"
	"errors"
	"time"

	"accauth/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Users owns the user table. Email lookups are exact-match: the stored
// casing is authoritative and no normalization happens here.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	// Create inserts u and fills in its ID. A uniqueness violation on email
	// surfaces as ErrDuplicateEmail so the registration check-then-act race
	// resolves correctly.
	Create(ctx context.Context, u *models.User) error
	// UpdatePassword stores a new hash and stamps passwordChangedAt.
	// Silently a no-op when the email is unknown.
	UpdatePassword(ctx context.Context, email, hash string) error
	UpdateLastLogin(ctx context.Context, id string) error
	Save(ctx context.Context, u *models.User) error
	// List returns all users, newest first.
	List(ctx context.Context) ([]models.User, error)
}

// ResetTokens owns password-reset rows: issue, verify, consume, and the
// atomic redeem that closes the verify/consume race.
type ResetTokens interface {
	// Issue mints a fresh random token for email, deleting any prior rows
	// for that email first (at most one live token per email). Returns the
	// raw token for out-of-band delivery.
	Issue(ctx context.Context, email string) (string, error)
	// Verify returns the row matching token, or ErrNotFound when missing or
	// expired. Expired rows stay in place; Verify never consumes.
	Verify(ctx context.Context, token string) (*models.PasswordResetToken, error)
	// Consume unconditionally deletes the row with this token value.
	Consume(ctx context.Context, token string) error
	// Redeem deletes the row only if it exists and is unexpired, returning
	// it. A single conditional delete, so concurrent redeems of one token
	// yield at most one success.
	Redeem(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error)
}

// Sessions owns device/activity tracking rows. Touch and Deactivate are
// scoped to the owning user: a row that is missing or belongs to someone
// else yields ErrNotFound.
type Sessions interface {
	Create(ctx context.Context, s *models.UserSession) error
	Touch(ctx context.Context, id, userID string, at time.Time) error
	Deactivate(ctx context.Context, id, userID string) error
	DeactivateAll(ctx context.Context, userID string) error
	Active(ctx context.Context, userID string) ([]models.UserSession, error)
}

// AuditLogs owns the append path. Rows are never mutated or deleted.
type AuditLogs interface {
	Append(ctx context.Context, e *models.AuditLog) error
	Recent(ctx context.Context, limit int) ([]models.AuditLog, error)
	RecentForUser(ctx context.Context, userID string, limit int) ([]models.AuditLog, error)
}
