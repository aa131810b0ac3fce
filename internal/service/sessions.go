package service

import (
	"context"
	"time"

	"accauth/internal/models"
)

// TouchSession records an activity ping against one of userID's tracked
// sessions. A session owned by anyone else is store.ErrNotFound.
func (s *Auth) TouchSession(ctx context.Context, id, userID string) error {
	return s.sessions.Touch(ctx, id, userID, time.Now())
}

// DeactivateSession marks one of userID's tracked sessions inactive. The
// signed claims stay valid until their own expiry; this only drops the
// device from the activity list.
func (s *Auth) DeactivateSession(ctx context.Context, id, userID string) error {
	return s.sessions.Deactivate(ctx, id, userID)
}

// DeactivateAllSessions drops every tracked session for a user, e.g. after
// a password change from an unrecognized device.
func (s *Auth) DeactivateAllSessions(ctx context.Context, userID string) error {
	return s.sessions.DeactivateAll(ctx, userID)
}

// ActiveSessions lists a user's tracked sessions, most recently active
// first.
func (s *Auth) ActiveSessions(ctx context.Context, userID string) ([]models.UserSession, error) {
	return s.sessions.Active(ctx, userID)
}

// RecentAuditLogs returns the newest entries, optionally scoped to one
// user.
func (s *Auth) RecentAuditLogs(ctx context.Context, userID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	if userID != "" {
		return s.auditLog.RecentForUser(ctx, userID, limit)
	}
	return s.auditLog.Recent(ctx, limit)
}

// User fetches one user row for profile display.
func (s *Auth) User(ctx context.Context, id string) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// ListUsers backs the admin directory view.
func (s *Auth) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}
