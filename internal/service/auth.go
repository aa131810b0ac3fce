// Package service implements the credential and session lifecycle flows on
// top of the store repositories.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"accauth/internal/auth"
	"accauth/internal/models"
	"accauth/internal/rbac"
	"accauth/internal/store"
)

var (
	// ErrInvalidCredentials covers every credential-login denial: unknown
	// email, OAuth-only account, wrong password. Callers must not be able
	// to tell which.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOrExpiredToken is the single denial for reset completion.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)

// ValidationError rejects a malformed registration field. Field-specific
// detail is fine here; registration carries no enumeration risk.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// RequestMeta is the per-request context recorded into audit entries and
// tracked sessions.
type RequestMeta struct {
	IPAddress  string
	UserAgent  string
	DeviceInfo string
}

// Auth composes the repositories, hasher and token manager into the
// externally visible authentication operations.
type Auth struct {
	users    store.Users
	resets   store.ResetTokens
	sessions store.Sessions
	auditLog store.AuditLogs
	hasher   *auth.Hasher
	tokens   *auth.TokenManager
	lg       *zap.SugaredLogger
}

func NewAuth(users store.Users, resets store.ResetTokens, sessions store.Sessions,
	auditLog store.AuditLogs, hasher *auth.Hasher, tokens *auth.TokenManager,
	lg *zap.SugaredLogger) *Auth {
	return &Auth{
		users:    users,
		resets:   resets,
		sessions: sessions,
		auditLog: auditLog,
		hasher:   hasher,
		tokens:   tokens,
		lg:       lg,
	}
}

// RegisterInput carries the normalized profile and credential fields.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Address     string
	City        string
	State       string
	ZipCode     string
	Country     string
	DateOfBirth *time.Time
	Department  string
	Position    string
	EmployeeID  string
	Password    string
	Role        string
}

func (in *RegisterInput) validate() error {
	if in.FirstName == "" {
		return &ValidationError{Field: "firstName", Reason: "required"}
	}
	if in.LastName == "" {
		return &ValidationError{Field: "lastName", Reason: "required"}
	}
	if in.Email == "" {
		return &ValidationError{Field: "email", Reason: "required"}
	}
	if len(in.Password) < 8 {
		return &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	if in.Role != "" && !rbac.ValidRole(in.Role) {
		return &ValidationError{Field: "role", Reason: "unknown role"}
	}
	return nil
}

// Register creates a credential-based account and returns its id. The
// existence check is not atomic with the insert; the unique index on email
// is the real safety net, and Create maps its violation to
// store.ErrDuplicateEmail.
func (s *Auth) Register(ctx context.Context, in RegisterInput, meta RequestMeta) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return "", store.ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	role := in.Role
	if role == "" {
		role = rbac.RoleEmployee
	}
	country := in.Country
	if country == "" {
		country = "US"
	}
	u := &models.User{
		ID:                uuid.NewString(),
		Name:              in.FirstName + " " + in.LastName,
		Email:             in.Email,
		PasswordHash:      &hash,
		FirstName:         optional(in.FirstName),
		LastName:          optional(in.LastName),
		Phone:             optional(in.Phone),
		Address:           optional(in.Address),
		City:              optional(in.City),
		State:             optional(in.State),
		ZipCode:           optional(in.ZipCode),
		Country:           country,
		DateOfBirth:       in.DateOfBirth,
		Department:        optional(in.Department),
		Position:          optional(in.Position),
		EmployeeID:        optional(in.EmployeeID),
		Role:              role,
		Status:            rbac.StatusActive,
		IsEmailVerified:   false,
		PasswordChangedAt: &now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}

	s.audit(ctx, &models.AuditLog{
		UserID:     &u.ID,
		Action:     "user_registered",
		Resource:   optional("user"),
		ResourceID: &u.ID,
		Details:    optional("New user registered: " + in.Email),
		IPAddress:  optional(meta.IPAddress),
		UserAgent:  optional(meta.UserAgent),
		Metadata:   auditMetadata(map[string]string{"role": role}),
	})
	return u.ID, nil
}

// LoginResult is what a successful authentication hands back to the HTTP
// collaborator.
type LoginResult struct {
	User      *models.User
	Token     string
	SessionID string
}

// Login authenticates an email/password pair. Every failure mode returns
// ErrInvalidCredentials.
func (s *Auth) Login(ctx context.Context, email, password string, meta RequestMeta) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(ctx, password, *u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, u.ID); err != nil {
		s.lg.Warnw("update last login failed", "user_id", u.ID, "error", err)
	}

	token, err := s.OnClaimsIssue(u)
	if err != nil {
		return nil, fmt.Errorf("issue claims: %w", err)
	}
	sessionID, err := s.trackSession(ctx, u.ID, meta)
	if err != nil {
		s.lg.Warnw("session tracking failed", "user_id", u.ID, "error", err)
	}

	s.audit(ctx, &models.AuditLog{
		UserID:     &u.ID,
		Action:     "user_login",
		Resource:   optional("user"),
		ResourceID: &u.ID,
		Details:    optional("User logged in: " + u.Email),
		IPAddress:  optional(meta.IPAddress),
		UserAgent:  optional(meta.UserAgent),
		Metadata:   auditMetadata(map[string]string{"method": "credentials"}),
	})
	return &LoginResult{User: u, Token: token, SessionID: sessionID}, nil
}

// OAuthSignIn accepts an identity already verified by the external provider
// and finds or creates the matching account. New accounts start active with
// a verified email and no password hash.
func (s *Auth) OAuthSignIn(ctx context.Context, email, displayName string, meta RequestMeta) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		u = &models.User{
			ID:              uuid.NewString(),
			Name:            displayName,
			Email:           email,
			Role:            rbac.RoleEmployee,
			Status:          rbac.StatusActive,
			IsEmailVerified: true,
		}
		if err := s.users.Create(ctx, u); err != nil {
			// A concurrent first sign-in won the insert; use its row.
			if errors.Is(err, store.ErrDuplicateEmail) {
				if u, err = s.users.FindByEmail(ctx, email); err != nil {
					return nil, fmt.Errorf("find user after duplicate: %w", err)
				}
			} else {
				return nil, fmt.Errorf("create user: %w", err)
			}
		} else if err := s.OnIdentityCreated(ctx, u.ID, displayName, nil); err != nil {
			s.lg.Warnw("identity sync failed", "user_id", u.ID, "error", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, u.ID); err != nil {
		s.lg.Warnw("update last login failed", "user_id", u.ID, "error", err)
	}

	token, err := s.OnClaimsIssue(u)
	if err != nil {
		return nil, fmt.Errorf("issue claims: %w", err)
	}
	sessionID, err := s.trackSession(ctx, u.ID, meta)
	if err != nil {
		s.lg.Warnw("session tracking failed", "user_id", u.ID, "error", err)
	}

	s.audit(ctx, &models.AuditLog{
		UserID:     &u.ID,
		Action:     "oauth_signin",
		Resource:   optional("user"),
		ResourceID: &u.ID,
		Details:    optional("OAuth sign-in: " + u.Email),
		IPAddress:  optional(meta.IPAddress),
		UserAgent:  optional(meta.UserAgent),
		Metadata:   auditMetadata(map[string]string{"method": "oauth"}),
	})
	return &LoginResult{User: u, Token: token, SessionID: sessionID}, nil
}

// ForgotPassword issues a reset token when the account exists. It returns
// nil either way: an unknown email must be indistinguishable from a known
// one, and leaves no audit row naming a user.
func (s *Auth) ForgotPassword(ctx context.Context, email string, meta RequestMeta) error {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	token, err := s.resets.Issue(ctx, email)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	// Delivery is the mail collaborator's job; surface the token only in
	// debug logs, mirroring the development behavior this replaces.
	s.lg.Debugw("password reset token issued", "email", email, "token", token)

	s.audit(ctx, &models.AuditLog{
		UserID:     &u.ID,
		Action:     "password_reset_requested",
		Resource:   optional("user"),
		ResourceID: &u.ID,
		Details:    optional("Password reset requested for " + email),
		IPAddress:  optional(meta.IPAddress),
		UserAgent:  optional(meta.UserAgent),
	})
	return nil
}

// ResetPassword redeems a token and installs a new password. Redeem is a
// single conditional delete, so two concurrent completions with the same
// token cannot both succeed.
func (s *Auth) ResetPassword(ctx context.Context, token, newPassword string, meta RequestMeta) error {
	if len(newPassword) < 8 {
		return &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	// The token is consumed before the password write. A store failure
	// after this point burns the token without changing the password, and
	// the user must request a fresh one; the token can never be spent
	// twice.
	row, err := s.resets.Redeem(ctx, token, time.Now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidOrExpiredToken
	}
	if err != nil {
		return fmt.Errorf("redeem reset token: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, row.Email, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if u, err := s.users.FindByEmail(ctx, row.Email); err == nil {
		s.audit(ctx, &models.AuditLog{
			UserID:     &u.ID,
			Action:     "password_reset_completed",
			Resource:   optional("user"),
			ResourceID: &u.ID,
			Details:    optional("Password successfully reset"),
			IPAddress:  optional(meta.IPAddress),
			UserAgent:  optional(meta.UserAgent),
		})
	}
	return nil
}

// OnClaimsIssue mints session claims for an authenticated identity. The
// role captured here rides in the token until refresh; a later role change
// stays invisible for the remainder of the token's life.
func (s *Auth) OnClaimsIssue(u *models.User) (string, error) {
	return s.tokens.Sign(u.ID, u.Role)
}

// OnClaimsRefresh re-issues claims from the current user row, which is how
// a role change takes effect.
func (s *Auth) OnClaimsRefresh(ctx context.Context, userID string) (string, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.tokens.Sign(u.ID, u.Role)
}

// OnIdentityCreated backfills name parts (and avatar, when supplied) from
// the provider's display name on first OAuth sign-in.
func (s *Auth) OnIdentityCreated(ctx context.Context, userID, displayName string, image *string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	first, rest, _ := strings.Cut(displayName, " ")
	u.FirstName = optional(first)
	u.LastName = optional(rest)
	if image != nil {
		u.Image = image
	}
	return s.users.Save(ctx, u)
}

func (s *Auth) trackSession(ctx context.Context, userID string, meta RequestMeta) (string, error) {
	row := &models.UserSession{
		ID:           uuid.NewString(),
		UserID:       userID,
		DeviceInfo:   optional(meta.DeviceInfo),
		IPAddress:    optional(meta.IPAddress),
		UserAgent:    optional(meta.UserAgent),
		IsActive:     true,
		LastActivity: time.Now(),
	}
	if err := s.sessions.Create(ctx, row); err != nil {
		return "", err
	}
	return row.ID, nil
}

// audit appends an entry without letting a failure reach the primary
// operation it annotates.
func (s *Auth) audit(ctx context.Context, e *models.AuditLog) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := s.auditLog.Append(ctx, e); err != nil {
		s.lg.Warnw("audit append failed", "action", e.Action, "error", err)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// auditMetadata marshals structured audit fields for the JSONB column.
func auditMetadata(fields map[string]string) models.JSONB {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return models.JSONB(b)
}
