package service_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"accauth/internal/auth"
	"accauth/internal/models"
	"accauth/internal/rbac"
	"accauth/internal/service"
	"accauth/internal/store"
)

const testSecret = "test-secret"

func newTestAuth(t *testing.T) (*service.Auth, *memUsers, *memResets, *memSessions, *memAudit) {
	t.Helper()
	users := &memUsers{byEmail: map[string]*models.User{}}
	resets := &memResets{}
	sessions := &memSessions{}
	audits := &memAudit{}
	svc := service.NewAuth(users, resets, sessions, audits,
		auth.NewHasher(2), auth.NewTokenManager(testSecret, time.Hour),
		zap.NewNop().Sugar())
	return svc, users, resets, sessions, audits
}

func register(t *testing.T, svc *service.Auth, email, password string) string {
	t.Helper()
	id, err := svc.Register(context.Background(), service.RegisterInput{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  password,
	}, service.RequestMeta{IPAddress: "127.0.0.1", UserAgent: "go-test"})
	require.NoError(t, err)
	return id
}

func TestRegister(t *testing.T) {
	t.Parallel()

	svc, users, _, _, audits := newTestAuth(t)
	id := register(t, svc, "e@x.com", "longenough")
	require.NotEmpty(t, id)

	u := users.byEmail["e@x.com"]
	require.NotNil(t, u)
	require.Equal(t, id, u.ID)
	require.Equal(t, "Test User", u.Name)
	require.Equal(t, rbac.RoleEmployee, u.Role)
	require.Equal(t, rbac.StatusActive, u.Status)
	require.False(t, u.IsEmailVerified)
	require.NotNil(t, u.PasswordHash)
	require.NotEqual(t, "longenough", *u.PasswordHash)
	require.NotNil(t, u.PasswordChangedAt)
	require.Equal(t, "user_registered", audits.last().Action)
	require.JSONEq(t, `{"role":"employee"}`, string(audits.last().Metadata))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newTestAuth(t)
	register(t, svc, "e@x.com", "longenough")

	_, err := svc.Register(context.Background(), service.RegisterInput{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "e@x.com",
		Password:  "different1",
	}, service.RequestMeta{})
	require.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newTestAuth(t)
	_, err := svc.Register(context.Background(), service.RegisterInput{
		FirstName: "A",
		LastName:  "B",
		Email:     "a@x.com",
		Password:  "short",
	}, service.RequestMeta{})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "password", verr.Field)

	_, err = svc.Register(context.Background(), service.RegisterInput{
		FirstName: "A",
		LastName:  "B",
		Email:     "a@x.com",
		Password:  "longenough",
		Role:      "overlord",
	}, service.RequestMeta{})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "role", verr.Field)
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	svc, users, _, sessions, audits := newTestAuth(t)
	id := register(t, svc, "e@x.com", "longenough")

	res, err := svc.Login(context.Background(), "e@x.com", "longenough",
		service.RequestMeta{IPAddress: "10.0.0.1", UserAgent: "cli", DeviceInfo: "laptop"})
	require.NoError(t, err)
	require.Equal(t, id, res.User.ID)
	require.NotEmpty(t, res.SessionID)
	require.Len(t, sessions.rows, 1)
	require.NotNil(t, users.byEmail["e@x.com"].LastLoginAt)
	require.Equal(t, "user_login", audits.last().Action)
	require.JSONEq(t, `{"method":"credentials"}`, string(audits.last().Metadata))

	claims, err := auth.NewTokenManager(testSecret, time.Hour).Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, id, claims.UserID)
	require.Equal(t, rbac.RoleEmployee, claims.Role)
}

func TestLoginUniformDenial(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newTestAuth(t)
	register(t, svc, "e@x.com", "longenough")

	// OAuth-only account: no password hash.
	_, err := svc.OAuthSignIn(context.Background(), "oauth@x.com", "O Auth", service.RequestMeta{})
	require.NoError(t, err)

	for name, attempt := range map[string][2]string{
		"unknown email":      {"nobody@x.com", "longenough"},
		"wrong password":     {"e@x.com", "wrongwrong"},
		"oauth-only account": {"oauth@x.com", "longenough"},
	} {
		_, err := svc.Login(context.Background(), attempt[0], attempt[1], service.RequestMeta{})
		require.ErrorIs(t, err, service.ErrInvalidCredentials, name)
	}
}

func TestOAuthSignInCreatesUser(t *testing.T) {
	t.Parallel()

	svc, users, _, _, _ := newTestAuth(t)
	res, err := svc.OAuthSignIn(context.Background(), "new@x.com", "Grace Hopper", service.RequestMeta{})
	require.NoError(t, err)

	u := users.byEmail["new@x.com"]
	require.NotNil(t, u)
	require.Nil(t, u.PasswordHash)
	require.Equal(t, rbac.StatusActive, u.Status)
	require.True(t, u.IsEmailVerified)
	require.Equal(t, rbac.RoleEmployee, u.Role)
	require.NotNil(t, u.FirstName)
	require.Equal(t, "Grace", *u.FirstName)
	require.NotNil(t, u.LastName)
	require.Equal(t, "Hopper", *u.LastName)
	require.NotEmpty(t, res.Token)

	// Second sign-in finds the same account.
	again, err := svc.OAuthSignIn(context.Background(), "new@x.com", "Grace Hopper", service.RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, res.User.ID, again.User.ID)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	t.Parallel()

	svc, _, resets, _, audits := newTestAuth(t)
	err := svc.ForgotPassword(context.Background(), "ghost@x.com", service.RequestMeta{})
	require.NoError(t, err)
	require.Empty(t, resets.rows)
	require.Empty(t, audits.entries)
}

func TestForgotPasswordSupersedesPriorToken(t *testing.T) {
	t.Parallel()

	svc, _, resets, _, _ := newTestAuth(t)
	register(t, svc, "e@x.com", "longenough")

	require.NoError(t, svc.ForgotPassword(context.Background(), "e@x.com", service.RequestMeta{}))
	require.Len(t, resets.rows, 1)
	first := resets.rows[0].Token

	require.NoError(t, svc.ForgotPassword(context.Background(), "e@x.com", service.RequestMeta{}))
	require.Len(t, resets.rows, 1)
	require.NotEqual(t, first, resets.rows[0].Token)

	_, err := resets.Verify(context.Background(), first)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	svc, _, resets, _, audits := newTestAuth(t)
	register(t, svc, "e@x.com", "longenough")
	require.NoError(t, svc.ForgotPassword(context.Background(), "e@x.com", service.RequestMeta{}))
	token := resets.rows[0].Token

	require.NoError(t, svc.ResetPassword(context.Background(), token, "brandnewpw", service.RequestMeta{}))
	require.Equal(t, "password_reset_completed", audits.last().Action)

	// Old password rejected, new one accepted.
	_, err := svc.Login(context.Background(), "e@x.com", "longenough", service.RequestMeta{})
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "e@x.com", "brandnewpw", service.RequestMeta{})
	require.NoError(t, err)

	// The token was consumed by the first redemption.
	err = svc.ResetPassword(context.Background(), token, "anotherpw1", service.RequestMeta{})
	require.ErrorIs(t, err, service.ErrInvalidOrExpiredToken)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	t.Parallel()

	svc, users, resets, _, _ := newTestAuth(t)
	register(t, svc, "e@x.com", "longenough")
	before := *users.byEmail["e@x.com"].PasswordHash

	require.NoError(t, svc.ForgotPassword(context.Background(), "e@x.com", service.RequestMeta{}))
	resets.expire(resets.rows[0].Token)

	err := svc.ResetPassword(context.Background(), resets.rows[0].Token, "brandnewpw", service.RequestMeta{})
	require.ErrorIs(t, err, service.ErrInvalidOrExpiredToken)
	require.Equal(t, before, *users.byEmail["e@x.com"].PasswordHash)
}

func TestSessionMutationScopedToOwner(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newTestAuth(t)
	register(t, svc, "a@x.com", "longenough")
	register(t, svc, "b@x.com", "longenough")

	resA, err := svc.Login(context.Background(), "a@x.com", "longenough", service.RequestMeta{})
	require.NoError(t, err)
	resB, err := svc.Login(context.Background(), "b@x.com", "longenough", service.RequestMeta{})
	require.NoError(t, err)

	// One user cannot touch or deactivate another's tracked session.
	err = svc.DeactivateSession(context.Background(), resB.SessionID, resA.User.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	err = svc.TouchSession(context.Background(), resB.SessionID, resA.User.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	active, err := svc.ActiveSessions(context.Background(), resB.User.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.True(t, active[0].IsActive)

	// The owner can.
	require.NoError(t, svc.DeactivateSession(context.Background(), resB.SessionID, resB.User.ID))
	active, err = svc.ActiveSessions(context.Background(), resB.User.ID)
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestAuditFailureDoesNotFailPrimaryOperation(t *testing.T) {
	t.Parallel()

	svc, users, _, _, audits := newTestAuth(t)
	audits.fail = errors.New("audit store down")

	id := register(t, svc, "e@x.com", "longenough")
	require.NotEmpty(t, id)
	require.NotNil(t, users.byEmail["e@x.com"])
}

func TestClaimsRefreshPicksUpRoleChange(t *testing.T) {
	t.Parallel()

	svc, users, _, _, _ := newTestAuth(t)
	id := register(t, svc, "e@x.com", "longenough")

	res, err := svc.Login(context.Background(), "e@x.com", "longenough", service.RequestMeta{})
	require.NoError(t, err)

	users.byEmail["e@x.com"].Role = rbac.RoleAdmin

	tm := auth.NewTokenManager(testSecret, time.Hour)
	stale, err := tm.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, rbac.RoleEmployee, stale.Role)

	refreshed, err := svc.OnClaimsRefresh(context.Background(), id)
	require.NoError(t, err)
	fresh, err := tm.Verify(refreshed)
	require.NoError(t, err)
	require.Equal(t, rbac.RoleAdmin, fresh.Role)
}

// In-memory fakes implementing the store interfaces.

type memUsers struct {
	byEmail map[string]*models.User
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return store.ErrDuplicateEmail
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, email, hash string) error {
	if u, ok := m.byEmail[email]; ok {
		now := time.Now()
		u.PasswordHash = &hash
		u.PasswordChangedAt = &now
		u.UpdatedAt = now
	}
	return nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id string) error {
	for _, u := range m.byEmail {
		if u.ID == id {
			now := time.Now()
			u.LastLoginAt = &now
		}
	}
	return nil
}

func (m *memUsers) Save(_ context.Context, u *models.User) error {
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(m.byEmail))
	for _, u := range m.byEmail {
		out = append(out, *u)
	}
	return out, nil
}

type memResets struct {
	rows []models.PasswordResetToken
}

func (m *memResets) Issue(_ context.Context, email string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.Email != email {
			kept = append(kept, r)
		}
	}
	m.rows = append(kept, models.PasswordResetToken{
		ID:      uuid.NewString(),
		Email:   email,
		Token:   token,
		Expires: time.Now().Add(time.Hour),
	})
	return token, nil
}

func (m *memResets) Verify(_ context.Context, token string) (*models.PasswordResetToken, error) {
	for i := range m.rows {
		if m.rows[i].Token == token && m.rows[i].Expires.After(time.Now()) {
			return &m.rows[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memResets) Consume(_ context.Context, token string) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.Token != token {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func (m *memResets) Redeem(_ context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	for i, r := range m.rows {
		if r.Token == token && r.Expires.After(now) {
			row := r
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return &row, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memResets) expire(token string) {
	for i := range m.rows {
		if m.rows[i].Token == token {
			m.rows[i].Expires = time.Now().Add(-time.Minute)
		}
	}
}

type memSessions struct {
	rows []models.UserSession
}

func (m *memSessions) Create(_ context.Context, s *models.UserSession) error {
	m.rows = append(m.rows, *s)
	return nil
}

func (m *memSessions) Touch(_ context.Context, id, userID string, at time.Time) error {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows[i].LastActivity = at
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memSessions) Deactivate(_ context.Context, id, userID string) error {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows[i].IsActive = false
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memSessions) DeactivateAll(_ context.Context, userID string) error {
	for i := range m.rows {
		if m.rows[i].UserID == userID {
			m.rows[i].IsActive = false
		}
	}
	return nil
}

func (m *memSessions) Active(_ context.Context, userID string) ([]models.UserSession, error) {
	var out []models.UserSession
	for _, r := range m.rows {
		if r.UserID == userID && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

type memAudit struct {
	entries []models.AuditLog
	fail    error
}

func (m *memAudit) Append(_ context.Context, e *models.AuditLog) error {
	if m.fail != nil {
		return m.fail
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memAudit) Recent(_ context.Context, limit int) ([]models.AuditLog, error) {
	if len(m.entries) > limit {
		return m.entries[len(m.entries)-limit:], nil
	}
	return m.entries, nil
}

func (m *memAudit) RecentForUser(_ context.Context, userID string, limit int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, e := range m.entries {
		if e.UserID != nil && *e.UserID == userID {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memAudit) last() models.AuditLog {
	if len(m.entries) == 0 {
		return models.AuditLog{}
	}
	return m.entries[len(m.entries)-1]
}
