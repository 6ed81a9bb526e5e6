package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/authcore-api/internal/application/company"
	"github.com/authcore-api/internal/application/mfa"
	"github.com/authcore-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) TransitionToVerified(ctx context.Context, sessionID string, idleExpiresAt, absExpiresAt int64, data map[string]string) error {
	return m.Called(ctx, sessionID, idleExpiresAt, absExpiresAt, data).Error(0)
}
func (m *mockSessionStore) ExtendIdle(ctx context.Context, sessionID string, idleExpiresAt int64) error {
	return m.Called(ctx, sessionID, idleExpiresAt).Error(0)
}
func (m *mockSessionStore) TransitionToTerminal(ctx context.Context, sessionID string, to domain.SessionState) error {
	return m.Called(ctx, sessionID, to).Error(0)
}
func (m *mockSessionStore) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	args := m.Called(ctx, userID)
	if s, _ := args.Get(0).([]domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCredentials struct{ mock.Mock }

func (m *mockCredentials) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMfa struct{ mock.Mock }

func (m *mockMfa) Send(ctx context.Context, userID string) (*mfa.Challenge, error) {
	args := m.Called(ctx, userID)
	if c, _ := args.Get(0).(*mfa.Challenge); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMfa) Verify(ctx context.Context, userID, code string) error {
	return m.Called(ctx, userID, code).Error(0)
}
func (m *mockMfa) VerifyRecovery(ctx context.Context, userID, recoveryCode string) error {
	return m.Called(ctx, userID, recoveryCode).Error(0)
}
func (m *mockMfa) Enable(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if c, _ := args.Get(0).([]string); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMfa) Disable(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockMfa) RegenerateRecoveryCodes(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if c, _ := args.Get(0).([]string); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDeviceTrust struct{ mock.Mock }

func (m *mockDeviceTrust) Issue(ctx context.Context, userID, fingerprint string) (string, time.Time, error) {
	args := m.Called(ctx, userID, fingerprint)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}
func (m *mockDeviceTrust) Validate(ctx context.Context, userID, rawToken string) bool {
	return m.Called(ctx, userID, rawToken).Bool(0)
}
func (m *mockDeviceTrust) RevokeAll(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockCompanies struct{ mock.Mock }

func (m *mockCompanies) ResolveActive(ctx context.Context, sess *domain.Session, u *domain.User) (string, error) {
	args := m.Called(ctx, sess, u)
	return args.String(0), args.Error(1)
}
func (m *mockCompanies) CanSwitch(ctx context.Context, u *domain.User) bool {
	return m.Called(ctx, u).Bool(0)
}
func (m *mockCompanies) Switch(ctx context.Context, sess *domain.Session, u *domain.User, targetCompanyID string) error {
	return m.Called(ctx, sess, u, targetCompanyID).Error(0)
}
func (m *mockCompanies) ListAccessible(ctx context.Context, sess *domain.Session, u *domain.User) ([]company.Grant, error) {
	args := m.Called(ctx, sess, u)
	if g, _ := args.Get(0).([]company.Grant); g != nil {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

type fixture struct {
	sessions *mockSessionStore
	users    *mockUserStore
	creds    *mockCredentials
	mfa      *mockMfa
	trust    *mockDeviceTrust
	cos      *mockCompanies
}

func newFixture() *fixture {
	return &fixture{
		sessions: &mockSessionStore{},
		users:    &mockUserStore{},
		creds:    &mockCredentials{},
		mfa:      &mockMfa{},
		trust:    &mockDeviceTrust{},
		cos:      &mockCompanies{},
	}
}

func (f *fixture) svc() Service {
	return NewService(ServiceDeps{
		SessionRepo:    f.sessions,
		UserRepo:       f.users,
		Credentials:    f.creds,
		Mfa:            f.mfa,
		DeviceTrust:    f.trust,
		Companies:      f.cos,
		IdleDefault:    2 * time.Hour,
		IdleRememberMe: 30 * 24 * time.Hour,
		AbsoluteMax:    90 * 24 * time.Hour,
		PendingTTL:     15 * time.Minute,
	})
}

func plainUser() *domain.User {
	return &domain.User{UserID: "user-1", Email: "alice@example.com", Role: domain.RoleMember, Enable: true}
}

func mfaUser() *domain.User {
	u := plainUser()
	u.MfaEnabled = true
	return u
}

func pendingSession() *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		SessionID:       "sess-1",
		UserID:          "user-1",
		ActiveCompanyID: "co-1",
		Source:          domain.SourceWeb,
		State:           domain.SessionPending,
		Data:            map[string]string{domain.SessionDataPendingMfa: "1"},
		IdleExpiresAt:   now.Add(10 * time.Minute).Unix(),
		AbsExpiresAt:    now.Add(10 * time.Minute).Unix(),
		CreatedAt:       now,
	}
}

func verifiedSession() *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		SessionID:       "sess-1",
		UserID:          "user-1",
		ActiveCompanyID: "co-1",
		Source:          domain.SourceWeb,
		State:           domain.SessionVerified,
		MfaVerified:     false,
		Data:            map[string]string{},
		IdleExpiresAt:   now.Add(time.Hour).Unix(),
		AbsExpiresAt:    now.Add(30 * 24 * time.Hour).Unix(),
		CreatedAt:       now,
	}
}

func loginReq() LoginRequest {
	return LoginRequest{
		Email:    "alice@example.com",
		Password: "pw",
		Source:   domain.SourceWeb,
	}
}

// --- Login tests ---

func TestLogin_NoMfa_Established(t *testing.T) {
	f := newFixture()
	f.creds.On("Verify", mock.Anything, "alice@example.com", "pw").Return(plainUser(), nil)
	f.cos.On("ResolveActive", mock.Anything, mock.Anything, mock.Anything).Return("co-1", nil)
	f.sessions.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)

	result, err := f.svc().Login(context.Background(), loginReq())

	require.NoError(t, err)
	assert.Equal(t, StatusEstablished, result.Status)
	assert.Equal(t, domain.SessionVerified, result.Session.State)
	assert.False(t, result.Session.MfaVerified)
	assert.NotEmpty(t, result.Session.SessionID)
	assert.Equal(t, "co-1", result.Session.ActiveCompanyID)
	assert.LessOrEqual(t, result.Session.IdleExpiresAt, result.Session.AbsExpiresAt)
	f.mfa.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestLogin_MfaEnabled_ChallengeRequired(t *testing.T) {
	f := newFixture()
	f.creds.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(mfaUser(), nil)
	f.cos.On("ResolveActive", mock.Anything, mock.Anything, mock.Anything).Return("co-1", nil)
	f.trust.On("Validate", mock.Anything, "user-1", "").Return(false)
	f.sessions.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	f.mfa.On("Send", mock.Anything, "user-1").Return(&mfa.Challenge{ExpiresIn: 600}, nil)

	result, err := f.svc().Login(context.Background(), loginReq())

	require.NoError(t, err)
	assert.Equal(t, StatusChallengeRequired, result.Status)
	assert.Equal(t, domain.SessionPending, result.Session.State)
	assert.Equal(t, "1", result.Session.Data[domain.SessionDataPendingMfa])
	assert.Equal(t, 600, result.Challenge.ExpiresIn)
	// A pending session must not outlive its challenge window.
	assert.Equal(t, result.Session.AbsExpiresAt, result.Session.IdleExpiresAt)
}

func TestLogin_TrustedDevice_SkipsChallenge(t *testing.T) {
	f := newFixture()
	f.creds.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(mfaUser(), nil)
	f.cos.On("ResolveActive", mock.Anything, mock.Anything, mock.Anything).Return("co-1", nil)
	f.trust.On("Validate", mock.Anything, "user-1", "trust-token").Return(true)
	f.sessions.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)

	req := loginReq()
	req.DeviceTrustToken = "trust-token"
	result, err := f.svc().Login(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, StatusEstablished, result.Status)
	assert.True(t, result.Session.MfaVerified)
	f.mfa.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestLogin_PriorSessionRevoked_FreshID(t *testing.T) {
	f := newFixture()
	f.creds.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(plainUser(), nil)
	f.cos.On("ResolveActive", mock.Anything, mock.Anything, mock.Anything).Return("co-1", nil)
	f.sessions.On("TransitionToTerminal", mock.Anything, "stale-id", domain.SessionRevoked).Return(nil)
	f.sessions.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)

	req := loginReq()
	req.PriorSessionID = "stale-id"
	result, err := f.svc().Login(context.Background(), req)

	require.NoError(t, err)
	assert.NotEqual(t, "stale-id", result.Session.SessionID)
	f.sessions.AssertCalled(t, "TransitionToTerminal", mock.Anything, "stale-id", domain.SessionRevoked)
}

func TestLogin_RememberMe_LongIdle(t *testing.T) {
	f := newFixture()
	f.creds.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(plainUser(), nil)
	f.cos.On("ResolveActive", mock.Anything, mock.Anything, mock.Anything).Return("co-1", nil)
	f.sessions.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)

	req := loginReq()
	req.RememberMe = true
	result, err := f.svc().Login(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, result.Session.RememberMe())
	wantIdle := time.Now().Add(30 * 24 * time.Hour).Unix()
	assert.InDelta(t, wantIdle, result.Session.IdleExpiresAt, 5)
}

func TestLogin_BadCredentials_NoSession(t *testing.T) {
	f := newFixture()
	f.creds.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidCredentials)

	_, err := f.svc().Login(context.Background(), loginReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
	f.sessions.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestLogin_NoActiveCompanies_NoSession(t *testing.T) {
	f := newFixture()
	f.creds.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(plainUser(), nil)
	f.cos.On("ResolveActive", mock.Anything, mock.Anything, mock.Anything).Return("", domain.ErrNoActiveCompanies)

	_, err := f.svc().Login(context.Background(), loginReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoActiveCompanies))
	f.sessions.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- Upgrade tests ---

func TestUpgrade_WithCode(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "sess-1").Return(pendingSession(), nil)
	f.mfa.On("Verify", mock.Anything, "user-1", "123456").Return(nil)
	f.sessions.On("TransitionToVerified", mock.Anything, "sess-1", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.users.On("Get", mock.Anything, "user-1").Return(mfaUser(), nil)

	result, err := f.svc().Upgrade(context.Background(), UpgradeRequest{SessionID: "sess-1", Code: "123456"})

	require.NoError(t, err)
	assert.Equal(t, domain.SessionVerified, result.Session.State)
	assert.True(t, result.Session.MfaVerified)
	assert.NotContains(t, result.Session.Data, domain.SessionDataPendingMfa)
	assert.LessOrEqual(t, result.Session.IdleExpiresAt, result.Session.AbsExpiresAt)
	assert.Empty(t, result.TrustToken)
}

func TestUpgrade_WithRecoveryCode(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "sess-1").Return(pendingSession(), nil)
	f.mfa.On("VerifyRecovery", mock.Anything, "user-1", "K7QW-M3ZP").Return(nil)
	f.sessions.On("TransitionToVerified", mock.Anything, "sess-1", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.users.On("Get", mock.Anything, "user-1").Return(mfaUser(), nil)

	result, err := f.svc().Upgrade(context.Background(), UpgradeRequest{SessionID: "sess-1", RecoveryCode: "K7QW-M3ZP"})

	require.NoError(t, err)
	assert.Equal(t, domain.SessionVerified, result.Session.State)
}

func TestUpgrade_TrustDevice_IssuesToken(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "sess-1").Return(pendingSession(), nil)
	f.mfa.On("Verify", mock.Anything, "user-1", "123456").Return(nil)
	f.sessions.On("TransitionToVerified", mock.Anything, "sess-1", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.users.On("Get", mock.Anything, "user-1").Return(mfaUser(), nil)
	expiry := time.Now().Add(30 * 24 * time.Hour)
	f.trust.On("Issue", mock.Anything, "user-1", "fp-abc").Return("raw-trust", expiry, nil)

	result, err := f.svc().Upgrade(context.Background(), UpgradeRequest{
		SessionID: "sess-1", Code: "123456", TrustDevice: true, Fingerprint: "fp-abc",
	})

	require.NoError(t, err)
	assert.Equal(t, "raw-trust", result.TrustToken)
	assert.Equal(t, expiry, result.TrustExpiresAt)
}

func TestUpgrade_UserLoadFailure_SessionStillEstablished(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "sess-1").Return(pendingSession(), nil)
	f.mfa.On("Verify", mock.Anything, "user-1", "123456").Return(nil)
	f.sessions.On("TransitionToVerified", mock.Anything, "sess-1", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.users.On("Get", mock.Anything, "user-1").Return(nil, domain.ErrStorage)

	result, err := f.svc().Upgrade(context.Background(), UpgradeRequest{SessionID: "sess-1", Code: "123456"})

	require.NoError(t, err)
	assert.Equal(t, domain.SessionVerified, result.Session.State)
	assert.Nil(t, result.Session.User, "envelope goes out without the user block")
}

func TestUpgrade_WrongCode(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "sess-1").Return(pendingSession(), nil)
	f.mfa.On("Verify", mock.Anything, "user-1", "000000").Return(domain.ErrInvalidCode)

	_, err := f.svc().Upgrade(context.Background(), UpgradeRequest{SessionID: "sess-1", Code: "000000"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
	f.sessions.AssertNotCalled(t, "TransitionToVerified", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpgrade_NotPending(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "sess-1").Return(verifiedSession(), nil)

	_, err := f.svc().Upgrade(context.Background(), UpgradeRequest{SessionID: "sess-1", Code: "123456"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoPendingMfa))
	f.mfa.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpgrade_ExpiredPendingSession(t *testing.T) {
	f := newFixture()
	sess := pendingSession()
	sess.IdleExpiresAt = time.Now().Add(-time.Minute).Unix()
	sess.AbsExpiresAt = sess.IdleExpiresAt
	f.sessions.On("Get", mock.Anything, "sess-1").Return(sess, nil)

	_, err := f.svc().Upgrade(context.Background(), UpgradeRequest{SessionID: "sess-1", Code: "123456"})

	assert.True(t, errors.Is(err, domain.ErrNoPendingMfa))
}

func TestUpgrade_LostRace(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "sess-1").Return(pendingSession(), nil)
	f.mfa.On("Verify", mock.Anything, "user-1", "123456").Return(nil)
	f.sessions.On("TransitionToVerified", mock.Anything, "sess-1", mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrConflict)

	_, err := f.svc().Upgrade(context.Background(), UpgradeRequest{SessionID: "sess-1", Code: "123456"})

	assert.True(t, errors.Is(err, domain.ErrNoPendingMfa))
}

func TestUpgrade_UnknownSession(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "sess-x").Return(nil, domain.ErrNotFound)

	_, err := f.svc().Upgrade(context.Background(), UpgradeRequest{SessionID: "sess-x", Code: "123456"})

	assert.True(t, errors.Is(err, domain.ErrNoPendingMfa))
}

// --- Touch tests ---

func TestTouch_ExtendsIdle(t *testing.T) {
	f := newFixture()
	sess := verifiedSession()
	f.sessions.On("ExtendIdle", mock.Anything, "sess-1", mock.Anything).Return(nil)

	err := f.svc().Touch(context.Background(), sess)

	require.NoError(t, err)
	wantIdle := time.Now().Add(2 * time.Hour).Unix()
	assert.InDelta(t, wantIdle, sess.IdleExpiresAt, 5)
}

func TestTouch_ClampsToAbsoluteExpiry(t *testing.T) {
	f := newFixture()
	sess := verifiedSession()
	sess.AbsExpiresAt = time.Now().Add(30 * time.Minute).Unix()
	sess.IdleExpiresAt = time.Now().Add(10 * time.Minute).Unix()
	f.sessions.On("ExtendIdle", mock.Anything, "sess-1", sess.AbsExpiresAt).Return(nil)

	err := f.svc().Touch(context.Background(), sess)

	require.NoError(t, err)
	assert.Equal(t, sess.AbsExpiresAt, sess.IdleExpiresAt)
}

func TestTouch_RevokeWins(t *testing.T) {
	f := newFixture()
	sess := verifiedSession()
	before := sess.IdleExpiresAt
	f.sessions.On("ExtendIdle", mock.Anything, "sess-1", mock.Anything).Return(domain.ErrConflict)

	// The losing touch is silent; the caller's next validation sees the
	// terminal state.
	err := f.svc().Touch(context.Background(), sess)

	require.NoError(t, err)
	assert.Equal(t, before, sess.IdleExpiresAt)
}

// --- Revoke tests ---

func TestRevoke_Idempotent(t *testing.T) {
	f := newFixture()
	f.sessions.On("TransitionToTerminal", mock.Anything, "sess-1", domain.SessionRevoked).Return(nil)

	svc := f.svc()
	require.NoError(t, svc.Revoke(context.Background(), "sess-1"))
	require.NoError(t, svc.Revoke(context.Background(), "sess-1"))
}

func TestRevokeAllOthers_CountsOnlyLiveOnes(t *testing.T) {
	f := newFixture()
	current := *verifiedSession()
	other := *verifiedSession()
	other.SessionID = "sess-2"
	dead := *verifiedSession()
	dead.SessionID = "sess-3"
	dead.State = domain.SessionRevoked

	f.sessions.On("ListByUser", mock.Anything, "user-1").Return([]domain.Session{current, other, dead}, nil)
	f.sessions.On("TransitionToTerminal", mock.Anything, "sess-2", domain.SessionRevoked).Return(nil)

	n, err := f.svc().RevokeAllOthers(context.Background(), "user-1", "sess-1")

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	f.sessions.AssertNotCalled(t, "TransitionToTerminal", mock.Anything, "sess-1", mock.Anything)
	f.sessions.AssertNotCalled(t, "TransitionToTerminal", mock.Anything, "sess-3", mock.Anything)
}

// --- GetValid tests ---

func TestGetValid_LiveSession(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "sess-1").Return(verifiedSession(), nil)
	f.users.On("Get", mock.Anything, "user-1").Return(plainUser(), nil)

	sess, err := f.svc().GetValid(context.Background(), "sess-1")

	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.Equal(t, "user-1", sess.User.UserID)
}

func TestGetValid_RevokedSession(t *testing.T) {
	f := newFixture()
	sess := verifiedSession()
	sess.State = domain.SessionRevoked
	f.sessions.On("Get", mock.Anything, "sess-1").Return(sess, nil)

	_, err := f.svc().GetValid(context.Background(), "sess-1")

	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestGetValid_IdleExpired_MarksExpired(t *testing.T) {
	f := newFixture()
	sess := verifiedSession()
	sess.IdleExpiresAt = time.Now().Add(-time.Minute).Unix()
	f.sessions.On("Get", mock.Anything, "sess-1").Return(sess, nil)
	f.sessions.On("TransitionToTerminal", mock.Anything, "sess-1", domain.SessionExpired).Return(nil)

	_, err := f.svc().GetValid(context.Background(), "sess-1")

	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
	f.sessions.AssertCalled(t, "TransitionToTerminal", mock.Anything, "sess-1", domain.SessionExpired)
}

func TestGetValid_UnknownSession(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "sess-x").Return(nil, domain.ErrNotFound)

	_, err := f.svc().GetValid(context.Background(), "sess-x")

	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestGetValid_DisabledUser(t *testing.T) {
	f := newFixture()
	f.sessions.On("Get", mock.Anything, "sess-1").Return(verifiedSession(), nil)
	u := plainUser()
	u.Enable = false
	f.users.On("Get", mock.Anything, "user-1").Return(u, nil)

	_, err := f.svc().GetValid(context.Background(), "sess-1")

	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}
