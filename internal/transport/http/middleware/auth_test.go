package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appsession "github.com/authcore-api/internal/application/session"
	"github.com/authcore-api/internal/domain"
	"github.com/authcore-api/internal/transport/http/cookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSessionService struct{ mock.Mock }

func (m *mockSessionService) Login(ctx context.Context, req appsession.LoginRequest) (*appsession.LoginResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*appsession.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionService) Upgrade(ctx context.Context, req appsession.UpgradeRequest) (*appsession.UpgradeResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*appsession.UpgradeResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionService) Touch(ctx context.Context, sess *domain.Session) error {
	return m.Called(ctx, sess).Error(0)
}
func (m *mockSessionService) Revoke(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}
func (m *mockSessionService) RevokeAllOthers(ctx context.Context, userID, exceptID string) (int, error) {
	args := m.Called(ctx, userID, exceptID)
	return args.Int(0), args.Error(1)
}
func (m *mockSessionService) GetValid(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionService) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	args := m.Called(ctx, userID)
	if s, _ := args.Get(0).([]domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func liveSession() *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		SessionID:     "sess-1",
		UserID:        "user-1",
		State:         domain.SessionVerified,
		IdleExpiresAt: now.Add(time.Hour).Unix(),
		AbsExpiresAt:  now.Add(24 * time.Hour).Unix(),
		User:          &domain.User{UserID: "user-1", Enable: true},
	}
}

func runAuth(t *testing.T, svc *mockSessionService, req *http.Request) (*httptest.ResponseRecorder, *domain.Session) {
	t.Helper()
	var captured *domain.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	rr := httptest.NewRecorder()
	SessionAuth(svc, nil, &cookie.Writer{})(next).ServeHTTP(rr, req)
	return rr, captured
}

// --- tests ---

func TestSessionAuth_ValidCookie(t *testing.T) {
	svc := &mockSessionService{}
	sess := liveSession()
	svc.On("GetValid", mock.Anything, "sess-1").Return(sess, nil)
	svc.On("Touch", mock.Anything, sess).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.AddCookie(&http.Cookie{Name: cookie.SessionName, Value: "sess-1"})
	rr, captured := runAuth(t, svc, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "sess-1", captured.SessionID)
}

func TestSessionAuth_MissingCookie(t *testing.T) {
	svc := &mockSessionService{}

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	rr, _ := runAuth(t, svc, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "GetValid", mock.Anything, mock.Anything)
}

func TestSessionAuth_RevokedSession_ClearsCookie(t *testing.T) {
	svc := &mockSessionService{}
	svc.On("GetValid", mock.Anything, "sess-1").Return(nil, domain.ErrSessionNotFound)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.AddCookie(&http.Cookie{Name: cookie.SessionName, Value: "sess-1"})
	rr, _ := runAuth(t, svc, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == cookie.SessionName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "stale sid cookie should be cleared")
}

func TestSessionAuth_PendingSessionRejected(t *testing.T) {
	svc := &mockSessionService{}
	sess := liveSession()
	sess.State = domain.SessionPending
	svc.On("GetValid", mock.Anything, "sess-1").Return(sess, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.AddCookie(&http.Cookie{Name: cookie.SessionName, Value: "sess-1"})
	rr, _ := runAuth(t, svc, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything)
}

func TestSessionAuth_TouchMovesIdle_ReissuesCookie(t *testing.T) {
	svc := &mockSessionService{}
	sess := liveSession()
	newIdle := time.Now().Add(2 * time.Hour).Unix()
	svc.On("GetValid", mock.Anything, "sess-1").Return(sess, nil)
	svc.On("Touch", mock.Anything, sess).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Session).IdleExpiresAt = newIdle
	}).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.AddCookie(&http.Cookie{Name: cookie.SessionName, Value: "sess-1"})
	rr, _ := runAuth(t, svc, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	reissued := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == cookie.SessionName && c.Value == "sess-1" && c.MaxAge > 0 {
			reissued = true
		}
	}
	assert.True(t, reissued, "sid cookie should be reissued with the new MaxAge")
}

func TestSessionAuth_TouchFailure_RequestStillServed(t *testing.T) {
	svc := &mockSessionService{}
	sess := liveSession()
	svc.On("GetValid", mock.Anything, "sess-1").Return(sess, nil)
	svc.On("Touch", mock.Anything, sess).Return(domain.ErrStorage)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.AddCookie(&http.Cookie{Name: cookie.SessionName, Value: "sess-1"})
	rr, captured := runAuth(t, svc, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, captured)
}
