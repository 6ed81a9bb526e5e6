package credential

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/authcore-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) RecordFailedAttempt(ctx context.Context, userID string, now, windowStart int64) (int, error) {
	args := m.Called(ctx, userID, now, windowStart)
	return args.Int(0), args.Error(1)
}
func (m *mockUserStore) Lock(ctx context.Context, userID string, lockedUntil int64) error {
	return m.Called(ctx, userID, lockedUntil).Error(0)
}
func (m *mockUserStore) ResetLockout(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// --- helpers ---

const goodPassword = "correct-horse-battery"

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newSvc(us *mockUserStore) Service {
	return NewService(ServiceDeps{
		UserRepo:  us,
		Threshold: 5,
		Window:    15 * time.Minute,
		Lockout:   15 * time.Minute,
	})
}

func activeUser(t *testing.T) *domain.User {
	return &domain.User{
		UserID:       "user-1",
		Email:        "alice@example.com",
		PasswordHash: hashOf(t, goodPassword),
		Role:         domain.RoleMember,
		Enable:       true,
	}
}

// --- tests ---

func TestVerify_Success(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(t), nil)

	u, err := newSvc(us).Verify(context.Background(), "alice@example.com", goodPassword)

	require.NoError(t, err)
	assert.Equal(t, "user-1", u.UserID)
	us.AssertNotCalled(t, "ResetLockout", mock.Anything, mock.Anything)
}

func TestVerify_SuccessResetsLockoutCounters(t *testing.T) {
	us := &mockUserStore{}
	u := activeUser(t)
	u.FailedAttempts = 3
	u.FirstFailedAt = time.Now().Add(-2 * time.Minute).Unix()
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	us.On("ResetLockout", mock.Anything, "user-1").Return(nil)

	_, err := newSvc(us).Verify(context.Background(), "alice@example.com", goodPassword)

	require.NoError(t, err)
	us.AssertCalled(t, "ResetLockout", mock.Anything, "user-1")
}

func TestVerify_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrNotFound)

	_, err := newSvc(us).Verify(context.Background(), "nobody@example.com", "whatever")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestVerify_WrongPassword_RecordsFailure(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(t), nil)
	us.On("RecordFailedAttempt", mock.Anything, "user-1", mock.Anything, mock.Anything).Return(1, nil)

	_, err := newSvc(us).Verify(context.Background(), "alice@example.com", "wrong")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
	us.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_WrongPassword_PassesRollingWindow(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(t), nil)
	us.On("RecordFailedAttempt", mock.Anything, "user-1",
		mock.MatchedBy(func(now int64) bool {
			return now >= time.Now().Add(-5*time.Second).Unix()
		}),
		mock.MatchedBy(func(ws int64) bool {
			want := time.Now().Add(-15 * time.Minute).Unix()
			return ws >= want-5 && ws <= want+5
		})).Return(1, nil)

	_, err := newSvc(us).Verify(context.Background(), "alice@example.com", "wrong")

	require.Error(t, err)
	us.AssertExpectations(t)
}

func TestVerify_ThresholdFailure_Locks(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(t), nil)
	us.On("RecordFailedAttempt", mock.Anything, "user-1", mock.Anything, mock.Anything).Return(5, nil)
	us.On("Lock", mock.Anything, "user-1", mock.Anything).Return(nil)

	_, err := newSvc(us).Verify(context.Background(), "alice@example.com", "wrong")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAccountLocked))
	us.AssertCalled(t, "Lock", mock.Anything, "user-1", mock.Anything)
}

func TestVerify_FailureRecordingError_StillInvalidCredentials(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(t), nil)
	us.On("RecordFailedAttempt", mock.Anything, "user-1", mock.Anything, mock.Anything).Return(0, errors.New("dynamo down"))

	_, err := newSvc(us).Verify(context.Background(), "alice@example.com", "wrong")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
	us.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_LockedAccount_ShortCircuits(t *testing.T) {
	us := &mockUserStore{}
	u := activeUser(t)
	u.LockedUntil = time.Now().Add(10 * time.Minute).Unix()
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)

	// Even the correct password is rejected while the lockout is active.
	_, err := newSvc(us).Verify(context.Background(), "alice@example.com", goodPassword)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAccountLocked))
	us.AssertNotCalled(t, "RecordFailedAttempt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_LockoutExpired_AllowsLogin(t *testing.T) {
	us := &mockUserStore{}
	u := activeUser(t)
	u.FailedAttempts = 5
	u.LockedUntil = time.Now().Add(-time.Minute).Unix()
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	us.On("ResetLockout", mock.Anything, "user-1").Return(nil)

	_, err := newSvc(us).Verify(context.Background(), "alice@example.com", goodPassword)

	require.NoError(t, err)
	us.AssertCalled(t, "ResetLockout", mock.Anything, "user-1")
}

func TestVerify_DisabledAccount(t *testing.T) {
	us := &mockUserStore{}
	u := activeUser(t)
	u.Enable = false
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)

	_, err := newSvc(us).Verify(context.Background(), "alice@example.com", goodPassword)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestVerify_StorageError(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, errors.New("dynamo down"))

	_, err := newSvc(us).Verify(context.Background(), "alice@example.com", goodPassword)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))
}
