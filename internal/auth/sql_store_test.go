package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "carservice/internal/errors"
	"carservice/internal/model"
)

// MockSessionRepository is a mock implementation of SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Save(ctx context.Context, sess *model.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func newTestSQLStore(repo *MockSessionRepository, now time.Time) *SQLStore {
	s := NewSQLStore(repo)
	s.now = func() time.Time { return now }
	return s
}

func TestSQLStore_SaveSetsExpiry(t *testing.T) {
	repo := new(MockSessionRepository)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store := newTestSQLStore(repo, now)

	sess := &model.Session{Token: "tok", Username: "bob", Role: model.RoleUser}
	repo.On("Save", mock.Anything, mock.MatchedBy(func(s *model.Session) bool {
		return s.ID != uuid.Nil && s.ExpiresAt.Equal(now.Add(time.Hour))
	})).Return(nil)

	require.NoError(t, store.Save(context.Background(), sess, time.Hour))
	repo.AssertExpectations(t)
}

func TestSQLStore_Load(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	live := testSession()
	live.ExpiresAt = now.Add(time.Minute)
	stale := testSession()
	stale.ID = uuid.New()
	stale.ExpiresAt = now.Add(-time.Minute)
	unknown := uuid.New()

	repo := new(MockSessionRepository)
	repo.On("FindByID", mock.Anything, live.ID).Return(live, nil)
	repo.On("FindByID", mock.Anything, stale.ID).Return(stale, nil)
	repo.On("Delete", mock.Anything, stale.ID).Return(nil)
	repo.On("FindByID", mock.Anything, unknown).Return(nil, apperrors.ErrNotFound)
	store := newTestSQLStore(repo, now)

	got, err := store.Load(context.Background(), live.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = store.Load(context.Background(), stale.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = store.Load(context.Background(), unknown)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	repo.AssertExpectations(t)
}

func TestSQLStore_Sweep(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := new(MockSessionRepository)
	repo.On("DeleteExpired", mock.Anything, now).Return(int64(4), nil)

	n, err := newTestSQLStore(repo, now).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
