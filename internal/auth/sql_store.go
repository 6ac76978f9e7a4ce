package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "carservice/internal/errors"
	"carservice/internal/model"
	"carservice/internal/repository"
)

// SQLStore keeps sessions in the dashboard_sessions table. Expiry is enforced on
// read since MySQL has no TTL; Sweep clears stale rows.
type SQLStore struct {
	repo repository.SessionRepository
	now  func() time.Time
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore creates a session store over repo.
func NewSQLStore(repo repository.SessionRepository) *SQLStore {
	return &SQLStore{repo: repo, now: time.Now}
}

// Save upserts sess with an expiry ttl from now.
func (s *SQLStore) Save(ctx context.Context, sess *model.Session, ttl time.Duration) error {
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	sess.ExpiresAt = s.now().Add(ttl)
	return s.repo.Save(ctx, sess)
}

// Load returns the session, or apperrors.ErrNotFound when it is unknown or expired.
func (s *SQLStore) Load(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		_ = s.repo.Delete(ctx, id)
		return nil, apperrors.ErrNotFound
	}
	return sess, nil
}

// Delete removes the session row.
func (s *SQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Sweep deletes all expired rows and reports how many were removed.
func (s *SQLStore) Sweep(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
