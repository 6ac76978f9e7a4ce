package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"carservice/internal/cache"
	apperrors "carservice/internal/errors"
	"carservice/internal/model"
)

const sessionKeyPrefix = "session:"

// Store persists dashboard sessions keyed by their ID.
type Store interface {
	Save(ctx context.Context, sess *model.Session, ttl time.Duration) error
	Load(ctx context.Context, id uuid.UUID) (*model.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RedisStore keeps sessions in Redis as JSON with a TTL.
type RedisStore struct {
	cache *cache.Client
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new redis-backed session store.
func NewRedisStore(cache *cache.Client) *RedisStore {
	return &RedisStore{cache: cache}
}

// Save stores sess under its ID. A session without an ID gets a fresh one.
func (s *RedisStore) Save(ctx context.Context, sess *model.Session, ttl time.Duration) error {
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.cache.Set(ctx, sessionKeyPrefix+sess.ID.String(), payload, ttl)
}

// Load returns the session or apperrors.ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+id.String())
	if err != nil || data == nil {
		return nil, apperrors.ErrNotFound
	}
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session from Redis.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+id.String())
}
