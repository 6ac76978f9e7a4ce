package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "carservice/internal/errors"
	"carservice/internal/model"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carctl", "session.json")
	store := NewFileStore(path)
	ctx := context.Background()

	_, err := store.Load(ctx, uuid.Nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	sess := &model.Session{Token: "tok", Username: "bob", Role: model.RoleUser}
	require.NoError(t, store.Save(ctx, sess, time.Hour))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.Equal(t, sess.ID, got.ID)

	require.NoError(t, store.Delete(ctx, uuid.Nil))
	_, err = store.Load(ctx, uuid.Nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, uuid.Nil))
}

func TestFileStore_ExpiredSessionIsRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(context.Background(), &model.Session{Token: "tok"}, time.Minute))

	now = now.Add(2 * time.Minute)
	_, err := store.Load(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_SaveTightensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	require.NoError(t, os.Chmod(path, 0o644))

	store := NewFileStore(path)
	require.NoError(t, store.Save(context.Background(), &model.Session{Token: "tok", Username: "bob", Role: model.RoleUser}, time.Hour))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file left behind")
}
