package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/transcript-gateway/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func testUser(username string) models.User {
	return models.User{
		UID:                uuid.NewString(),
		Username:           username,
		PasswordHash:       "$2a$10$abcdefghijklmnopqrstuv",
		SubscriptionStatus: models.SubscriptionInactive,
	}
}

func TestSQLiteStorage_RegisterUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	id, err := s.RegisterUser(ctx, testUser("user1"))
	require.NoError(t, err)
	assert.Positive(t, id)

	secondID, err := s.RegisterUser(ctx, testUser("user2"))
	require.NoError(t, err)
	assert.NotEqual(t, id, secondID)
}

func TestSQLiteStorage_RegisterUser_DuplicateUsername(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.RegisterUser(ctx, testUser("user1"))
	require.NoError(t, err)

	_, err = s.RegisterUser(ctx, testUser("user1"))
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestSQLiteStorage_GetUserByUsername(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := testUser("user1")
	id, err := s.RegisterUser(ctx, user)
	require.NoError(t, err)

	got, err := s.GetUserByUsername(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, user.UID, got.UID)
	assert.Equal(t, "user1", got.Username)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
	assert.Equal(t, models.SubscriptionInactive, got.SubscriptionStatus)
	assert.Nil(t, got.SubscriptionExpiry)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLiteStorage_GetUserByUsername_NotFound(t *testing.T) {
	s := newTestStorage(t)

	got, err := s.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, got)
}

func TestSQLiteStorage_ActivateSubscription(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.RegisterUser(ctx, testUser("user1"))
	require.NoError(t, err)

	expiry := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second)
	require.NoError(t, s.ActivateSubscription(ctx, "user1", expiry))

	got, err := s.GetUserByUsername(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, got.SubscriptionStatus)
	require.NotNil(t, got.SubscriptionExpiry)
	assert.True(t, got.SubscriptionExpiry.Equal(expiry))
}

func TestSQLiteStorage_ActivateSubscription_Overwrites(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.RegisterUser(ctx, testUser("user1"))
	require.NoError(t, err)

	first := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	require.NoError(t, s.ActivateSubscription(ctx, "user1", first))

	second := first.Add(30 * 24 * time.Hour)
	require.NoError(t, s.ActivateSubscription(ctx, "user1", second))

	got, err := s.GetUserByUsername(ctx, "user1")
	require.NoError(t, err)
	require.NotNil(t, got.SubscriptionExpiry)
	assert.True(t, got.SubscriptionExpiry.Equal(second))
}

func TestSQLiteStorage_ActivateSubscription_UnknownUser(t *testing.T) {
	s := newTestStorage(t)

	err := s.ActivateSubscription(context.Background(), "ghost", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSQLiteStorage_MarkEventProcessed(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first, err := s.MarkEventProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, first)

	replay, err := s.MarkEventProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, replay)

	other, err := s.MarkEventProcessed(ctx, "evt_2")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestSQLiteStorage_UnmarkEvent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first, err := s.MarkEventProcessed(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, first)

	require.NoError(t, s.UnmarkEvent(ctx, "evt_1"))

	// После снятия отметки событие снова считается новым
	again, err := s.MarkEventProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, again)

	// Снятие отметки с неизвестного события не является ошибкой
	assert.NoError(t, s.UnmarkEvent(ctx, "evt_ghost"))
}

func TestSQLiteStorage_CancelledContext(t *testing.T) {
	s := newTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.RegisterUser(ctx, testUser("user1"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.GetUserByUsername(ctx, "user1")
	assert.ErrorIs(t, err, context.Canceled)
}
