package account

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "accounts.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndLogin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "alice", "secret"))

	assert.NoError(t, store.Login(ctx, "alice", "secret"))
	assert.ErrorIs(t, store.Login(ctx, "alice", "wrong"), ErrWrongPassword)
	assert.ErrorIs(t, store.Login(ctx, "nobody", "secret"), ErrNotFound)
}

func TestCreateDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "alice", "secret"))
	assert.ErrorIs(t, store.Create(ctx, "alice", "other"), ErrExists)
}

func TestAddFriend(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "alice", "pw"))
	require.NoError(t, store.Create(ctx, "bob", "pw"))

	assert.ErrorIs(t, store.AddFriend(ctx, "alice", "nobody"), ErrNotFound)
	assert.ErrorIs(t, store.AddFriend(ctx, "nobody", "bob"), ErrNotFound)

	require.NoError(t, store.AddFriend(ctx, "alice", "bob"))
	assert.ErrorIs(t, store.AddFriend(ctx, "alice", "bob"), ErrAlreadyFriends)

	friends, err := store.Friends(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, friends)

	// Friendship is one-directional until bob reciprocates.
	friends, err = store.Friends(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestFriendsUnknownUserIsEmpty(t *testing.T) {
	store := newTestStore(t)

	friends, err := store.Friends(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestActiveSessionPointer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "alice", "pw"))

	assert.ErrorIs(t, store.SetActiveSession(ctx, "nobody", "s1"), ErrNotFound)
	require.NoError(t, store.SetActiveSession(ctx, "alice", "s1"))
	require.NoError(t, store.ClearActiveSession(ctx, "alice"))
	assert.ErrorIs(t, store.ClearActiveSession(ctx, "nobody"), ErrNotFound)
}

func TestFriendSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "alice", "pw"))
	require.NoError(t, store.Create(ctx, "bob", "pw"))

	_, err := store.FriendSession(ctx, "alice", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	// One-directional friendship is not enough.
	require.NoError(t, store.AddFriend(ctx, "alice", "bob"))
	_, err = store.FriendSession(ctx, "alice", "bob")
	assert.ErrorIs(t, err, ErrNotMutual)

	require.NoError(t, store.AddFriend(ctx, "bob", "alice"))
	_, err = store.FriendSession(ctx, "alice", "bob")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	require.NoError(t, store.SetActiveSession(ctx, "bob", "shared-doc"))
	sessionID, err := store.FriendSession(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "shared-doc", sessionID)

	require.NoError(t, store.ClearActiveSession(ctx, "bob"))
	_, err = store.FriendSession(ctx, "alice", "bob")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}
