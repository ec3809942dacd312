package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/storyfield/go-client/session"
	"github.com/storyfield/go-client/storage/storagefakes"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*session.Manager, *storagefakes.FakeStore) {
	t.Helper()

	store := storagefakes.NewFakeStore()
	manager, err := session.NewManager(store)
	require.NoError(t, err)
	return manager, store
}

func TestNewManager(t *testing.T) {
	t.Run("requires a store", func(t *testing.T) {
		_, err := session.NewManager(nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "store is required")
	})

	t.Run("starts unknown", func(t *testing.T) {
		manager, _ := newManager(t)
		require.Equal(t, session.StatusUnknown, manager.Status())
		require.False(t, manager.IsAuthenticated())
	})
}

func TestManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("populates state and persists all keys", func(t *testing.T) {
		manager, store := newManager(t)

		manager.Login(ctx, "Bearer X", "R", session.User{UUID: "U"})

		require.True(t, manager.IsAuthenticated())
		require.Equal(t, session.StatusAuthenticated, manager.Status())
		require.Equal(t, "Bearer X", manager.AccessToken())
		require.Equal(t, "R", manager.RefreshToken())
		require.Equal(t, "U", manager.User().UUID)

		var accessToken, refreshToken, userUUID string
		found, err := store.Get(ctx, session.KeyAccessToken, &accessToken)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "Bearer X", accessToken)

		found, err = store.Get(ctx, session.KeyRefreshToken, &refreshToken)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "R", refreshToken)

		found, err = store.Get(ctx, session.KeyUserUUID, &userUUID)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "U", userUUID)
	})

	t.Run("second login overwrites the first", func(t *testing.T) {
		manager, _ := newManager(t)

		manager.Login(ctx, "AT1", "RT1", session.User{UUID: "U1"})
		manager.Login(ctx, "AT2", "RT2", session.User{UUID: "U2"})

		require.Equal(t, "AT2", manager.AccessToken())
		require.Equal(t, "U2", manager.User().UUID)
	})

	t.Run("profile persisted only when it has content", func(t *testing.T) {
		manager, store := newManager(t)

		manager.Login(ctx, "AT1", "RT1", session.User{UUID: "U1"})
		require.False(t, store.Has(session.KeyUserProfile))

		manager.Login(ctx, "AT1", "RT1", session.User{UUID: "U1", Email: "a@b.com"})
		require.True(t, store.Has(session.KeyUserProfile))
	})

	t.Run("persist failure keeps memory authoritative", func(t *testing.T) {
		manager, store := newManager(t)
		store.FailSet = errors.New("no disk")

		manager.Login(ctx, "AT1", "RT1", session.User{UUID: "U1"})

		require.True(t, manager.IsAuthenticated())
		require.Equal(t, "AT1", manager.AccessToken())
	})
}

func TestManager_UpdateAccessToken(t *testing.T) {
	ctx := context.Background()
	manager, store := newManager(t)

	manager.Login(ctx, "AT1", "RT1", session.User{UUID: "U1"})
	manager.UpdateAccessToken(ctx, "AT2")

	require.Equal(t, "AT2", manager.AccessToken())
	require.Equal(t, "RT1", manager.RefreshToken())
	require.Equal(t, "U1", manager.User().UUID)

	var persisted string
	found, err := store.Get(ctx, session.KeyAccessToken, &persisted)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "AT2", persisted)
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()

	sessionKeys := []string{
		session.KeyAccessToken,
		session.KeyRefreshToken,
		session.KeyUserUUID,
		session.KeyUserProfile,
	}

	t.Run("clears state and every persisted key", func(t *testing.T) {
		manager, store := newManager(t)
		manager.Login(ctx, "AT1", "RT1", session.User{UUID: "U1", Email: "a@b.com"})

		manager.Logout(ctx)

		require.False(t, manager.IsAuthenticated())
		require.Equal(t, session.StatusUnauthenticated, manager.Status())
		require.Empty(t, manager.AccessToken())
		require.Empty(t, manager.RefreshToken())
		require.Nil(t, manager.User())
		for _, key := range sessionKeys {
			require.False(t, store.Has(key), "key %q should be gone", key)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		manager, store := newManager(t)
		manager.Login(ctx, "AT1", "RT1", session.User{UUID: "U1"})

		manager.Logout(ctx)
		once := manager.Snapshot()

		manager.Logout(ctx)
		twice := manager.Snapshot()

		require.Equal(t, once, twice)
		for _, key := range sessionKeys {
			require.False(t, store.Has(key))
		}
	})

	t.Run("removal failure still clears memory", func(t *testing.T) {
		manager, store := newManager(t)
		manager.Login(ctx, "AT1", "RT1", session.User{UUID: "U1"})
		store.FailRemove = errors.New("no disk")

		manager.Logout(ctx)

		require.False(t, manager.IsAuthenticated())
		require.Empty(t, manager.AccessToken())
	})
}

func TestManager_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("full session restores authenticated", func(t *testing.T) {
		manager, store := newManager(t)
		require.NoError(t, store.Set(ctx, session.KeyAccessToken, "AT1"))
		require.NoError(t, store.Set(ctx, session.KeyRefreshToken, "RT1"))
		require.NoError(t, store.Set(ctx, session.KeyUserUUID, "U1"))

		status := manager.Restore(ctx)

		require.Equal(t, session.StatusAuthenticated, status)
		require.True(t, manager.IsAuthenticated())
		require.Equal(t, "AT1", manager.AccessToken())
		require.Equal(t, "RT1", manager.RefreshToken())
		require.Equal(t, "U1", manager.User().UUID)
	})

	t.Run("token without identity stays unauthenticated", func(t *testing.T) {
		manager, store := newManager(t)
		require.NoError(t, store.Set(ctx, session.KeyAccessToken, "AT1"))

		status := manager.Restore(ctx)

		require.Equal(t, session.StatusUnauthenticated, status)
		require.False(t, manager.IsAuthenticated())
		require.Empty(t, manager.AccessToken())
	})

	t.Run("empty store stays unauthenticated", func(t *testing.T) {
		manager, _ := newManager(t)
		require.Equal(t, session.StatusUnauthenticated, manager.Restore(ctx))
	})

	t.Run("storage failure resolves to unauthenticated", func(t *testing.T) {
		manager, store := newManager(t)
		store.FailGet = errors.New("no disk")

		status := manager.Restore(ctx)

		require.Equal(t, session.StatusUnauthenticated, status)
		require.False(t, manager.IsAuthenticated())
	})

	t.Run("stored profile hydrates the identity", func(t *testing.T) {
		manager, store := newManager(t)
		require.NoError(t, store.Set(ctx, session.KeyAccessToken, "AT1"))
		require.NoError(t, store.Set(ctx, session.KeyUserUUID, "U1"))
		require.NoError(t, store.Set(ctx, session.KeyUserProfile,
			session.User{UUID: "U1", Email: "a@b.com", Username: "amy"}))

		manager.Restore(ctx)

		require.Equal(t, "a@b.com", manager.User().Email)
		require.Equal(t, "amy", manager.User().Username)
	})

	t.Run("mismatched profile is ignored", func(t *testing.T) {
		manager, store := newManager(t)
		require.NoError(t, store.Set(ctx, session.KeyAccessToken, "AT1"))
		require.NoError(t, store.Set(ctx, session.KeyUserUUID, "U1"))
		require.NoError(t, store.Set(ctx, session.KeyUserProfile,
			session.User{UUID: "someone-else", Email: "x@y.com"}))

		manager.Restore(ctx)

		require.Equal(t, "U1", manager.User().UUID)
		require.Empty(t, manager.User().Email)
	})
}

func TestManager_Snapshot(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManager(t)

	manager.Login(ctx, "AT1", "RT1", session.User{UUID: "U1"})
	snap := manager.Snapshot()

	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "AT1", snap.AccessToken)

	// Mutating the snapshot's user must not leak into the session.
	snap.User.UUID = "tampered"
	require.Equal(t, "U1", manager.User().UUID)
}
