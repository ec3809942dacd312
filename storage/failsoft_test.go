package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/storyfield/go-client/storage"
	"github.com/storyfield/go-client/storage/storagefakes"
	"github.com/stretchr/testify/require"
)

func TestFailSoft(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")

	t.Run("get degrades to not found", func(t *testing.T) {
		fake := storagefakes.NewFakeStore()
		fake.FailGet = boom
		store := storage.NewFailSoft(fake, zerolog.Nop())

		var got string
		found, err := store.Get(ctx, "missingKey", &got)
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("set degrades to no-op", func(t *testing.T) {
		fake := storagefakes.NewFakeStore()
		fake.FailSet = boom
		store := storage.NewFailSoft(fake, zerolog.Nop())

		require.NoError(t, store.Set(ctx, "accessToken", "AT1"))
		require.False(t, fake.Has("accessToken"))
	})

	t.Run("remove degrades to no-op", func(t *testing.T) {
		fake := storagefakes.NewFakeStore()
		require.NoError(t, fake.Set(ctx, "accessToken", "AT1"))
		fake.FailRemove = boom
		store := storage.NewFailSoft(fake, zerolog.Nop())

		require.NoError(t, store.Remove(ctx, "accessToken"))
		require.True(t, fake.Has("accessToken"))
	})

	t.Run("clear degrades to no-op", func(t *testing.T) {
		fake := storagefakes.NewFakeStore()
		require.NoError(t, fake.Set(ctx, "accessToken", "AT1"))
		fake.FailClear = boom
		store := storage.NewFailSoft(fake, zerolog.Nop())

		require.NoError(t, store.Clear(ctx))
		require.True(t, fake.Has("accessToken"))
	})

	t.Run("healthy store passes through", func(t *testing.T) {
		fake := storagefakes.NewFakeStore()
		store := storage.NewFailSoft(fake, zerolog.Nop())

		require.NoError(t, store.Set(ctx, "accessToken", "AT1"))

		var got string
		found, err := store.Get(ctx, "accessToken", &got)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "AT1", got)
	})
}
