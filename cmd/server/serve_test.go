package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cbodonnell/orderstone/pkg/saves"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRepository(t *testing.T) {
	ctx := context.Background()

	repository, err := openRepository(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, repository)

	repository, err = openRepository(ctx, "sqlite://"+filepath.Join(t.TempDir(), "orderstone.db"))
	require.NoError(t, err)
	require.NotNil(t, repository)
	assert.NoError(t, repository.Close(ctx))

	_, err = openRepository(ctx, "mysql://localhost/orderstone")
	assert.Error(t, err)
}

func TestLoadOrCreateWorld(t *testing.T) {
	store := saves.NewStore(saves.NewStoreOptions{Dir: t.TempDir()})

	created, err := loadOrCreateWorld(store, "Castle Hill", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.Seed)

	loaded, err := loadOrCreateWorld(store, "Castle Hill", 7)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, int64(42), loaded.Seed)

	_, err = loadOrCreateWorld(store, "x", 0)
	assert.ErrorIs(t, err, saves.ErrInvalidName)
}
