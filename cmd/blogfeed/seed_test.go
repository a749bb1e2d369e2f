package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MosinFAM/blog-feed/internal/config"
	"github.com/MosinFAM/blog-feed/internal/storage"
)

var testSeed = config.SeedConfig{
	Users:  []config.SeedUser{{Username: "anna", DisplayName: "Anna"}, {Username: "boris"}},
	Groups: []config.SeedGroup{{Slug: "cats", Title: "Cats"}},
}

func TestSeedStore_MemoryUsable(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()

	require.NoError(t, seedStore(ctx, store, testSeed))

	anna, err := store.GetUserByUsername(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, "Anna", anna.DisplayName)
	// токен выдаётся по id, он должен находиться
	byID, err := store.GetUserByID(ctx, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna", byID.Username)

	group, err := store.GetGroupBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "Cats", group.Title)
}

func TestSeedStore_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	require.NoError(t, seedStore(ctx, store, testSeed))
	anna, err := store.GetUserByUsername(ctx, "anna")
	require.NoError(t, err)

	require.NoError(t, seedStore(ctx, store, testSeed))

	again, err := store.GetUserByUsername(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, anna.ID, again.ID)
}

func TestSeedStore_Error(t *testing.T) {
	store := new(storage.MockStorage)
	store.On("CreateUser", mock.Anything, mock.Anything).Return(errors.New("db is down"))

	err := seedStore(context.Background(), store, testSeed)

	assert.ErrorContains(t, err, "seed user anna")
	store.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything)
}
