package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/repo-compare/internal/domain"
)

func newTestRecord(owner, repo string) domain.RepoInfo {
	return domain.RepoInfo{
		Provider:       "github",
		Owner:          owner,
		Repo:           repo,
		OpenPRsCount:   1,
		ClosedPRsCount: 2,
		UsersCount:     3,
		OpenPRs:        []domain.TimeseriesPoint{{Date: "2024-01-01", Value: 1}},
		ClosedPRs:      []domain.TimeseriesPoint{},
		Users:          []domain.TimeseriesPoint{},
	}
}

func TestMemory_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	created, err := store.CreateOne(ctx, newTestRecord("golang", "go"))
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.UpdatedAt)

	loaded, err := store.GetOne(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, created, *loaded)

	missing, err := store.GetOne(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemory_CreatePreservesExplicitCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	draft := newTestRecord("golang", "go")
	draft.CreatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	created, err := store.CreateOne(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, draft.CreatedAt, created.CreatedAt)
}

func TestMemory_GetMany(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	first, err := store.CreateOne(ctx, newTestRecord("golang", "go"))
	require.NoError(t, err)
	_, err = store.CreateOne(ctx, newTestRecord("rust-lang", "rust"))
	require.NoError(t, err)

	fullName := "golang/go"
	matches, err := store.GetMany(ctx, Filter{FullName: &fullName}, 0, 100)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, first.ID, matches[0].ID)

	all, err := store.GetMany(ctx, Filter{}, 0, 100)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Results come back ordered by id; skip/limit page through them.
	page, err := store.GetMany(ctx, Filter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, 2, page[0].ID)

	none, err := store.GetMany(ctx, Filter{}, 5, 100)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_UpdateOne(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	created, err := store.CreateOne(ctx, newTestRecord("golang", "go"))
	require.NoError(t, err)

	newCount := 42
	updated, err := store.UpdateOne(ctx, created.ID, Patch{OpenPRsCount: &newCount})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 42, updated.OpenPRsCount)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.UpdatedAt)
	assert.True(t, updated.UpdatedAt.After(created.CreatedAt) || updated.UpdatedAt.Equal(created.CreatedAt))

	// Untouched fields survive the patch.
	assert.Equal(t, created.ClosedPRsCount, updated.ClosedPRsCount)

	missing, err := store.UpdateOne(ctx, 999, Patch{OpenPRsCount: &newCount})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemory_DeleteOne(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	created, err := store.CreateOne(ctx, newTestRecord("golang", "go"))
	require.NoError(t, err)

	deleted, err := store.DeleteOne(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	loaded, err := store.GetOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	deletedAgain, err := store.DeleteOne(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deletedAgain)
}

func TestMemory_IndependentInstances(t *testing.T) {
	ctx := context.Background()
	a := NewMemory()
	b := NewMemory()

	created, err := a.CreateOne(ctx, newTestRecord("golang", "go"))
	require.NoError(t, err)

	loaded, err := b.GetOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded, "stores must not share state")
}
