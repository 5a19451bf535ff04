package paramstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimimvp/CausalProb/paramstore"
	"github.com/jimimvp/CausalProb/scm"
)

func newTestStore(t *testing.T) *paramstore.SQLiteStore {
	t.Helper()
	store, err := paramstore.Open(filepath.Join(t.TempDir(), "params.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestSaveLoad_RestoresTheta(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	reg, err := scm.BuildDefault(2)
	require.NoError(t, err)
	theta, err := reg.InitAll(7)
	require.NoError(t, err)

	id, err := store.Save(ctx, paramstore.Snapshot{Label: "init", Seed: 7, Config: []byte("dim: 2\n"), Theta: theta})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "init", got.Label)
	assert.Equal(t, int64(7), got.Seed)
	assert.Equal(t, "dim: 2\n", string(got.Config))
	require.NoError(t, reg.Validate(got.Theta))
	assert.ElementsMatch(t, theta.Keys(), got.Theta.Keys())
	for _, key := range theta.Keys() {
		for i := range theta[key] {
			assert.Equal(t, theta[key][i].ToRows(), got.Theta[key][i].ToRows(), "%s[%d]", key, i)
		}
	}
}

func TestSave_ReplacesExistingID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	reg, err := scm.BuildDefault(1)
	require.NoError(t, err)
	theta, err := reg.InitAll(0)
	require.NoError(t, err)

	id, err := store.Save(ctx, paramstore.Snapshot{Seed: 0, Theta: theta})
	require.NoError(t, err)

	fewer := theta.Clone()
	delete(fewer, "U_Y->Y")
	_, err = store.Save(ctx, paramstore.Snapshot{ID: id, Seed: 1, Theta: fewer})
	require.NoError(t, err)

	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Seed)
	assert.NotContains(t, got.Theta, "U_Y->Y")
}

func TestList_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	reg, err := scm.BuildDefault(1)
	require.NoError(t, err)
	theta, err := reg.InitAll(0)
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	old, err := store.Save(ctx, paramstore.Snapshot{Label: "old", Theta: theta, CreatedAt: base})
	require.NoError(t, err)
	fresh, err := store.Save(ctx, paramstore.Snapshot{Label: "new", Theta: theta, CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, fresh, list[0].ID)
	assert.Equal(t, old, list[1].ID)
	assert.Equal(t, 5, list[0].Groups)
	assert.True(t, list[1].CreatedAt.Equal(base))
}

func TestDeleteAndErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	reg, err := scm.BuildDefault(1)
	require.NoError(t, err)
	theta, err := reg.InitAll(0)
	require.NoError(t, err)

	id, err := store.Save(ctx, paramstore.Snapshot{Theta: theta})
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))

	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, paramstore.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, id), paramstore.ErrNotFound)

	_, err = store.Load(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, paramstore.ErrInvalidID)
	_, err = store.Save(ctx, paramstore.Snapshot{ID: "not-a-uuid"})
	assert.ErrorIs(t, err, paramstore.ErrInvalidID)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
