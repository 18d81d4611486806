package database

import (
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func newTestStore(t *testing.T) (*FileStore, afero.Fs) {
	fs := afero.NewMemMapFs()
	store, err := NewFileStore(fs, "/data")
	require.NoError(t, err)
	return store, fs
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Save(SlotLikesCount, map[string]int{"p1": 2}))

	var counts map[string]int
	found, err := store.Load(SlotLikesCount, &counts)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, counts["p1"])
}

func TestFileStoreMissingSlot(t *testing.T) {
	store, _ := newTestStore(t)

	var v []string
	found, err := store.Load(SlotCart, &v)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestFileStoreCorruptSlot(t *testing.T) {
	store, fs := newTestStore(t)
	require.NoError(t, afero.WriteFile(fs, "/data/"+SlotCart+".json", []byte("{not json"), 0o600))

	var v []string
	found, err := store.Load(SlotCart, &v)
	assert.True(t, found)
	assert.Error(t, err)
}

func TestFileStoreRemove(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Save(SlotSession, "x"))
	require.NoError(t, store.Remove(SlotSession))
	require.NoError(t, store.Remove(SlotSession))

	var v string
	found, err := store.Load(SlotSession, &v)
	assert.NoError(t, err)
	assert.False(t, found)
}
