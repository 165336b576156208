package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, s.Save("settings", payload{Name: "palabre", Count: 3}))

	var got payload
	found, err := s.Load("settings", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "palabre", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestLoadMissingKey(t *testing.T) {
	s := newTestStore(t)

	var got map[string]string
	found, err := s.Load("nope", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveOverwrites(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("k", "first"))
	require.NoError(t, s.Save("k", "second"))

	var got string
	found, err := s.Load("k", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", got)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("k", 42))
	require.NoError(t, s.Delete("k"))

	var got int
	found, err := s.Load("k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent key is not an error.
	require.NoError(t, s.Delete("k"))
}

func TestFlushRunsRegisteredFunctions(t *testing.T) {
	s := newTestStore(t)

	calls := 0
	s.RegisterFlush(func() { calls++ })
	s.RegisterFlush(func() { calls += 10 })

	s.Flush()
	assert.Equal(t, 11, calls)
}

func TestRegisterFlushCancelRemovesFunction(t *testing.T) {
	s := newTestStore(t)

	calls := 0
	cancel := s.RegisterFlush(func() { calls++ })
	s.RegisterFlush(func() { calls += 10 })

	cancel()
	s.Flush()
	assert.Equal(t, 10, calls)

	// Cancelling twice is harmless and never touches the other entry.
	cancel()
	s.Flush()
	assert.Equal(t, 20, calls)
}

func TestCloseFlushesOnce(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	calls := 0
	s.RegisterFlush(func() { calls++ })

	require.NoError(t, s.Close())
	assert.Equal(t, 1, calls)
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save("k", "persisted"))
	require.NoError(t, s.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	var got string
	found, err := s2.Load("k", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "persisted", got)

	assert.FileExists(t, filepath.Join(dir, "palabre.db"))
}
