package jsonstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/usertodo/internal/directory"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "data", "todos.json"))
}

func TestMissingFileIsEmpty(t *testing.T) {
	s := tempStore(t)
	users, err := s.Users()
	require.NoError(t, err)
	assert.Empty(t, users)

	_, ok, err := s.Get("u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddUserPersists(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.AddUser("u1", "Ann"))
	require.NoError(t, s.AddUser("u2", "Bea"))
	assert.ErrorIs(t, s.AddUser("u1", "dup"), directory.ErrUserExists)

	reopened := Open(s.Path())
	users, err := reopened.Users()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID())
	assert.Equal(t, "Bea", users[1].Name())
}

func TestFlagOpsRoundTrip(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.AddUser("u1", "Ann"))
	u, ok, err := s.Get("u1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, u.SetFlag("mod", "todos", map[string]any{
		"a": map[string]any{"label": "one", "isDone": false},
		"b": map[string]any{"label": "two", "isDone": false},
	}))
	require.NoError(t, u.MergeFlag("mod", "todos", map[string]any{
		"a": map[string]any{"isDone": true},
	}))
	require.NoError(t, u.UnsetFlag("mod", "todos.b"))

	// a fresh handle sees what is on disk
	u2, _, err := Open(s.Path()).Get("u1")
	require.NoError(t, err)
	got, err := u2.GetFlag("mod", "todos")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"label": "one", "isDone": true},
	}, got)
}

func TestCorruptFile(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{nope"), 0o644))

	_, err := s.Users()
	assert.ErrorContains(t, err, "json unmarshal")
}

func TestWriteAfterUserRemoved(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.AddUser("u1", "Ann"))
	u, _, err := s.Get("u1")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"users":[]}`), 0o644))
	assert.Error(t, u.SetFlag("mod", "todos", map[string]any{}))
}
