package todo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/usertodo/internal/directory"
	"github.com/idilsaglam/usertodo/internal/model"
)

// countingDir wraps a directory and counts flag writes.
type countingDir struct {
	directory.Directory
	writes int
	err    error
}

type countingUser struct {
	directory.User
	d *countingDir
}

func (c *countingDir) Users() ([]directory.User, error) {
	us, err := c.Directory.Users()
	if err != nil {
		return nil, err
	}
	out := make([]directory.User, len(us))
	for i, u := range us {
		out[i] = countingUser{User: u, d: c}
	}
	return out, nil
}

func (c *countingDir) Get(id string) (directory.User, bool, error) {
	u, ok, err := c.Directory.Get(id)
	if !ok || err != nil {
		return nil, ok, err
	}
	return countingUser{User: u, d: c}, true, nil
}

func (u countingUser) SetFlag(scope, key string, v map[string]any) error {
	u.d.writes++
	if u.d.err != nil {
		return u.d.err
	}
	return u.User.SetFlag(scope, key, v)
}

func (u countingUser) MergeFlag(scope, key string, v map[string]any) error {
	u.d.writes++
	if u.d.err != nil {
		return u.d.err
	}
	return u.User.MergeFlag(scope, key, v)
}

func (u countingUser) UnsetFlag(scope, path string) error {
	u.d.writes++
	if u.d.err != nil {
		return u.d.err
	}
	return u.User.UnsetFlag(scope, path)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func newTestStore(t *testing.T, users ...string) (*Store, *countingDir, *directory.Memory) {
	t.Helper()
	mem := directory.NewMemory()
	for _, u := range users {
		require.NoError(t, mem.AddUser(u, "name-"+u))
	}
	dir := &countingDir{Directory: mem}
	return New(dir, WithIDGenerator(sequentialIDs())), dir, mem
}

func strp(s string) *string { return &s }

func TestCreateThenListForUser(t *testing.T) {
	s, _, _ := newTestStore(t, "u1")

	r, ok, err := s.Create("u1", model.Label("Buy milk"))
	require.NoError(t, err)
	require.True(t, ok)

	got, ok, err := s.ListForUser("u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Records{
		r.ID: {ID: r.ID, Label: "Buy milk", IsDone: false, OwnerID: "u1"},
	}, got)
}

func TestCreateStampsIDAndOwner(t *testing.T) {
	s, _, _ := newTestStore(t, "u1")

	r, ok, err := s.Create("u1", model.Patch{
		ID:      strp("mine"),
		OwnerID: strp("someone-else"),
		Label:   strp("x"),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "id1", r.ID)
	assert.Equal(t, "u1", r.OwnerID)
	assert.False(t, r.IsDone)

	got, _, _ := s.ListForUser("u1")
	assert.Contains(t, got, "id1")
	assert.NotContains(t, got, "mine")
}

func TestCreateHonoursExplicitDone(t *testing.T) {
	s, _, _ := newTestStore(t, "u1")
	done := true
	r, _, err := s.Create("u1", model.Patch{Label: strp("x"), IsDone: &done})
	require.NoError(t, err)
	assert.True(t, r.IsDone)
}

func TestCreateReplacesPriorRecords(t *testing.T) {
	s, _, _ := newTestStore(t, "u1")

	first, _, err := s.Create("u1", model.Label("first"))
	require.NoError(t, err)
	second, _, err := s.Create("u1", model.Label("x"))
	require.NoError(t, err)

	got, _, err := s.ListForUser("u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotContains(t, got, first.ID)
	assert.Equal(t, model.ToDoRecord{ID: second.ID, Label: "x", OwnerID: "u1"}, got[second.ID])
}

func TestUpdateChangesOnlySuppliedFields(t *testing.T) {
	s, _, _ := newTestStore(t, "u1")
	_, err := s.ReplaceUserRecords("u1", model.Records{
		"a": {ID: "a", Label: "one", OwnerID: "u1"},
		"b": {ID: "b", Label: "two", OwnerID: "u1"},
	})
	require.NoError(t, err)

	ok, err := s.Update("a", model.Done(true))
	require.NoError(t, err)
	require.True(t, ok)

	got, _, _ := s.ListForUser("u1")
	assert.Equal(t, model.ToDoRecord{ID: "a", Label: "one", IsDone: true, OwnerID: "u1"}, got["a"])
	assert.Equal(t, model.ToDoRecord{ID: "b", Label: "two", OwnerID: "u1"}, got["b"])
}

func TestUpdateUnknownRecord(t *testing.T) {
	s, dir, _ := newTestStore(t, "u1")

	ok, err := s.Update("ghost", model.Done(true))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, dir.writes)
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	s, _, _ := newTestStore(t, "u1", "u2")
	_, err := s.ReplaceUserRecords("u1", model.Records{
		"a": {ID: "a", Label: "one", OwnerID: "u1"},
		"b": {ID: "b", Label: "two", OwnerID: "u1"},
	})
	require.NoError(t, err)
	_, err = s.ReplaceUserRecords("u2", model.Records{
		"c": {ID: "c", Label: "three", OwnerID: "u2"},
	})
	require.NoError(t, err)

	before, err := s.ListAll()
	require.NoError(t, err)

	ok, err := s.Delete("a")
	require.NoError(t, err)
	require.True(t, ok)

	after, err := s.ListAll()
	require.NoError(t, err)
	assert.Len(t, after, len(before)-1)
	assert.NotContains(t, after, "a")
	assert.Contains(t, after, "b")
	assert.Contains(t, after, "c")
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	s, dir, _ := newTestStore(t, "u1")
	_, _, err := s.Create("u1", model.Label("keep"))
	require.NoError(t, err)
	writes := dir.writes

	ok, err := s.Delete("ghost")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, writes, dir.writes)

	all, _ := s.ListAll()
	assert.Len(t, all, 1)
}

func TestListAllLaterUserWins(t *testing.T) {
	s, _, _ := newTestStore(t, "u1", "u2")
	_, err := s.ReplaceUserRecords("u1", model.Records{"same": {ID: "same", Label: "from u1", OwnerID: "u1"}})
	require.NoError(t, err)
	_, err = s.ReplaceUserRecords("u2", model.Records{"same": {ID: "same", Label: "from u2", OwnerID: "u2"}})
	require.NoError(t, err)

	all, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "from u2", all["same"].Label)
	assert.Equal(t, "u2", all["same"].OwnerID)
}

func TestListAllEmptyUsers(t *testing.T) {
	s, _, _ := newTestStore(t, "u1", "u2")
	all, err := s.ListAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListForUserWithoutRecords(t *testing.T) {
	s, _, _ := newTestStore(t, "u1")
	got, ok, err := s.ListForUser("u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUnknownUserIsNoop(t *testing.T) {
	s, dir, _ := newTestStore(t, "u1")

	got, ok, err := s.ListForUser("ghost")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	_, ok, err = s.Create("ghost", model.Label("x"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ReplaceUserRecords("ghost", model.Records{"a": {ID: "a"}})
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Zero(t, dir.writes)
}

func TestOwnerGoneIsNoop(t *testing.T) {
	s, dir, _ := newTestStore(t, "u1", "u2")
	// A record that claims an owner the directory no longer knows.
	_, err := s.ReplaceUserRecords("u1", model.Records{"orphan": {ID: "orphan", OwnerID: "u9"}})
	require.NoError(t, err)
	writes := dir.writes

	ok, err := s.Update("orphan", model.Done(true))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Delete("orphan")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, writes, dir.writes)
}

func TestReplaceUserRecords(t *testing.T) {
	s, _, _ := newTestStore(t, "u1")
	_, _, err := s.Create("u1", model.Label("old"))
	require.NoError(t, err)

	next := model.Records{
		"x": {ID: "x", Label: "new one", OwnerID: "u1"},
		"y": {ID: "y", Label: "new two", IsDone: true, OwnerID: "u1"},
	}
	ok, err := s.ReplaceUserRecords("u1", next)
	require.NoError(t, err)
	require.True(t, ok)

	got, _, _ := s.ListForUser("u1")
	assert.Equal(t, next, got)
}

func TestStorageErrorsPropagate(t *testing.T) {
	s, dir, _ := newTestStore(t, "u1")
	_, err := s.ReplaceUserRecords("u1", model.Records{"a": {ID: "a", OwnerID: "u1"}})
	require.NoError(t, err)

	boom := errors.New("disk on fire")
	dir.err = boom

	_, _, err = s.Create("u1", model.Label("x"))
	assert.ErrorIs(t, err, boom)
	_, err = s.Update("a", model.Done(true))
	assert.ErrorIs(t, err, boom)
	_, err = s.Delete("a")
	assert.ErrorIs(t, err, boom)
	_, err = s.ReplaceUserRecords("u1", nil)
	assert.ErrorIs(t, err, boom)
}

func TestScopeOption(t *testing.T) {
	mem := directory.NewMemory()
	require.NoError(t, mem.AddUser("u1", "Ann"))
	s := New(mem, WithScope("other"), WithIDGenerator(sequentialIDs()))
	_, _, err := s.Create("u1", model.Label("x"))
	require.NoError(t, err)

	u, _, _ := mem.Get("u1")
	flag, err := u.GetFlag("other", FlagKey)
	require.NoError(t, err)
	assert.Contains(t, flag, "id1")
	flag, err = u.GetFlag(DefaultScope, FlagKey)
	require.NoError(t, err)
	assert.Nil(t, flag)
}

func TestRandomID(t *testing.T) {
	a, b := RandomID(DefaultIDLength), RandomID(DefaultIDLength)
	assert.Len(t, a, DefaultIDLength)
	assert.NotEqual(t, a, b)
	assert.Len(t, RandomID(0), 32)
	assert.Len(t, RandomID(99), 32)
}
