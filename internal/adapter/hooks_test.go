package adapter

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/usertodo/internal/directory"
	"github.com/idilsaglam/usertodo/internal/model"
	"github.com/idilsaglam/usertodo/internal/todo"
)

func fixture(t *testing.T) (*todo.Store, *directory.Memory) {
	t.Helper()
	mem := directory.NewMemory()
	require.NoError(t, mem.AddUser("u1", "Ann"))
	require.NoError(t, mem.AddUser("u2", "Bea"))
	n := 0
	s := todo.New(mem, todo.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("gen%d", n)
	}))
	_, err := s.ReplaceUserRecords("u1", model.Records{
		"a": {ID: "a", Label: "Buy milk", OwnerID: "u1"},
		"b": {ID: "b", Label: "Answer mail", IsDone: true, OwnerID: "u1"},
	})
	require.NoError(t, err)
	return s, mem
}

func TestReadyLogsAllRecords(t *testing.T) {
	s, mem := fixture(t)
	var buf bytes.Buffer
	l := log.New(&buf)
	l.SetLevel(log.DebugLevel)

	a := New(s, mem, "u1", WithLogger(l))
	require.NoError(t, a.Ready())
	assert.Contains(t, buf.String(), "records=2")
	assert.Contains(t, buf.String(), "Buy milk")
}

func TestRenderPlayerListAppendsControl(t *testing.T) {
	s, mem := fixture(t)
	a := New(s, mem, "u1")

	rows, err := a.PlayerRows()
	require.NoError(t, err)
	rows[0].Controls = []Control{{Name: "host-own"}}
	a.RenderPlayerList(rows)

	require.Len(t, rows, 2)
	require.Len(t, rows[0].Controls, 2)
	assert.Equal(t, "host-own", rows[0].Controls[0].Name)
	assert.Equal(t, ControlName, rows[0].Controls[1].Name)
	require.Len(t, rows[1].Controls, 1)
	assert.Equal(t, ControlName, rows[1].Controls[0].Name)
}

func TestControlClickOpensFormForRowUser(t *testing.T) {
	s, mem := fixture(t)
	var opened []Form
	a := New(s, mem, "u2", WithOpener(func(f Form) { opened = append(opened, f) }))

	rows, err := a.PlayerRows()
	require.NoError(t, err)
	a.RenderPlayerList(rows)
	require.NoError(t, rows[0].Controls[0].OnClick())

	require.Len(t, opened, 1)
	f := opened[0]
	assert.Equal(t, "u1", f.UserID)
	assert.Equal(t, "Ann", f.OwnerName)
	assert.Equal(t, "todo-list-u1", f.ID)
	assert.False(t, f.Editable)
	assert.Equal(t, 1, f.Done)
	assert.Equal(t, 1, f.Pending)
	require.Len(t, f.Records, 2)
	assert.Equal(t, "a", f.Records[0].ID)
}

func TestClickForVanishedUserOpensNothing(t *testing.T) {
	s, mem := fixture(t)
	opened := 0
	a := New(s, mem, "u1", WithOpener(func(Form) { opened++ }))

	rows, err := a.PlayerRows()
	require.NoError(t, err)
	a.RenderPlayerList(rows)
	mem.RemoveUser("u2")

	require.NoError(t, rows[1].Controls[0].OnClick())
	assert.Zero(t, opened)
}

func TestFormView(t *testing.T) {
	s, mem := fixture(t)
	a := New(s, mem, "u1")

	f, ok, err := a.FormView("u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, f.Editable)

	f, ok, err = a.FormView("u2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, f.Records)
	assert.False(t, f.Editable)

	_, ok, err = a.FormView("ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}
