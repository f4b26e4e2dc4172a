package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsSetReplaces(t *testing.T) {
	f := Flags{}
	f.Set("mod", "todos", map[string]any{"a": map[string]any{"label": "one"}})
	f.Set("mod", "todos", map[string]any{"b": map[string]any{"label": "two"}})

	got := f.Get("mod", "todos")
	assert.Equal(t, map[string]any{"b": map[string]any{"label": "two"}}, got)
}

func TestFlagsMergeByKeyPath(t *testing.T) {
	f := Flags{}
	f.Set("mod", "todos", map[string]any{
		"a": map[string]any{"label": "one", "isDone": false},
		"b": map[string]any{"label": "two", "isDone": false},
	})
	f.Merge("mod", "todos", map[string]any{"a": map[string]any{"isDone": true}})

	got := f.Get("mod", "todos")
	assert.Equal(t, map[string]any{"label": "one", "isDone": true}, got["a"])
	assert.Equal(t, map[string]any{"label": "two", "isDone": false}, got["b"])
}

func TestFlagsMergeIntoMissingKey(t *testing.T) {
	f := Flags{}
	f.Merge("mod", "todos", map[string]any{"a": map[string]any{"label": "x"}})
	assert.Equal(t, map[string]any{"a": map[string]any{"label": "x"}}, f.Get("mod", "todos"))
}

func TestFlagsUnsetCompoundPath(t *testing.T) {
	f := Flags{}
	f.Set("mod", "todos", map[string]any{
		"a": map[string]any{"label": "one"},
		"b": map[string]any{"label": "two"},
	})
	f.Unset("mod", "todos.a")
	assert.Equal(t, map[string]any{"b": map[string]any{"label": "two"}}, f.Get("mod", "todos"))

	// missing paths are ignored
	f.Unset("mod", "todos.zzz")
	f.Unset("other", "todos.a")
	f.Unset("mod", "nope.a")
	assert.Len(t, f.Get("mod", "todos"), 1)
}

func TestFlagsGetCopies(t *testing.T) {
	f := Flags{}
	in := map[string]any{"a": map[string]any{"label": "one"}}
	f.Set("mod", "todos", in)
	in["a"].(map[string]any)["label"] = "mutated"

	got := f.Get("mod", "todos")
	got["a"].(map[string]any)["label"] = "also mutated"

	again := f.Get("mod", "todos")
	assert.Equal(t, "one", again["a"].(map[string]any)["label"])
}

func TestFlagsGetMissing(t *testing.T) {
	f := Flags{}
	assert.Nil(t, f.Get("mod", "todos"))
	f.Set("mod", "scalar", map[string]any{"x": 1})
	assert.Nil(t, f.Get("mod", "scalar.x"))
}

func TestFlagsDottedSet(t *testing.T) {
	f := Flags{}
	f.Set("mod", "todos.a", map[string]any{"label": "x"})
	require.NotNil(t, f.Get("mod", "todos"))
	assert.Equal(t, map[string]any{"label": "x"}, f.Get("mod", "todos.a"))
}
