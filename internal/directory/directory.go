// Package directory defines the user directory the record store is built on:
// user lookup plus per-user flag storage, with one shared implementation of
// the flag semantics that every backend reuses.
package directory

import "errors"

// ErrUserExists is returned by AddUser when the id is already registered.
var ErrUserExists = errors.New("user already exists")

// User is a resolved user handle with namespaced flag storage.
//
// SetFlag replaces whatever is stored at key. MergeFlag deep-merges value into
// it by key path. UnsetFlag accepts a dotted compound path and removes only
// that leaf; a missing path is not an error.
type User interface {
	ID() string
	Name() string
	GetFlag(scope, key string) (map[string]any, error)
	SetFlag(scope, key string, value map[string]any) error
	MergeFlag(scope, key string, value map[string]any) error
	UnsetFlag(scope, path string) error
}

// Directory resolves users. Users returns them in a stable order (the order
// they were added).
type Directory interface {
	Users() ([]User, error)
	Get(id string) (User, bool, error)
}

// Registry is a Directory that can register new users.
type Registry interface {
	Directory
	AddUser(id, name string) error
}
