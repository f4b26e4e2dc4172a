package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/idilsaglam/usertodo/internal/directory"
)

// JSON-backed user directory. Single file, human-readable, portable.
// Every call reloads the file and every write saves it whole; no locking,
// fine for a local single-user CLI.

const dataFileName = "todos.json"

// DefaultPath is todos.json in the working directory.
func DefaultPath() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return filepath.Join(wd, dataFileName), nil
}

type document struct {
	Users []userDoc `json:"users"`
}

type userDoc struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Flags directory.Flags `json:"flags,omitempty"`
}

// Store is a directory persisted in one JSON file.
type Store struct {
	path string
}

// Open returns a Store for path. The file is created on first write.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) load() (*document, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return &doc, nil
}

func (s *Store) save(doc *document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (d *document) find(id string) *userDoc {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// AddUser appends a user to the file.
func (s *Store) AddUser(id, name string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc.find(id) != nil {
		return fmt.Errorf("add user %q: %w", id, directory.ErrUserExists)
	}
	doc.Users = append(doc.Users, userDoc{ID: id, Name: name})
	return s.save(doc)
}

func (s *Store) Users() ([]directory.User, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]directory.User, 0, len(doc.Users))
	for _, u := range doc.Users {
		out = append(out, &user{s: s, id: u.ID, name: u.Name})
	}
	return out, nil
}

func (s *Store) Get(id string) (directory.User, bool, error) {
	doc, err := s.load()
	if err != nil {
		return nil, false, err
	}
	u := doc.find(id)
	if u == nil {
		return nil, false, nil
	}
	return &user{s: s, id: u.ID, name: u.Name}, true, nil
}

// user is a handle; flags are read from disk on every call.
type user struct {
	s        *Store
	id, name string
}

func (u *user) ID() string   { return u.id }
func (u *user) Name() string { return u.name }

func (u *user) GetFlag(scope, key string) (map[string]any, error) {
	doc, err := u.s.load()
	if err != nil {
		return nil, err
	}
	ud := doc.find(u.id)
	if ud == nil {
		return nil, nil
	}
	return ud.Flags.Get(scope, key), nil
}

func (u *user) SetFlag(scope, key string, value map[string]any) error {
	return u.mutate(func(f directory.Flags) { f.Set(scope, key, value) })
}

func (u *user) MergeFlag(scope, key string, value map[string]any) error {
	return u.mutate(func(f directory.Flags) { f.Merge(scope, key, value) })
}

func (u *user) UnsetFlag(scope, path string) error {
	return u.mutate(func(f directory.Flags) { f.Unset(scope, path) })
}

func (u *user) mutate(fn func(directory.Flags)) error {
	doc, err := u.s.load()
	if err != nil {
		return err
	}
	ud := doc.find(u.id)
	if ud == nil {
		return fmt.Errorf("user %q: no longer in %s", u.id, u.s.path)
	}
	if ud.Flags == nil {
		ud.Flags = directory.Flags{}
	}
	fn(ud.Flags)
	return u.s.save(doc)
}
