// Package todo is the record store: CRUD and listing over per-user to-do
// records kept in the user directory's flag storage.
//
// Every record lives under its owner's flag "todos" in the store's scope.
// When an owner (or, for update and delete, the record) cannot be resolved,
// the operation does nothing and reports false; storage errors from the
// directory are returned as they are.
package todo

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/usertodo/internal/directory"
	"github.com/idilsaglam/usertodo/internal/model"
)

const (
	// DefaultScope is the flag namespace records are stored under.
	DefaultScope = "todo-list"
	// FlagKey is the flag holding a user's records.
	FlagKey = "todos"
)

// Store reads and writes to-do records through a user directory.
type Store struct {
	users directory.Directory
	scope string
	newID func() string
	log   *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithScope sets the flag namespace.
func WithScope(scope string) Option {
	return func(s *Store) { s.scope = scope }
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithLogger sets the logger used for diagnostic traces.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a Store over users.
func New(users directory.Directory, opts ...Option) *Store {
	s := &Store{
		users: users,
		scope: DefaultScope,
		newID: func() string { return RandomID(DefaultIDLength) },
		log:   log.New(io.Discard),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scope returns the flag namespace in use.
func (s *Store) Scope() string { return s.scope }

// ListAll merges every user's records into one map. Users are visited in
// directory order, so on an id collision the later user's record wins.
func (s *Store) ListAll() (model.Records, error) {
	users, err := s.users.Users()
	if err != nil {
		return nil, err
	}
	out := model.Records{}
	for _, u := range users {
		flag, err := u.GetFlag(s.scope, FlagKey)
		if err != nil {
			return nil, err
		}
		for id, r := range model.RecordsFromFlag(flag) {
			out[id] = r
		}
	}
	return out, nil
}

// ListForUser returns the records stored for userID, or false if the user is
// unknown. A known user with nothing stored gets an empty map.
func (s *Store) ListForUser(userID string) (model.Records, bool, error) {
	u, ok, err := s.resolve(userID, "list")
	if err != nil || !ok {
		return nil, false, err
	}
	flag, err := u.GetFlag(s.scope, FlagKey)
	if err != nil {
		return nil, false, err
	}
	return model.RecordsFromFlag(flag), true, nil
}

// NewRecord builds a record for userID: not done by default, the patch on
// top, then a fresh id and the owner stamped over whatever the patch said.
func (s *Store) NewRecord(userID string, p model.Patch) model.ToDoRecord {
	r := p.Apply(model.ToDoRecord{IsDone: false})
	r.ID = s.newID()
	r.OwnerID = userID
	return r
}

// Create stores a new record for userID.
//
// The record is written as the user's whole "todos" flag: any records the
// user had before are replaced. Use ReplaceUserRecords with the full set to
// add without losing existing entries.
func (s *Store) Create(userID string, p model.Patch) (model.ToDoRecord, bool, error) {
	u, ok, err := s.resolve(userID, "create")
	if err != nil || !ok {
		return model.ToDoRecord{}, false, err
	}
	r := s.NewRecord(userID, p)
	if err := u.SetFlag(s.scope, FlagKey, map[string]any{r.ID: r.Fields()}); err != nil {
		return model.ToDoRecord{}, false, err
	}
	s.log.Debug("record created", "user", userID, "id", r.ID)
	return r, true, nil
}

// Update merges the patch into the stored record. Only the supplied fields
// are written, by key path, so other fields and sibling records are kept.
// Fields are written as given, id and ownerId included.
func (s *Store) Update(recordID string, p model.Patch) (bool, error) {
	u, ok, err := s.ownerOf(recordID)
	if err != nil || !ok {
		return false, err
	}
	if err := u.MergeFlag(s.scope, FlagKey, map[string]any{recordID: p.Fields()}); err != nil {
		return false, err
	}
	s.log.Debug("record updated", "user", u.ID(), "id", recordID)
	return true, nil
}

// Delete removes one record, leaving the owner's other records alone.
// Deleting an unknown id does nothing.
func (s *Store) Delete(recordID string) (bool, error) {
	u, ok, err := s.ownerOf(recordID)
	if err != nil || !ok {
		return false, err
	}
	if err := u.UnsetFlag(s.scope, FlagKey+"."+recordID); err != nil {
		return false, err
	}
	s.log.Debug("record deleted", "user", u.ID(), "id", recordID)
	return true, nil
}

// ReplaceUserRecords writes records as the user's complete set.
func (s *Store) ReplaceUserRecords(userID string, records model.Records) (bool, error) {
	u, ok, err := s.resolve(userID, "replace")
	if err != nil || !ok {
		return false, err
	}
	if err := u.SetFlag(s.scope, FlagKey, records.Flag()); err != nil {
		return false, err
	}
	s.log.Debug("records replaced", "user", userID, "count", len(records))
	return true, nil
}

func (s *Store) resolve(userID, op string) (directory.User, bool, error) {
	u, ok, err := s.users.Get(userID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		s.log.Debug(op+" skipped: unknown user", "user", userID)
	}
	return u, ok, nil
}

// ownerOf finds the record through ListAll and resolves its owner.
func (s *Store) ownerOf(recordID string) (directory.User, bool, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, false, err
	}
	r, ok := all[recordID]
	if !ok {
		s.log.Debug("skipped: unknown record", "id", recordID)
		return nil, false, nil
	}
	u, ok, err := s.users.Get(r.OwnerID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		s.log.Debug("skipped: owner not found", "id", recordID, "owner", r.OwnerID)
	}
	return u, ok, nil
}
