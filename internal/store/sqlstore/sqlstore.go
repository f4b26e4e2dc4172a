// Package sqlstore is a user directory kept in SQLite. Each flag key of a
// user's scope is one row holding its value as JSON; nested paths are
// resolved in Go with the shared directory.Flags semantics.
package sqlstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/idilsaglam/usertodo/internal/directory"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS user_flags (
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	scope   TEXT NOT NULL,
	key     TEXT NOT NULL,
	value   TEXT NOT NULL,
	PRIMARY KEY (user_id, scope, key)
);`

// Store is a SQLite-backed directory.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// one writer; SQLite serializes anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already prepared database.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type userRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// AddUser registers a user after the existing ones.
func (s *Store) AddUser(id, name string) error {
	_, ok, err := s.Get(id)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("add user %q: %w", id, directory.ErrUserExists)
	}
	q, args, err := sq.Insert("users").
		Columns("id", "name", "position").
		Values(id, name, sq.Expr("(SELECT COALESCE(MAX(position), 0) + 1 FROM users)")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.Exec(q, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) Users() ([]directory.User, error) {
	q, args, err := sq.Select("id", "name").From("users").OrderBy("position").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var rows []userRow
	if err := s.db.Select(&rows, q, args...); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	out := make([]directory.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, &user{s: s, id: r.ID, name: r.Name})
	}
	return out, nil
}

func (s *Store) Get(id string) (directory.User, bool, error) {
	q, args, err := sq.Select("id", "name").From("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build select: %w", err)
	}
	var r userRow
	if err := s.db.Get(&r, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select user: %w", err)
	}
	return &user{s: s, id: r.ID, name: r.Name}, true, nil
}

type user struct {
	s        *Store
	id, name string
}

func (u *user) ID() string   { return u.id }
func (u *user) Name() string { return u.name }

func (u *user) GetFlag(scope, key string) (map[string]any, error) {
	head := directory.SplitPath(key)[0]
	f, err := loadFlag(u.s.db, u.id, scope, head)
	if err != nil {
		return nil, err
	}
	return f.Get(scope, key), nil
}

func (u *user) SetFlag(scope, key string, value map[string]any) error {
	return u.mutate(scope, key, func(f directory.Flags) { f.Set(scope, key, value) })
}

func (u *user) MergeFlag(scope, key string, value map[string]any) error {
	return u.mutate(scope, key, func(f directory.Flags) { f.Merge(scope, key, value) })
}

func (u *user) UnsetFlag(scope, path string) error {
	return u.mutate(scope, path, func(f directory.Flags) { f.Unset(scope, path) })
}

// mutate applies fn to the row holding the top-level key of path and writes
// it back in one transaction.
func (u *user) mutate(scope, path string, fn func(directory.Flags)) (err error) {
	head := directory.SplitPath(path)[0]
	tx, err := u.s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	f, err := loadFlag(tx, u.id, scope, head)
	if err != nil {
		return err
	}
	fn(f)

	v, ok := f[scope][head]
	if !ok {
		q, args, err := sq.Delete("user_flags").
			Where(sq.Eq{"user_id": u.id, "scope": scope, "key": head}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := tx.Exec(q, args...); err != nil {
			return fmt.Errorf("delete flag: %w", err)
		}
		return tx.Commit()
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	q, args, err := sq.Insert("user_flags").
		Columns("user_id", "scope", "key", "value").
		Values(u.id, scope, head, string(b)).
		Suffix("ON CONFLICT (user_id, scope, key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := tx.Exec(q, args...); err != nil {
		return fmt.Errorf("write flag: %w", err)
	}
	return tx.Commit()
}

// loadFlag reads one top-level flag into a Flags holding just that key.
func loadFlag(q sqlx.Queryer, userID, scope, key string) (directory.Flags, error) {
	query, args, err := sq.Select("value").From("user_flags").
		Where(sq.Eq{"user_id": userID, "scope": scope, "key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	f := directory.Flags{scope: map[string]any{}}
	var raw string
	if err := sqlx.Get(q, &raw, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return f, nil
		}
		return nil, fmt.Errorf("select flag: %w", err)
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	f[scope][key] = v
	return f, nil
}
