// Package session remembers which user is acting: the viewing user whose
// list is editable and the default owner for new records.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnvUser overrides the saved session when set.
const EnvUser = "TODO_USER"

// Where an Info came from.
const (
	SourceEnv  = "env"
	SourceFile = "file"
)

// Info is the active user.
type Info struct {
	UserID    string    `json:"user_id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"` // zero for SourceEnv
}

// path is ~/.tada/session.json.
func path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada", "session.json"), nil
}

// Get returns the active user, or nil if nobody is logged in.
func Get() (*Info, error) {
	if id := strings.TrimSpace(os.Getenv(EnvUser)); id != "" {
		return &Info{UserID: id, Source: SourceEnv}, nil
	}
	p, err := path()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read session: %w", err)
	}
	info := &Info{}
	if err := json.Unmarshal(b, info); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", p, err)
	}
	return info, nil
}

// Set records userID as the active user.
func Set(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("empty user id")
	}
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(Info{UserID: userID, Source: SourceFile, CreatedAt: time.Now()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Delete forgets the active user. Not being logged in is fine.
func Delete() error {
	p, err := path()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
