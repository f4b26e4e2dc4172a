package directory

import "fmt"

// Memory is an in-process directory. Values are copied on the way in and out,
// so callers never share maps with the store.
type Memory struct {
	order []string
	users map[string]*memUser
}

type memUser struct {
	id, name string
	flags    Flags
}

// NewMemory returns an empty directory.
func NewMemory() *Memory {
	return &Memory{users: map[string]*memUser{}}
}

// AddUser registers a user at the end of the iteration order.
func (m *Memory) AddUser(id, name string) error {
	if _, ok := m.users[id]; ok {
		return fmt.Errorf("add user %q: %w", id, ErrUserExists)
	}
	m.users[id] = &memUser{id: id, name: name, flags: Flags{}}
	m.order = append(m.order, id)
	return nil
}

// RemoveUser drops a user and its flags.
func (m *Memory) RemoveUser(id string) {
	if _, ok := m.users[id]; !ok {
		return
	}
	delete(m.users, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Memory) Users() ([]User, error) {
	out := make([]User, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.users[id])
	}
	return out, nil
}

func (m *Memory) Get(id string) (User, bool, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, false, nil
	}
	return u, true, nil
}

func (u *memUser) ID() string   { return u.id }
func (u *memUser) Name() string { return u.name }

func (u *memUser) GetFlag(scope, key string) (map[string]any, error) {
	return u.flags.Get(scope, key), nil
}

func (u *memUser) SetFlag(scope, key string, value map[string]any) error {
	u.flags.Set(scope, key, value)
	return nil
}

func (u *memUser) MergeFlag(scope, key string, value map[string]any) error {
	u.flags.Merge(scope, key, value)
	return nil
}

func (u *memUser) UnsetFlag(scope, path string) error {
	u.flags.Unset(scope, path)
	return nil
}
