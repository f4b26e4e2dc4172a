// Package adapter connects the record store to a host UI. The host calls
// Ready once at start-up and RenderPlayerList whenever it draws its list of
// users; the adapter hangs a "To-Dos" control on each row which, when
// clicked, opens the form view for that row's user.
//
// The form is read-only for other users' lists. The viewer's own list is
// editable in the terminal host; edits are saved as one full replacement
// through ReplaceUserRecords.
package adapter

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/usertodo/internal/directory"
	"github.com/idilsaglam/usertodo/internal/model"
	"github.com/idilsaglam/usertodo/internal/todo"
)

// ControlName identifies the control this adapter appends to player rows.
const ControlName = "todo-list-icon-button"

// Control is a clickable affordance on a row.
type Control struct {
	Name    string
	Label   string
	Icon    string
	OnClick func() error
}

// PlayerRow is one user line of the host's player list.
type PlayerRow struct {
	UserID   string
	Name     string
	Controls []Control
}

// Form is the view model of one user's list.
type Form struct {
	ID        string
	Title     string
	UserID    string
	OwnerName string
	Records   []model.ToDoRecord
	Done      int
	Pending   int
	// Editable is set when the viewer owns the list.
	Editable bool
}

// Adapter wires the record store into host hooks.
type Adapter struct {
	store  *todo.Store
	users  directory.Directory
	viewer string
	open   func(Form)
	log    *log.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithOpener sets how the host shows a form.
func WithOpener(fn func(Form)) Option {
	return func(a *Adapter) { a.open = fn }
}

// New returns an Adapter acting for viewerID.
func New(store *todo.Store, users directory.Directory, viewerID string, opts ...Option) *Adapter {
	a := &Adapter{
		store:  store,
		users:  users,
		viewer: viewerID,
		open:   func(Form) {},
		log:    log.New(io.Discard),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Viewer returns the acting user id.
func (a *Adapter) Viewer() string { return a.viewer }

// Store returns the underlying record store.
func (a *Adapter) Store() *todo.Store { return a.store }

// Ready dumps every record to the debug log.
func (a *Adapter) Ready() error {
	all, err := a.store.ListAll()
	if err != nil {
		return err
	}
	a.log.Debug("ready", "records", len(all))
	for id, r := range all {
		a.log.Debug("record", "id", id, "owner", r.OwnerID, "label", r.Label, "done", r.IsDone)
	}
	return nil
}

// RenderPlayerList appends the to-do control to every row.
func (a *Adapter) RenderPlayerList(rows []*PlayerRow) {
	for _, row := range rows {
		userID := row.UserID
		row.Controls = append(row.Controls, Control{
			Name:  ControlName,
			Label: "To-Dos",
			Icon:  "☰",
			OnClick: func() error {
				return a.click(userID)
			},
		})
	}
}

func (a *Adapter) click(userID string) error {
	records, ok, err := a.store.ListForUser(userID)
	if err != nil {
		return err
	}
	a.log.Debug("todo button clicked", "user", userID, "found", ok, "records", len(records))
	form, ok, err := a.FormView(userID)
	if err != nil || !ok {
		return err
	}
	a.open(form)
	return nil
}

// FormView builds the form for userID, or false if the user is unknown.
// Each record's ID is the key it is stored under.
func (a *Adapter) FormView(userID string) (Form, bool, error) {
	records, ok, err := a.store.ListForUser(userID)
	if err != nil || !ok {
		return Form{}, false, err
	}
	owner := userID
	if u, ok, err := a.users.Get(userID); err != nil {
		return Form{}, false, err
	} else if ok && u.Name() != "" {
		owner = u.Name()
	}
	records = records.Keyed(userID)
	done, pending := records.Stats()
	return Form{
		ID:        "todo-list-" + userID,
		Title:     "To Do List",
		UserID:    userID,
		OwnerName: owner,
		Records:   records.Sorted(),
		Done:      done,
		Pending:   pending,
		Editable:  userID == a.viewer,
	}, true, nil
}

// PlayerRows builds one row per known user, in directory order.
func (a *Adapter) PlayerRows() ([]*PlayerRow, error) {
	users, err := a.users.Users()
	if err != nil {
		return nil, err
	}
	rows := make([]*PlayerRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, &PlayerRow{UserID: u.ID(), Name: u.Name()})
	}
	return rows, nil
}
