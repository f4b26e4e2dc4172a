package adapter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/usertodo/internal/model"
	"github.com/idilsaglam/usertodo/internal/ui"
)

// playerItem adapts a PlayerRow to bubbles/list.Item
type playerItem struct {
	row    *PlayerRow
	viewer bool
}

func (i playerItem) Title() string       { return i.row.Name }
func (i playerItem) Description() string { return i.row.UserID }
func (i playerItem) FilterValue() string { return i.row.Name }

// recordItem adapts a record to bubbles/list.Item
type recordItem struct {
	model.ToDoRecord
}

func (i recordItem) Title() string       { return i.Label }
func (i recordItem) Description() string { return "" }
func (i recordItem) FilterValue() string { return i.Label }

// Single-line delegates.
type playerDelegate struct{}

func (d playerDelegate) Height() int                               { return 1 }
func (d playerDelegate) Spacing() int                              { return 0 }
func (d playerDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d playerDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(playerItem)
	t := ui.Current()
	name := it.row.Name
	if name == "" {
		name = it.row.UserID
	}
	if it.viewer {
		name = t.Title.Render(name) + t.Muted.Render(" (you)")
	}
	var controls []string
	for _, c := range it.row.Controls {
		controls = append(controls, t.Accent.Render(c.Icon+" "+c.Label))
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
	}
	fmt.Fprintln(w, prefix+name+"  "+strings.Join(controls, " "))
}

type recordDelegate struct{}

func (d recordDelegate) Height() int                               { return 1 }
func (d recordDelegate) Spacing() int                              { return 0 }
func (d recordDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d recordDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(recordItem)
	t := ui.Current()
	box := t.Muted.Render(t.BoxUnchecked)
	label := it.Label
	if it.IsDone {
		box = t.Success.Render(t.BoxChecked)
		label = t.DoneText.Render(label)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+label)
}

type mode int

const (
	modePlayers mode = iota
	modeForm
)

// host receives forms opened by the adapter's controls.
type host struct {
	opened *Form
}

type modelTUI struct {
	a *Adapter
	h *host

	mode    mode
	players list.Model
	form    Form
	records list.Model
	changed bool
	status  string

	// Inline add / edit
	adding    bool
	editing   bool
	editIndex int
	ti        textinput.Model
	inputErr  string

	// Undo support (single-level)
	canUndo   bool
	undoIndex int
	undoItem  *recordItem

	width, height int
}

// Run plays the host: it calls Ready, shows the player list with the
// adapter's controls and opens forms when a control is clicked. Run installs
// itself as the adapter's form opener.
func Run(a *Adapter, opts ...tea.ProgramOption) error {
	if err := a.Ready(); err != nil {
		return err
	}
	m, err := newModel(a)
	if err != nil {
		return err
	}
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err = tea.NewProgram(m, opts...).Run()
	return err
}

func newModel(a *Adapter) (modelTUI, error) {
	h := &host{}
	a.open = func(f Form) { h.opened = &f }

	m := modelTUI{a: a, h: h, width: 80, height: 24}

	m.players = list.New(nil, playerDelegate{}, 0, 0)
	m.players.Title = "Players"
	m.players.SetShowStatusBar(false)
	m.players.SetFilteringEnabled(false)
	m.players.Styles.Title = ui.Current().Title
	m.players.Styles.HelpStyle = ui.Current().Help
	open := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "to-dos"))
	m.players.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{open} }

	m.records = list.New(nil, recordDelegate{}, 0, 0)
	m.records.SetShowStatusBar(true)
	m.records.SetFilteringEnabled(false)
	m.records.Styles.Title = ui.Current().Title
	m.records.Styles.HelpStyle = ui.Current().Help
	m.records.SetStatusBarItemName("item", "items")

	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.CharLimit = 200

	if err := m.refreshPlayers(); err != nil {
		return m, err
	}
	m.resize()
	return m, nil
}

func (m *modelTUI) refreshPlayers() error {
	rows, err := m.a.PlayerRows()
	if err != nil {
		return err
	}
	m.a.RenderPlayerList(rows)
	items := make([]list.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, playerItem{row: r, viewer: r.UserID == m.a.Viewer()})
	}
	m.players.SetItems(items)
	return nil
}

func (m *modelTUI) resize() {
	listHeight := m.height - 6
	if m.adding || m.editing {
		listHeight -= 3
	}
	if listHeight < 3 {
		listHeight = 3
	}
	m.players.SetSize(m.width-4, listHeight)
	m.records.SetSize(m.width-4, listHeight)
}

func (m *modelTUI) openForm(f Form) {
	items := make([]list.Item, 0, len(f.Records))
	for _, r := range f.Records {
		items = append(items, recordItem{r})
	}
	m.form = f
	m.records.SetItems(items)
	m.records.Select(0)
	m.records.Title = f.OwnerName + " · " + f.Title
	if !f.Editable {
		m.records.Title += " (read-only)"
	}
	bindings := formKeys(f.Editable)
	m.records.AdditionalShortHelpKeys = func() []key.Binding { return bindings }
	m.records.AdditionalFullHelpKeys = func() []key.Binding { return bindings }
	m.mode = modeForm
	m.changed = false
	m.canUndo = false
	m.undoItem = nil
	m.status = ""
}

func formKeys(editable bool) []key.Binding {
	back := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back"))
	if !editable {
		return []key.Binding{back}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		back,
	}
}

// closeForm persists the edited list as the user's complete set.
func (m *modelTUI) closeForm() {
	if m.changed {
		ok, err := m.a.store.ReplaceUserRecords(m.form.UserID, m.currentRecords())
		switch {
		case err != nil:
			m.status = "save: " + err.Error()
		case !ok:
			m.status = "save: user " + m.form.UserID + " is gone"
		default:
			m.status = "saved"
		}
	}
	m.changed = false
	m.mode = modePlayers
	if err := m.refreshPlayers(); err != nil {
		m.status = err.Error()
	}
}

func (m modelTUI) currentRecords() model.Records {
	out := model.Records{}
	for _, it := range m.records.Items() {
		if ri, ok := it.(recordItem); ok {
			out[ri.ID] = ri.ToDoRecord
		}
	}
	return out
}

// Update and View implement Bubble Tea's Model on modelTUI
func (m modelTUI) Init() tea.Cmd { return nil }

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		m.resize()
		return m, nil
	}
	if m.mode == modeForm {
		return m.updateForm(msg)
	}
	return m.updatePlayers(msg)
}

func (m modelTUI) updatePlayers(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			it, ok := m.players.SelectedItem().(playerItem)
			if !ok {
				return m, nil
			}
			for _, c := range it.row.Controls {
				if c.Name != ControlName {
					continue
				}
				if err := c.OnClick(); err != nil {
					m.status = err.Error()
				}
			}
			if m.h.opened != nil {
				m.openForm(*m.h.opened)
				m.h.opened = nil
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.players, cmd = m.players.Update(msg)
	return m, cmd
}

func (m modelTUI) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.adding || m.editing {
		return m.updateInput(msg)
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+c":
			m.closeForm()
			return m, tea.Quit
		case "q", "esc":
			m.closeForm()
			return m, nil
		case " ", "a", "e", "d", "u":
			if !m.form.Editable {
				m.status = "read-only: this list belongs to " + m.form.OwnerName
				return m, nil
			}
			m.edit(k.String())
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.records, cmd = m.records.Update(msg)
	return m, cmd
}

func (m *modelTUI) edit(k string) {
	i := m.records.Index()
	items := m.records.Items()
	switch k {
	case " ":
		if i >= 0 && i < len(items) {
			if ri, ok := items[i].(recordItem); ok {
				ri.IsDone = !ri.IsDone
				m.records.SetItem(i, ri)
				m.changed = true
			}
		}
	case "d":
		if i >= 0 && i < len(items) {
			if ri, ok := items[i].(recordItem); ok {
				tmp := ri
				m.undoItem = &tmp
				m.undoIndex = i
				m.canUndo = true
			}
			m.records.RemoveItem(i)
			m.changed = true
		}
	case "a":
		m.adding = true
		m.inputErr = ""
		m.ti.SetValue("")
		m.ti.Placeholder = "New item label..."
		m.ti.Focus()
		m.resize()
	case "e":
		if i >= 0 && i < len(items) {
			if ri, ok := items[i].(recordItem); ok {
				m.editing = true
				m.editIndex = i
				m.inputErr = ""
				m.ti.SetValue(ri.Label)
				m.ti.CursorEnd()
				m.ti.Placeholder = "Edit item label..."
				m.ti.Focus()
				m.resize()
			}
		}
	case "u":
		if m.canUndo && m.undoItem != nil {
			idx := m.undoIndex
			if idx < 0 {
				idx = 0
			}
			if idx > len(items) {
				idx = len(items)
			}
			m.records.InsertItem(idx, *m.undoItem)
			m.changed = true
			m.canUndo = false
			m.undoItem = nil
		}
	}
}

func (m modelTUI) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			label := strings.TrimSpace(m.ti.Value())
			if label == "" {
				m.inputErr = "Label cannot be empty"
				return m, nil
			}
			if m.adding {
				r := m.a.store.NewRecord(m.form.UserID, model.Label(label))
				m.records.InsertItem(m.records.Index()+1, recordItem{r})
			} else if m.editIndex >= 0 && m.editIndex < len(m.records.Items()) {
				if ri, ok := m.records.Items()[m.editIndex].(recordItem); ok {
					ri.Label = label
					m.records.SetItem(m.editIndex, ri)
				}
			}
			m.changed = true
			m.stopInput()
			return m, nil
		case "esc":
			m.stopInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *modelTUI) stopInput() {
	m.adding = false
	m.editing = false
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

func (m modelTUI) View() string {
	t := ui.Current()
	var b strings.Builder
	if m.mode == modePlayers {
		b.WriteString(m.players.View())
	} else {
		recs := m.currentRecords()
		d, p := recs.Stats()
		b.WriteString(ui.Header(m.form.OwnerName, recs))
		b.WriteString("\n")
		b.WriteString(t.Muted.Render(ui.ProgressBar(d, d+p, 28)))
		b.WriteString("\n\n")
		b.WriteString(m.records.View())
		if m.adding || m.editing {
			bar := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
			title := "Add new item"
			if m.editing {
				title = "Edit item"
			}
			if m.inputErr != "" {
				title += ": " + t.Error.Render(m.inputErr)
			}
			b.WriteString("\n")
			b.WriteString(bar.Render(title + "\n" + m.ti.View()))
		}
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(t.Muted.Render(m.status))
	}
	return ui.PanelString(b.String())
}
