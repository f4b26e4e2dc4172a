package ui

import (
	"fmt"

	"github.com/idilsaglam/usertodo/internal/model"
)

// Header is the title line with done/pending/total counts.
func Header(title string, records model.Records) string {
	t := Current()
	d, p := records.Stats()
	return fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render(title),
		t.Success.Render(t.SymDone), d,
		t.Pending.Render(t.SymPending), p,
		t.Accent.Render("Total"), len(records),
	)
}

// FlatLines renders one line per record with its id.
func FlatLines(items []model.ToDoRecord) []string {
	t := Current()
	if len(items) == 0 {
		return []string{t.Muted.Render("no items")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		box := t.Muted.Render(t.BoxUnchecked)
		label := Truncate(it.Label, 80)
		if it.IsDone {
			box = t.Success.Render(t.BoxChecked)
			label = t.DoneText.Render(label)
		}
		out = append(out, fmt.Sprintf("%s %s %s", box, label, t.Muted.Render(it.ID)))
	}
	return out
}

// GroupLines renders pending then done sections.
func GroupLines(items []model.ToDoRecord) []string {
	t := Current()
	var pend, done []model.ToDoRecord
	for _, it := range items {
		if it.IsDone {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, FlatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, FlatLines(done)...)
	}
	return lines
}

// Truncate shortens s to n runes with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 4 {
		return s
	}
	return string(r[:n-3]) + "..."
}
