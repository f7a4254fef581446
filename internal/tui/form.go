package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// formField is one labeled text input.
type formField struct {
	key    string // API field name, matches validation error keys
	label  string
	masked bool
	value  string
}

// formModel is the shared text-form widget used by login, signup and the user form.
type formModel struct {
	fields []formField
	focus  int
	errors map[string][]string
}

func newForm(fields ...formField) formModel {
	return formModel{fields: fields}
}

func (f *formModel) value(key string) string {
	for _, fl := range f.fields {
		if fl.key == key {
			return fl.value
		}
	}
	return ""
}

func (f *formModel) set(key, v string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].value = v
		}
	}
}

func (f *formModel) reset() {
	for i := range f.fields {
		f.fields[i].value = ""
	}
	f.focus = 0
	f.errors = nil
}

func (f *formModel) onLastField() bool {
	return f.focus == len(f.fields)-1
}

// update handles navigation and editing keys. submit is true when the user
// asked to submit (ctrl+s anywhere, or enter on the last field).
func (f formModel) update(msg tea.KeyMsg) (form formModel, submit bool) {
	n := len(f.fields)
	if n == 0 {
		return f, false
	}
	switch msg.String() {
	case "ctrl+s":
		return f, true
	case "tab", "down":
		f.focus = (f.focus + 1) % n
	case "shift+tab", "up":
		f.focus = (f.focus - 1 + n) % n
	case "enter":
		if f.onLastField() {
			return f, true
		}
		f.focus++
	default:
		fl := &f.fields[f.focus]
		fl.value = editKey(fl.value, msg)
	}
	return f, false
}

func (f formModel) View() string {
	var b strings.Builder

	width := 0
	for _, fl := range f.fields {
		if len(fl.label) > width {
			width = len(fl.label)
		}
	}

	for i, fl := range f.fields {
		cursor := " "
		style := metaStyle
		if i == f.focus {
			cursor = accentStyle.Render(">")
			style = selectedStyle
		}
		display := fl.value
		if fl.masked {
			display = strings.Repeat("•", len([]rune(fl.value)))
		}
		if i == f.focus {
			display += "█"
		}
		fmt.Fprintf(&b, "%s %s  %s\n", cursor, style.Render(padRight(fl.label, width)), normalStyle.Render(display))
		if msgs := f.errors[fl.key]; len(msgs) > 0 {
			fmt.Fprintf(&b, "  %s  %s\n", strings.Repeat(" ", width), errorStyle.Render(msgs[0]))
		}
	}

	// Errors for keys the form has no input for (e.g. "message").
	var extra []string
	for key, msgs := range f.errors {
		if len(msgs) > 0 && !f.hasField(key) {
			extra = append(extra, msgs[0])
		}
	}
	sort.Strings(extra)
	for _, msg := range extra {
		fmt.Fprintf(&b, "  %s\n", errorStyle.Render(msg))
	}
	return b.String()
}

func (f formModel) hasField(key string) bool {
	for _, fl := range f.fields {
		if fl.key == key {
			return true
		}
	}
	return false
}
