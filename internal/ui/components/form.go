package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"poolintake/internal/ui/theme"
)

// FieldChangedMsg is emitted whenever an input's value changes, so the
// owner can schedule an autosave without waiting for focus to move.
type FieldChangedMsg struct{ Key string }

// Field pairs a labelled textinput with the key the owner uses to read it back.
type Field struct {
	Key         string
	Label       string
	Placeholder string
	Value       string
}

// Form is a vertical group of labelled textinputs with up/down focus cycling.
type Form struct {
	fields []Field
	inputs []textinput.Model
	focus  int
}

func NewForm(fields []Field) Form {
	inputs := make([]textinput.Model, len(fields))
	for i, field := range fields {
		ti := textinput.New()
		ti.Placeholder = field.Placeholder
		ti.CharLimit = 256
		ti.SetValue(field.Value)
		inputs[i] = ti
	}
	form := Form{fields: fields, inputs: inputs}
	if len(form.inputs) > 0 {
		form.inputs[0].Focus()
	}
	return form
}

// Values returns the current input values keyed by field key.
func (f Form) Values() map[string]string {
	values := make(map[string]string, len(f.fields))
	for i, field := range f.fields {
		values[field.Key] = strings.TrimSpace(f.inputs[i].Value())
	}
	return values
}

// SetValue overwrites one field, used when state is refreshed from outside.
func (f *Form) SetValue(key, value string) {
	for i, field := range f.fields {
		if field.Key == key {
			f.inputs[i].SetValue(value)
			return
		}
	}
}

func (f Form) Focus() tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	return f.inputs[f.focus].Focus()
}

func (f *Form) Blur() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up", "shift+tab":
			return f.moveFocus(-1), nil
		case "down", "tab":
			return f.moveFocus(1), nil
		}
	}

	if len(f.inputs) == 0 {
		return f, nil
	}
	before := f.inputs[f.focus].Value()
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	if f.inputs[f.focus].Value() != before {
		changed := f.fields[f.focus].Key
		return f, tea.Batch(cmd, func() tea.Msg { return FieldChangedMsg{Key: changed} })
	}
	return f, cmd
}

func (f Form) moveFocus(delta int) Form {
	if len(f.inputs) == 0 {
		return f
	}
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
	return f
}

func (f Form) View() string {
	var sb strings.Builder
	for i, field := range f.fields {
		label := theme.Label.Render(field.Label)
		if i == f.focus {
			label = theme.Hot.Render(field.Label)
		}
		sb.WriteString(label + "\n")
		sb.WriteString(f.inputs[i].View() + "\n")
	}
	return sb.String()
}
