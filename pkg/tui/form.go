package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"map_console/pkg/editor"
	"map_console/pkg/model"
)

const (
	fieldType = iota
	fieldValue
	fieldDescription
)

// constraintForm collects a draft constraint for the selected edges.
type constraintForm struct {
	inputs  []textinput.Model
	focused int
}

func newConstraintForm() *constraintForm {
	typ := textinput.New()
	typ.Prompt = "type: "
	typ.Placeholder = "block | penalty | oneway"
	typ.CharLimit = 10
	typ.Width = 24

	val := textinput.New()
	val.Prompt = "value: "
	val.Placeholder = "factor, or forward | backward | both"
	val.CharLimit = 16
	val.Width = 24

	desc := textinput.New()
	desc.Prompt = "description: "
	desc.Placeholder = "optional"
	desc.CharLimit = 200
	desc.Width = 40

	f := &constraintForm{inputs: []textinput.Model{typ, val, desc}}
	f.inputs[0].Focus()
	return f
}

// next moves focus to the following field, wrapping around.
func (f *constraintForm) next() {
	f.inputs[f.focused].Blur()
	f.focused = (f.focused + 1) % len(f.inputs)
	f.inputs[f.focused].Focus()
}

func (f *constraintForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return cmd
}

func (f *constraintForm) draft() editor.Draft {
	return editor.Draft{
		Type:        model.ConstraintType(strings.ToLower(strings.TrimSpace(f.inputs[fieldType].Value()))),
		Value:       strings.TrimSpace(f.inputs[fieldValue].Value()),
		Description: strings.TrimSpace(f.inputs[fieldDescription].Value()),
	}
}

func (f *constraintForm) view() string {
	lines := make([]string, len(f.inputs))
	for i := range f.inputs {
		lines[i] = f.inputs[i].View()
	}
	return strings.Join(lines, "\n")
}
