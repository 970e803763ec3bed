package components

import (
	"strconv"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// NumberInput wraps bubbles/textinput and accepts digits only. It backs
// the jump-to-question prompt.
type NumberInput struct {
	Model textinput.Model
}

// NewNumberInput creates a focused input limited to maxDigits characters.
func NewNumberInput(prompt string, maxDigits int) NumberInput {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.CharLimit = maxDigits
	ti.Focus()
	return NumberInput{Model: ti}
}

// Init returns the focus command.
func (n NumberInput) Init() tea.Cmd {
	return n.Model.Focus()
}

// Update drops non-digit characters and forwards everything else.
func (n NumberInput) Update(msg tea.Msg) (NumberInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		key := kmsg.String()
		if len(key) == 1 && (key[0] < '0' || key[0] > '9') {
			return n, nil
		}
	}

	var cmd tea.Cmd
	n.Model, cmd = n.Model.Update(msg)
	return n, cmd
}

// View renders the input.
func (n NumberInput) View() string {
	return n.Model.View()
}

// Value returns the typed number, or an error when empty or invalid.
func (n NumberInput) Value() (int, error) {
	return strconv.Atoi(n.Model.Value())
}
