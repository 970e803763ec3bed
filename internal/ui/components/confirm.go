package components

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/placeprep/internal/ui/theme"
)

// Confirm is a yes/no prompt with two buttons. Left/right or tab toggles
// the focused button; y and n answer directly.
type Confirm struct {
	Prompt string
	Yes    string
	No     string
	OnYes  bool // focus
}

// ConfirmResult is reported by Update once the user answers.
type ConfirmResult int

const (
	ConfirmPending ConfirmResult = iota
	ConfirmAccepted
	ConfirmRejected
)

// NewConfirm creates a prompt focused on the "no" button.
func NewConfirm(prompt, yes, no string) Confirm {
	return Confirm{Prompt: prompt, Yes: yes, No: no}
}

// Update handles a key press and reports whether the prompt was answered.
func (c Confirm) Update(msg tea.Msg) (Confirm, ConfirmResult) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return c, ConfirmPending
	}

	switch kmsg.String() {
	case "left", "right", "h", "l", "tab":
		c.OnYes = !c.OnYes
	case "y", "Y":
		return c, ConfirmAccepted
	case "n", "N", "esc":
		return c, ConfirmRejected
	case "enter":
		if c.OnYes {
			return c, ConfirmAccepted
		}
		return c, ConfirmRejected
	}
	return c, ConfirmPending
}

// View renders the prompt above the two buttons.
func (c Confirm) View() string {
	yes, no := theme.ButtonInactive, theme.ButtonActive
	if c.OnYes {
		yes, no = theme.ButtonActive, theme.ButtonInactive
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		yes.Render(c.Yes), "  ", no.Render(c.No))
	return theme.Card.Render(lipgloss.JoinVertical(lipgloss.Center,
		theme.Body.Render(c.Prompt), "", buttons))
}
