package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/placeprep/internal/ui/theme"
)

// OptionLabel returns the letter shown before option i: A, B, C, ...
func OptionLabel(i int) string {
	return string(rune('A' + i))
}

// OptionList renders a question's options with a movable cursor. The
// recorded answer lives elsewhere; Chosen only controls the marker.
type OptionList struct {
	Options []string
	Cursor  int
	Chosen  *int
}

// NewOptionList starts the cursor on the chosen option, or the first.
func NewOptionList(options []string, chosen *int) OptionList {
	cursor := 0
	if chosen != nil {
		cursor = *chosen
	}
	return OptionList{Options: options, Cursor: cursor, Chosen: chosen}
}

// Update moves the cursor with up/down and j/k.
func (o OptionList) Update(msg tea.Msg) (OptionList, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return o, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if o.Cursor > 0 {
			o.Cursor--
		}
	case "down", "j":
		if o.Cursor < len(o.Options)-1 {
			o.Cursor++
		}
	}
	return o, nil
}

// View renders one line per option.
func (o OptionList) View() string {
	var b strings.Builder
	for i, opt := range o.Options {
		cursor := "  "
		if i == o.Cursor {
			cursor = "> "
		}
		mark := "( )"
		if o.Chosen != nil && *o.Chosen == i {
			mark = "(*)"
		}
		line := fmt.Sprintf("%s%s %s. %s", cursor, mark, OptionLabel(i), opt)

		switch {
		case i == o.Cursor:
			b.WriteString(theme.Selected.Render(line))
		case o.Chosen != nil && *o.Chosen == i:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render(line))
		default:
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ReviewOptions renders options after submission: the correct option in
// green and a wrong pick in red.
func ReviewOptions(options []string, correct int, chosen *int) string {
	var b strings.Builder
	for i, opt := range options {
		line := fmt.Sprintf("  %s. %s", OptionLabel(i), opt)
		switch {
		case i == correct:
			b.WriteString(theme.Correct.Render(line + "  ✓"))
		case chosen != nil && *chosen == i:
			b.WriteString(theme.Incorrect.Render(line + "  ✗"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
