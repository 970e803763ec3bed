package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/placeprep/internal/ui/layout"
)

// Screen is one page of the app. Screens are stacked; the top one gets
// input and is drawn between the header and footer.
type Screen interface {
	// Init returns an initial command when the screen is pushed.
	Init() tea.Cmd

	// Update handles messages and returns the updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string

	// Status is drawn at the right of the header, e.g. the countdown.
	Status() string

	// KeyHints lists the footer key hints.
	KeyHints() []layout.KeyHint
}

// pushScreenMsg asks the app to push a screen onto the stack.
type pushScreenMsg struct {
	Screen Screen
}

// popScreenMsg asks the app to pop the top screen. Popping the last
// screen quits.
type popScreenMsg struct{}

func pushScreen(s Screen) tea.Cmd {
	return func() tea.Msg { return pushScreenMsg{Screen: s} }
}

func popScreen() tea.Msg {
	return popScreenMsg{}
}
