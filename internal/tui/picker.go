package tui

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/placeprep/internal/store"
	"github.com/abhisek/placeprep/internal/ui/components"
	"github.com/abhisek/placeprep/internal/ui/layout"
	"github.com/abhisek/placeprep/internal/ui/theme"
)

func startCmd(ctx context.Context, start StartFunc, testID string) tea.Cmd {
	return func() tea.Msg {
		if start == nil {
			return startedMsg{Err: fmt.Errorf("no attempt starter configured")}
		}
		c, err := start(ctx, testID)
		return startedMsg{Controller: c, Err: err}
	}
}

// pickerScreen lists the available tests.
type pickerScreen struct {
	ctx    context.Context
	start  StartFunc
	menu   components.Menu
	empty  bool
	errMsg string
}

func newPicker(ctx context.Context, tests []store.TestSummary, start StartFunc) *pickerScreen {
	p := &pickerScreen{ctx: ctx, start: start, empty: len(tests) == 0}
	items := make([]components.MenuItem, len(tests))
	for i, t := range tests {
		id := t.ID
		items[i] = components.MenuItem{
			Label:    t.Title,
			Detail:   fmt.Sprintf("%s · %d min · %d questions", t.Type, t.TimeLimitMinutes, t.QuestionCount),
			Disabled: t.QuestionCount == 0,
			Action:   func() tea.Cmd { return startCmd(ctx, start, id) },
		}
	}
	p.menu = components.NewMenu(items)
	return p
}

func (p *pickerScreen) Init() tea.Cmd { return nil }

func (p *pickerScreen) Title() string { return "Tests" }

func (p *pickerScreen) Status() string { return "" }

func (p *pickerScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Start"},
		{Key: "q", Description: "Quit"},
	}
}

func (p *pickerScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		if msg.Err != nil {
			p.errMsg = msg.Err.Error()
			return p, nil
		}
		p.errMsg = ""
		return p, pushScreen(newSession(p.ctx, msg.Controller))

	case tea.KeyPressMsg:
		if msg.String() == "q" || msg.String() == "esc" {
			return p, popScreen
		}
		var cmd tea.Cmd
		p.menu, cmd = p.menu.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *pickerScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Render("  Choose a test"))
	b.WriteString("\n\n")
	if p.empty {
		b.WriteString(theme.Hint.Render("  No tests yet. Import a bank with `placeprep bank import <file>`."))
	} else {
		b.WriteString(p.menu.View())
	}
	if p.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.Incorrect.Render("  " + p.errMsg))
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// startingScreen allocates the attempt for a test chosen on the command
// line and then becomes the session.
type startingScreen struct {
	ctx    context.Context
	testID string
	start  StartFunc
	errMsg string
}

func newStarting(ctx context.Context, testID string, start StartFunc) *startingScreen {
	return &startingScreen{ctx: ctx, testID: testID, start: start}
}

func (s *startingScreen) Init() tea.Cmd {
	return startCmd(s.ctx, s.start, s.testID)
}

func (s *startingScreen) Title() string { return s.testID }

func (s *startingScreen) Status() string { return "" }

func (s *startingScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "q", Description: "Quit"}}
}

func (s *startingScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		sess := newSession(s.ctx, msg.Controller)
		return sess, sess.Init()
	case tea.KeyPressMsg:
		if msg.String() == "q" || msg.String() == "esc" {
			return s, popScreen
		}
	}
	return s, nil
}

func (s *startingScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Incorrect.Render("Could not start "+s.testID+": "+s.errMsg))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Hint.Render("Starting "+s.testID+"..."))
}
