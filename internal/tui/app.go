// Package tui is the terminal front end for taking timed assessments.
package tui

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/placeprep/internal/assessment"
	"github.com/abhisek/placeprep/internal/store"
	"github.com/abhisek/placeprep/internal/ui/layout"
)

// StartFunc allocates an attempt for testID and returns its controller.
type StartFunc func(ctx context.Context, testID string) (*assessment.Controller, error)

// Options configures the app.
type Options struct {
	// Tests are offered in the picker when no TestID is given.
	Tests []store.TestSummary

	// TestID starts that test immediately.
	TestID string

	Start StartFunc

	// Warnings are shown on the active screen as they arrive.
	Warnings <-chan string
}

// Model is the root Bubble Tea model. It owns the screen stack.
type Model struct {
	ctx      context.Context
	stack    []Screen
	warnings <-chan string
	width  int
	height int
}

// New builds the root model: the picker, or the session when a test id is
// given.
func New(ctx context.Context, opts Options) Model {
	var first Screen = newPicker(ctx, opts.Tests, opts.Start)
	if opts.TestID != "" {
		first = newStarting(ctx, opts.TestID, opts.Start)
	}
	return Model{ctx: ctx, stack: []Screen{first}, warnings: opts.Warnings}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.active().Init(), waitWarning(m.warnings))
}

func waitWarning(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		w, ok := <-ch
		if !ok {
			return nil
		}
		return warningMsg(w)
	}
}

func (m Model) active() Screen {
	return m.stack[len(m.stack)-1]
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case pushScreenMsg:
		m.stack = append(m.stack, msg.Screen)
		return m, msg.Screen.Init()

	case popScreenMsg:
		if len(m.stack) <= 1 {
			return m, tea.Quit
		}
		m.stack = m.stack[:len(m.stack)-1]
		return m, nil

	case warningMsg:
		updated, cmd := m.active().Update(msg)
		m.stack = append(m.stack[:len(m.stack)-1:len(m.stack)-1], updated)
		return m, tea.Batch(cmd, waitWarning(m.warnings))
	}

	updated, cmd := m.active().Update(msg)
	m.stack = append(m.stack[:len(m.stack)-1:len(m.stack)-1], updated)
	return m, cmd
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.active()
	header := layout.RenderHeader(active.Title(), active.Status(), m.width)
	hints := append(active.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := active.View(m.width, contentHeight)

	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
