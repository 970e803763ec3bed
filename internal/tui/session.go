package tui

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/placeprep/internal/assessment"
	"github.com/abhisek/placeprep/internal/ui/components"
	"github.com/abhisek/placeprep/internal/ui/layout"
)

// lowTime is when the countdown turns red.
const lowTime = 60

// sessionScreen drives one attempt through its controller and then shows
// the review.
type sessionScreen struct {
	ctx   context.Context
	ctrl  *assessment.Controller
	clock assessment.Clock

	options components.OptionList

	confirming bool
	confirm    components.Confirm

	jumping bool
	jump    components.NumberInput

	notice string

	// Set once submitted.
	sub         *assessment.Submission
	saving      bool
	persistErr  error
	reviewIndex int
}

func newSession(ctx context.Context, ctrl *assessment.Controller) *sessionScreen {
	s := &sessionScreen{ctx: ctx, ctrl: ctrl, clock: assessment.SystemClock{}}
	s.syncOptions()
	return s
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitSubmitted reports the controller's submission once it exists.
func waitSubmitted(ctrl *assessment.Controller) tea.Cmd {
	return func() tea.Msg {
		<-ctrl.Done()
		return submittedMsg{Submission: ctrl.Submission()}
	}
}

func waitPersist(sub *assessment.Submission) tea.Cmd {
	return func() tea.Msg {
		return persistDoneMsg{Err: sub.Wait(context.Background())}
	}
}

func retryPersist(ctx context.Context, sub *assessment.Submission) tea.Cmd {
	return func() tea.Msg {
		return persistDoneMsg{Err: sub.Retry(ctx)}
	}
}

// Init starts the countdown. The controller's own loop owns the deadline.
// The screen only redraws and waits for the submission.
func (s *sessionScreen) Init() tea.Cmd {
	go s.ctrl.Run(s.ctx, s.clock)
	return tea.Batch(tickCmd(), waitSubmitted(s.ctrl))
}

func (s *sessionScreen) Title() string {
	return s.ctrl.Definition().Title
}

func (s *sessionScreen) Status() string {
	if s.sub != nil {
		return fmt.Sprintf("Score %d%%", s.sub.Result.Percentage)
	}
	return renderCountdown(s.ctrl.Snapshot().RemainingSeconds)
}

func (s *sessionScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.sub != nil:
		hints := []layout.KeyHint{
			{Key: "↑↓", Description: "Review"},
			{Key: "Esc", Description: "Done"},
		}
		if s.persistErr != nil && !s.saving {
			hints = append(hints, layout.KeyHint{Key: "r", Description: "Retry save"})
		}
		return hints
	case s.confirming:
		return []layout.KeyHint{
			{Key: "y", Description: "Submit"},
			{Key: "n", Description: "Keep going"},
		}
	case s.jumping:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Go"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Option"},
		{Key: "Enter/1-4", Description: "Answer"},
		{Key: "←→", Description: "Question"},
		{Key: "g", Description: "Go to"},
		{Key: "s", Description: "Submit"},
	}
	return hints
}

func (s *sessionScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if s.sub != nil {
			return s, nil
		}
		return s, tickCmd()

	case submittedMsg:
		if s.sub != nil || msg.Submission == nil {
			return s, nil
		}
		if msg.Submission.Trigger == assessment.TriggerTimer {
			s.notice = "Time is up. Your answers were submitted."
		}
		return s, s.submitted(msg.Submission)

	case warningMsg:
		if s.notice != "" {
			s.notice += " "
		}
		s.notice += string(msg)
		return s, nil

	case persistDoneMsg:
		s.saving = false
		s.persistErr = msg.Err
		return s, nil

	case tea.KeyPressMsg:
		if s.sub != nil {
			return s.handleReviewKey(msg)
		}
		if s.confirming {
			return s.handleConfirmKey(msg)
		}
		if s.jumping {
			return s.handleJumpKey(msg)
		}
		return s.handleKey(msg)
	}

	if s.jumping {
		var cmd tea.Cmd
		s.jump, cmd = s.jump.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *sessionScreen) handleKey(msg tea.KeyPressMsg) (Screen, tea.Cmd) {
	s.notice = ""
	key := msg.String()

	switch key {
	case "up", "k", "down", "j":
		s.options, _ = s.options.Update(msg)
	case "enter":
		s.selectOption(s.options.Cursor)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		s.selectOption(int(key[0] - '1'))
	case "x", "backspace", "delete":
		s.ctrl.ClearAnswer()
		s.syncOptions()
	case "left", "h":
		s.ctrl.Prev()
		s.syncOptions()
	case "right", "l":
		s.ctrl.Next()
		s.syncOptions()
	case "g":
		s.jumping = true
		s.jump = components.NewNumberInput(fmt.Sprintf("Go to question (1-%d): ", len(s.ctrl.Definition().Questions)), 3)
		return s, s.jump.Init()
	case "s":
		snap := s.ctrl.Snapshot()
		s.confirming = true
		s.confirm = components.NewConfirm(
			fmt.Sprintf("Submit now? %d of %d questions answered.", snap.AnsweredCount(), len(snap.Answers)),
			"Submit", "Keep going")
	}
	return s, nil
}

func (s *sessionScreen) selectOption(i int) {
	if err := s.ctrl.SelectAnswer(i); err != nil {
		s.notice = fmt.Sprintf("No option %s on this question.", components.OptionLabel(i))
		return
	}
	s.syncOptions()
}

func (s *sessionScreen) handleConfirmKey(msg tea.KeyPressMsg) (Screen, tea.Cmd) {
	var res components.ConfirmResult
	s.confirm, res = s.confirm.Update(msg)
	switch res {
	case components.ConfirmAccepted:
		s.confirming = false
		return s, s.submitted(s.ctrl.Submit(s.ctx))
	case components.ConfirmRejected:
		s.confirming = false
	}
	return s, nil
}

func (s *sessionScreen) handleJumpKey(msg tea.KeyPressMsg) (Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.jumping = false
		return s, nil
	case "enter":
		s.jumping = false
		n, err := s.jump.Value()
		if err != nil {
			s.notice = "Enter a question number."
			return s, nil
		}
		if err := s.ctrl.Navigate(n - 1); err != nil {
			s.notice = fmt.Sprintf("There is no question %d.", n)
			return s, nil
		}
		s.syncOptions()
		return s, nil
	}
	var cmd tea.Cmd
	s.jump, cmd = s.jump.Update(msg)
	return s, cmd
}

func (s *sessionScreen) handleReviewKey(msg tea.KeyPressMsg) (Screen, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if s.reviewIndex > 0 {
			s.reviewIndex--
		}
	case "down", "j":
		if s.reviewIndex < len(s.sub.Result.Review)-1 {
			s.reviewIndex++
		}
	case "r":
		if s.persistErr != nil && !s.saving {
			s.saving = true
			return s, retryPersist(s.ctx, s.sub)
		}
	case "esc", "q", "enter":
		return s, popScreen
	}
	return s, nil
}

// submitted switches to the review and waits for the write.
func (s *sessionScreen) submitted(sub *assessment.Submission) tea.Cmd {
	s.sub = sub
	s.saving = true
	s.confirming = false
	s.jumping = false
	s.reviewIndex = 0
	return waitPersist(sub)
}

// syncOptions points the option list at the current question.
func (s *sessionScreen) syncOptions() {
	snap := s.ctrl.Snapshot()
	q := s.ctrl.Definition().Questions[snap.CurrentIndex]
	s.options = components.NewOptionList(q.Options, snap.Answers[snap.CurrentIndex])
}
