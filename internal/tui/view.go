package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/placeprep/internal/assessment"
	"github.com/abhisek/placeprep/internal/ui/components"
	"github.com/abhisek/placeprep/internal/ui/layout"
	"github.com/abhisek/placeprep/internal/ui/theme"
)

// renderCountdown formats seconds as m:ss, red in the final minute.
func renderCountdown(seconds int) string {
	text := fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
	if seconds < lowTime {
		return theme.TimerLow.Render(text)
	}
	return theme.Timer.Render(text)
}

func (s *sessionScreen) View(width, height int) string {
	if s.sub != nil {
		return s.renderReview(width, height)
	}
	if s.confirming {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, s.confirm.View())
	}
	return s.renderQuestion(width)
}

func (s *sessionScreen) renderQuestion(width int) string {
	snap := s.ctrl.Snapshot()
	def := s.ctrl.Definition()
	q := def.Questions[snap.CurrentIndex]
	inner := max(width-4, 10)

	var b strings.Builder

	info := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render(fmt.Sprintf("  Question %d of %d", snap.CurrentIndex+1, len(def.Questions)))
	timer := "Time left " + renderCountdown(snap.RemainingSeconds)
	pad := width - lipgloss.Width(info) - lipgloss.Width(timer) - 2
	if pad > 0 {
		info += strings.Repeat(" ", pad) + timer
	}
	b.WriteString(info)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render("  " + strings.Repeat("─", inner)))
	b.WriteString("\n\n")

	prompt := lipgloss.NewStyle().Width(inner).Foreground(theme.Text).Bold(true).Render(q.Prompt)
	b.WriteString(indent(prompt))
	b.WriteString("\n\n")
	b.WriteString(s.options.View())
	b.WriteString("\n")

	answered := make([]bool, len(snap.Answers))
	for i, a := range snap.Answers {
		answered[i] = a != nil
	}
	barWidth := inner
	if !layout.IsCompactWidth(width) {
		barWidth = inner / 2
	}
	b.WriteString("  " + components.NewProgressBar("Answered", snap.AnsweredCount(), len(snap.Answers), barWidth).View())
	b.WriteString("\n\n")
	b.WriteString(indent(lipgloss.NewStyle().Width(inner).Render(components.QuestionDots(answered, snap.CurrentIndex))))
	b.WriteString("\n")

	if s.jumping {
		b.WriteString("\n  " + s.jump.View() + "\n")
	}
	if s.notice != "" {
		b.WriteString("\n" + theme.Warning.Render("  "+s.notice) + "\n")
	}
	return b.String()
}

func (s *sessionScreen) renderReview(width, height int) string {
	res := s.sub.Result
	def := s.ctrl.Definition()
	inner := max(width-4, 10)

	var b strings.Builder
	b.WriteString("\n")
	if s.notice != "" {
		b.WriteString(theme.Warning.Render("  "+s.notice) + "\n\n")
	}

	score := theme.Title.Render(fmt.Sprintf("  Score: %d%%", res.Percentage))
	counts := fmt.Sprintf("   %s  %s  %s",
		theme.Correct.Render(fmt.Sprintf("%d correct", res.Correct)),
		theme.Incorrect.Render(fmt.Sprintf("%d wrong", res.Incorrect)),
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("%d skipped", res.Skipped)))
	b.WriteString(score + counts + "\n")
	b.WriteString("  " + s.renderSaveStatus() + "\n\n")

	// Compact list with the selected entry expanded below it.
	listHeight := max(height-lipgloss.Height(b.String())-len(def.Questions[s.reviewIndex].Options)-6, 3)
	start := 0
	if s.reviewIndex >= listHeight {
		start = s.reviewIndex - listHeight + 1
	}
	end := min(start+listHeight, len(res.Review))
	for i := start; i < end; i++ {
		b.WriteString(renderReviewLine(res.Review[i], i == s.reviewIndex, inner))
		b.WriteString("\n")
	}

	e := res.Review[s.reviewIndex]
	q := def.Questions[s.reviewIndex]
	b.WriteString("\n")
	b.WriteString(indent(lipgloss.NewStyle().Width(inner).Bold(true).Render(fmt.Sprintf("Q%d. %s", e.Index+1, q.Prompt))))
	b.WriteString("\n")
	b.WriteString(components.ReviewOptions(q.Options, q.CorrectIndex, e.ChosenIndex))
	return b.String()
}

func renderReviewLine(e assessment.ReviewEntry, selected bool, width int) string {
	mark := theme.Correct.Render("✓")
	switch {
	case e.Skipped():
		mark = lipgloss.NewStyle().Foreground(theme.TextDim).Render("–")
	case !e.Correct:
		mark = theme.Incorrect.Render("✗")
	}
	cursor := "  "
	if selected {
		cursor = "> "
	}
	detail := fmt.Sprintf("your answer: %s · correct: %s", e.ChosenOption, e.CorrectOption)
	line := fmt.Sprintf("Q%-3d %s", e.Index+1, truncate(e.Prompt, max(width-lipgloss.Width(detail)-14, 12)))
	style := theme.Unselected
	if selected {
		style = theme.Selected
	}
	return cursor + mark + " " + style.Render(line) + "  " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(detail)
}

func (s *sessionScreen) renderSaveStatus() string {
	switch {
	case s.saving:
		return theme.Hint.Render("Saving your result...")
	case s.persistErr != nil:
		return theme.Incorrect.Render("Your result may not be saved: "+s.persistErr.Error()) +
			theme.Hint.Render("  (press r to retry)")
	default:
		return theme.Correct.Render("Result saved.")
	}
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
