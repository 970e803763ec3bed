package components

import (
	"strings"

	"github.com/abhisek/placeprep/internal/ui/theme"
)

// QuestionDots renders one dot per question: filled when answered, with
// the current question highlighted.
func QuestionDots(answered []bool, current int) string {
	parts := make([]string, len(answered))
	for i, a := range answered {
		dot := "○"
		if a {
			dot = "●"
		}
		switch {
		case i == current:
			parts[i] = theme.DotCurrent.Render("[" + dot + "]")
		case a:
			parts[i] = theme.DotAnswered.Render(dot)
		default:
			parts[i] = theme.DotOpen.Render(dot)
		}
	}
	return strings.Join(parts, " ")
}
