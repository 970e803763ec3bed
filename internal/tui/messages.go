package tui

import (
	"time"

	"github.com/abhisek/placeprep/internal/assessment"
)

// tickMsg redraws the countdown every second while an attempt is in
// progress.
type tickMsg time.Time

// submittedMsg is sent once the controller has a submission, whoever made it.
type submittedMsg struct {
	Submission *assessment.Submission
}

// warningMsg carries a background failure worth showing to the user.
type warningMsg string

// startedMsg carries the controller for a freshly allocated attempt.
type startedMsg struct {
	Controller *assessment.Controller
	Err        error
}

// persistDoneMsg reports the outcome of the final write or a retry.
type persistDoneMsg struct {
	Err error
}
