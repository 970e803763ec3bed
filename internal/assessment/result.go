package assessment

// SkippedLabel is shown in review entries for unanswered questions.
const SkippedLabel = "skipped"

// ReviewEntry describes the outcome of one question after submission.
type ReviewEntry struct {
	Index         int
	Prompt        string
	ChosenIndex   Answer
	ChosenOption  string // option text, or SkippedLabel
	CorrectOption string
	Correct       bool
}

// Skipped reports whether the question was left unanswered.
func (e ReviewEntry) Skipped() bool {
	return e.ChosenIndex == nil
}

// ScoredResult is the immutable outcome of a submitted attempt.
// Correct + Incorrect + Skipped always equals the question count.
type ScoredResult struct {
	Percentage int
	Correct    int
	Incorrect  int
	Skipped    int
	Review     []ReviewEntry
}

// Total returns the number of questions scored.
func (r *ScoredResult) Total() int {
	return r.Correct + r.Incorrect + r.Skipped
}

// Score compares answers against the questions' correct indices. An
// unanswered slot counts as wrong for the percentage and as skipped for
// reporting. Answers beyond len(questions) are ignored.
func Score(questions []Question, answers []Answer) *ScoredResult {
	res := &ScoredResult{
		Review: make([]ReviewEntry, len(questions)),
	}

	for i, q := range questions {
		entry := ReviewEntry{
			Index:         i,
			Prompt:        q.Prompt,
			CorrectOption: optionText(q, q.CorrectIndex),
		}

		var a Answer
		if i < len(answers) {
			a = answers[i]
		}

		switch {
		case a == nil:
			entry.ChosenOption = SkippedLabel
			res.Skipped++
		case *a == q.CorrectIndex:
			entry.ChosenIndex = copyAnswer(a)
			entry.ChosenOption = optionText(q, *a)
			entry.Correct = true
			res.Correct++
		default:
			entry.ChosenIndex = copyAnswer(a)
			entry.ChosenOption = optionText(q, *a)
			res.Incorrect++
		}
		res.Review[i] = entry
	}

	res.Percentage = Percentage(res.Correct, len(questions))
	return res
}

// Percentage returns round(100 * correct / total) with halves rounded up,
// or 0 when total is 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

func optionText(q Question, idx int) string {
	if idx < 0 || idx >= len(q.Options) {
		return ""
	}
	return q.Options[idx]
}

func copyAnswer(a Answer) Answer {
	if a == nil {
		return nil
	}
	v := *a
	return &v
}

func copyAnswers(src []Answer) []Answer {
	out := make([]Answer, len(src))
	for i, a := range src {
		out[i] = copyAnswer(a)
	}
	return out
}
