package readiness

// Submission is a coding submission as read from the store.
type Submission struct {
	ProblemID string
	Status    string
}

// StatusAccepted marks a submission that solved its problem.
const StatusAccepted = "accepted"

// Attempt is a completed test attempt joined with its test type.
type Attempt struct {
	TestID   string
	Score    int
	TestType string
}

// SpeechSession holds the AI scores for one recorded answer. A nil score
// counts as 0.
type SpeechSession struct {
	Fluency    *int
	Grammar    *int
	Confidence *int
}

// Problem is a catalog entry.
type Problem struct {
	ID         string
	Topic      string
	Difficulty string
}

// Snapshot is one user's activity, fetched fresh for each call.
type Snapshot struct {
	Submissions    []Submission
	Attempts       []Attempt
	SpeechSessions []SpeechSession
}

// Catalog is the full problem catalog. Order matters only for breaking
// ties between topics with equal scores.
type Catalog struct {
	Problems []Problem
}

// TopicScore is the solve rate for one topic.
type TopicScore struct {
	Topic string `json:"topic"`
	Score int    `json:"score"`
}

// Axis names of the skill profile.
const (
	AxisCoding        = "Coding"
	AxisAptitude      = "Aptitude"
	AxisVerbal        = "Verbal"
	AxisCommunication = "Communication"
	AxisTechnical     = "Technical MCQ"
)

// SkillAxis is one point on the skill profile.
type SkillAxis struct {
	Subject string `json:"subject"`
	Score   int    `json:"score"`
}

// WeakArea is a low-scoring topic with a practice suggestion.
type WeakArea struct {
	Topic          string `json:"topic"`
	Score          int    `json:"score"`
	Recommendation string `json:"recommendation"`
}

// DifficultyCount is the number of distinct solved problems at one
// difficulty.
type DifficultyCount struct {
	Difficulty string `json:"difficulty"`
	Solved     int    `json:"solved"`
}

// Report is the output of Aggregate.
type Report struct {
	ProblemsSolved      int               `json:"problems_solved"`
	TestsTaken          int               `json:"tests_taken"`
	SpeechSessions      int               `json:"speech_sessions"`
	AvgTestScore        int               `json:"avg_test_score"`
	DifficultyBreakdown []DifficultyCount `json:"difficulty_breakdown"`
	TopicPerformance    []TopicScore      `json:"topic_performance"`
	SkillProfile        []SkillAxis       `json:"skill_profile"`
	WeakAreas           []WeakArea        `json:"weak_areas"`
	Readiness           int               `json:"readiness"`
}

// Axis returns the score for the named skill axis, or 0.
func (r Report) Axis(subject string) int {
	for _, a := range r.SkillProfile {
		if a.Subject == subject {
			return a.Score
		}
	}
	return 0
}
