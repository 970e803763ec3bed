// Package readiness derives a placement-readiness report from a user's
// coding, test, and speech activity.
package readiness

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	// GeneralTopic labels problems with no topic.
	GeneralTopic = "General"

	// GeneralTestType labels attempts whose test has no type.
	GeneralTestType = "general"

	// WeakThreshold is the topic score below which a topic is weak.
	WeakThreshold = 70

	// MaxWeakAreas caps the weak-area list.
	MaxWeakAreas = 3
)

// Test types that feed the skill profile.
const (
	TestTypeAptitude  = "aptitude"
	TestTypeVerbal    = "verbal"
	TestTypeTechnical = "technical"
)

// Difficulties reported in the breakdown, in display order.
var Difficulties = []string{"easy", "medium", "hard"}

var (
	weightCoding        = decimal.RequireFromString("0.40")
	weightTests         = decimal.RequireFromString("0.35")
	weightCommunication = decimal.RequireFromString("0.25")
)

// Aggregate computes the readiness report. It does not modify its inputs.
func Aggregate(snap Snapshot, catalog Catalog) Report {
	solved := acceptedProblems(snap.Submissions)

	coding := 0
	if n := len(catalog.Problems); n > 0 {
		coding = ratio(countSolved(catalog.Problems, solved), n)
	}

	byType := make(map[string][]int)
	all := make([]int, 0, len(snap.Attempts))
	for _, a := range snap.Attempts {
		t := a.TestType
		if t == "" {
			t = GeneralTestType
		}
		byType[t] = append(byType[t], a.Score)
		all = append(all, a.Score)
	}
	avgTest := mean(all)
	communication := speechAverage(snap.SpeechSessions)

	topics := TopicPerformance(catalog, solved)

	return Report{
		ProblemsSolved:      len(solved),
		TestsTaken:          len(snap.Attempts),
		SpeechSessions:      len(snap.SpeechSessions),
		AvgTestScore:        avgTest,
		DifficultyBreakdown: difficultyBreakdown(catalog, solved),
		TopicPerformance:    topics,
		SkillProfile: []SkillAxis{
			{Subject: AxisCoding, Score: coding},
			{Subject: AxisAptitude, Score: mean(byType[TestTypeAptitude])},
			{Subject: AxisVerbal, Score: mean(byType[TestTypeVerbal])},
			{Subject: AxisCommunication, Score: communication},
			{Subject: AxisTechnical, Score: mean(byType[TestTypeTechnical])},
		},
		WeakAreas: WeakAreas(topics),
		Readiness: Composite(coding, avgTest, communication),
	}
}

// Composite blends the three inputs as
// round(0.40*coding + 0.35*avgTest + 0.25*communication), halves up.
func Composite(coding, avgTest, communication int) int {
	sum := decimal.NewFromInt(int64(coding)).Mul(weightCoding).
		Add(decimal.NewFromInt(int64(avgTest)).Mul(weightTests)).
		Add(decimal.NewFromInt(int64(communication)).Mul(weightCommunication))
	return int(sum.Round(0).IntPart())
}

// TopicPerformance groups the catalog by topic and scores each group by
// its share of solved problems. The result is sorted by score descending;
// equal scores keep the order in which topics first appear in the catalog.
func TopicPerformance(catalog Catalog, solved map[string]bool) []TopicScore {
	type group struct {
		total, solved int
	}
	var order []string
	groups := make(map[string]*group)
	for _, p := range catalog.Problems {
		topic := p.Topic
		if topic == "" {
			topic = GeneralTopic
		}
		g, ok := groups[topic]
		if !ok {
			g = &group{}
			groups[topic] = g
			order = append(order, topic)
		}
		g.total++
		if solved[p.ID] {
			g.solved++
		}
	}

	out := make([]TopicScore, 0, len(order))
	for _, topic := range order {
		g := groups[topic]
		out = append(out, TopicScore{Topic: topic, Score: ratio(g.solved, g.total)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// WeakAreas selects the lowest-scoring topics under WeakThreshold,
// ascending, at most MaxWeakAreas.
func WeakAreas(topics []TopicScore) []WeakArea {
	var weak []TopicScore
	for _, t := range topics {
		if t.Score < WeakThreshold {
			weak = append(weak, t)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].Score < weak[j].Score })
	if len(weak) > MaxWeakAreas {
		weak = weak[:MaxWeakAreas]
	}

	out := make([]WeakArea, 0, len(weak))
	for _, t := range weak {
		out = append(out, WeakArea{
			Topic:          t.Topic,
			Score:          t.Score,
			Recommendation: Recommendation(t.Topic),
		})
	}
	return out
}

// Recommendation returns the practice suggestion for a weak topic.
func Recommendation(topic string) string {
	return fmt.Sprintf("Practice more %s problems to improve your score.", topic)
}

func acceptedProblems(subs []Submission) map[string]bool {
	solved := make(map[string]bool)
	for _, s := range subs {
		if s.Status == StatusAccepted {
			solved[s.ProblemID] = true
		}
	}
	return solved
}

func countSolved(problems []Problem, solved map[string]bool) int {
	seen := make(map[string]bool, len(problems))
	n := 0
	for _, p := range problems {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if solved[p.ID] {
			n++
		}
	}
	return n
}

func difficultyBreakdown(catalog Catalog, solved map[string]bool) []DifficultyCount {
	counts := make(map[string]int, len(Difficulties))
	seen := make(map[string]bool)
	for _, p := range catalog.Problems {
		if !solved[p.ID] || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		counts[p.Difficulty]++
	}
	out := make([]DifficultyCount, len(Difficulties))
	for i, d := range Difficulties {
		out[i] = DifficultyCount{Difficulty: d, Solved: counts[d]}
	}
	return out
}

func speechAverage(sessions []SpeechSession) int {
	if len(sessions) == 0 {
		return 0
	}
	total := 0
	for _, s := range sessions {
		total += deref(s.Fluency) + deref(s.Grammar) + deref(s.Confidence)
	}
	return roundDiv(int64(total), int64(3*len(sessions)))
}

func mean(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	return roundDiv(int64(total), int64(len(scores)))
}

// ratio returns round(100*num/den), or 0 for an empty denominator.
func ratio(num, den int) int {
	if den <= 0 {
		return 0
	}
	return roundDiv(int64(100*num), int64(den))
}

func roundDiv(num, den int64) int {
	return int(decimal.NewFromInt(num).Div(decimal.NewFromInt(den)).Round(0).IntPart())
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
