// Package questionbank loads assessment tests and coding problems from
// YAML or JSON bank files.
//
// A bank is checked in two stages. The raw document is validated against
// the embedded JSON Schema, then decoded into typed items (MCQ, TrueFalse)
// and checked for the rules a schema cannot express: answer ranges,
// positive time limits, unique ids, and the format version.
package questionbank

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/placeprep/internal/assessment"
)

// SupportedMajor is the bank format major version this build reads.
const SupportedMajor = "v1"

// Item kinds.
const (
	KindMCQ       = "mcq"
	KindTrueFalse = "true_false"
)

// Bank is a decoded question bank.
type Bank struct {
	Version  string    `yaml:"version" json:"version"`
	Tests    []Test    `yaml:"tests" json:"tests"`
	Problems []Problem `yaml:"problems" json:"problems"`
}

// Test is one timed assessment in a bank.
type Test struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Type        string `yaml:"type" json:"type"`
	Difficulty  string `yaml:"difficulty" json:"difficulty"`
	TimeLimit   int    `yaml:"time_limit" json:"time_limit"`
	Items       Items  `yaml:"items" json:"items"`
}

// Problem is a coding practice problem.
type Problem struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	Topic       string     `yaml:"topic" json:"topic"`
	Difficulty  string     `yaml:"difficulty" json:"difficulty"`
	TestCases   []TestCase `yaml:"test_cases" json:"test_cases"`
}

// TestCase is a problem's sample input and expected output.
type TestCase struct {
	Input    string `yaml:"input" json:"input"`
	Expected string `yaml:"expected" json:"expected"`
}

// Item is one question variant. The set of implementations is closed.
type Item interface {
	Kind() string
	Question() assessment.Question
	check(path string) []ValidationError
}

// MCQ is a multiple-choice item with a zero-based answer index.
type MCQ struct {
	Prompt  string   `yaml:"prompt" json:"prompt"`
	Options []string `yaml:"options" json:"options"`
	Answer  int      `yaml:"answer" json:"answer"`
}

func (MCQ) Kind() string { return KindMCQ }

func (m MCQ) Question() assessment.Question {
	return assessment.Question{
		Prompt:       m.Prompt,
		Options:      append([]string(nil), m.Options...),
		CorrectIndex: m.Answer,
	}
}

func (m MCQ) check(path string) []ValidationError {
	var errs []ValidationError
	if len(m.Options) < 2 {
		errs = append(errs, ValidationError{Path: path + "/options", Msg: fmt.Sprintf("need at least 2 options, got %d", len(m.Options))})
	}
	if m.Answer < 0 || m.Answer >= len(m.Options) {
		errs = append(errs, ValidationError{Path: path + "/answer", Msg: fmt.Sprintf("answer %d outside %d options", m.Answer, len(m.Options))})
	}
	return errs
}

// TrueFalse is a two-option item presented as "True" / "False".
type TrueFalse struct {
	Prompt string `yaml:"prompt" json:"prompt"`
	Answer bool   `yaml:"answer" json:"answer"`
}

func (TrueFalse) Kind() string { return KindTrueFalse }

func (t TrueFalse) Question() assessment.Question {
	q := assessment.Question{Prompt: t.Prompt, Options: []string{"True", "False"}, CorrectIndex: 1}
	if t.Answer {
		q.CorrectIndex = 0
	}
	return q
}

func (TrueFalse) check(string) []ValidationError { return nil }

// Items decodes a list of tagged items.
type Items []Item

type kindTag struct {
	Kind string `yaml:"kind" json:"kind"`
}

func (it *Items) UnmarshalYAML(node *yaml.Node) error {
	var raw []yaml.Node
	if err := node.Decode(&raw); err != nil {
		return err
	}
	out := make(Items, 0, len(raw))
	for i := range raw {
		var tag kindTag
		if err := raw[i].Decode(&tag); err != nil {
			return err
		}
		item, err := newItem(tag.Kind)
		if err != nil {
			return fmt.Errorf("line %d: %w", raw[i].Line, err)
		}
		if err := raw[i].Decode(item); err != nil {
			return err
		}
		out = append(out, deref(item))
	}
	*it = out
	return nil
}

func (it *Items) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Items, 0, len(raw))
	for i, r := range raw {
		var tag kindTag
		if err := json.Unmarshal(r, &tag); err != nil {
			return err
		}
		item, err := newItem(tag.Kind)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if err := json.Unmarshal(r, item); err != nil {
			return err
		}
		out = append(out, deref(item))
	}
	*it = out
	return nil
}

func newItem(kind string) (any, error) {
	switch kind {
	case KindMCQ:
		return &MCQ{}, nil
	case KindTrueFalse:
		return &TrueFalse{}, nil
	}
	return nil, fmt.Errorf("unknown item kind %q", kind)
}

func deref(v any) Item {
	switch p := v.(type) {
	case *MCQ:
		return *p
	case *TrueFalse:
		return *p
	}
	panic(fmt.Sprintf("questionbank: unexpected item %T", v))
}

// Definition converts the test into an assessment definition.
func (t Test) Definition() assessment.TestDefinition {
	def := assessment.TestDefinition{
		ID:               t.ID,
		Title:            t.Title,
		Type:             t.Type,
		TimeLimitMinutes: t.TimeLimit,
		Questions:        make([]assessment.Question, len(t.Items)),
	}
	for i, item := range t.Items {
		def.Questions[i] = item.Question()
	}
	return def
}

// Definitions returns every test as an assessment definition, in file
// order.
func (b *Bank) Definitions() []assessment.TestDefinition {
	defs := make([]assessment.TestDefinition, len(b.Tests))
	for i, t := range b.Tests {
		defs[i] = t.Definition()
	}
	return defs
}
