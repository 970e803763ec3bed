// Package speech scores a spoken interview answer with an AI provider.
package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/placeprep/internal/llm"
)

// Purpose is the event-log label for analysis requests.
const Purpose = "speech-analysis"

// FallbackFeedback is returned when the provider reply cannot be used.
const FallbackFeedback = "Unable to analyze the response. Please try again with a longer answer."

const systemPrompt = `You are an interview coach analyzing a candidate's spoken response. Evaluate the transcript and return a JSON object with these fields:
- fluency_score (0-100): How smooth and natural the speech flows
- grammar_score (0-100): Grammatical correctness
- confidence_score (0-100): How confident the response sounds
- filler_count (integer): Count of filler words like "um", "uh", "like", "you know"
- wpm (integer): Estimated words per minute (assume 60 second response if not specified)
- feedback (string): 2-3 sentences of constructive feedback

Return ONLY valid JSON, no markdown.`

// Analysis is the fixed-shape score object for one answer.
type Analysis struct {
	FluencyScore    int    `json:"fluency_score"`
	GrammarScore    int    `json:"grammar_score"`
	ConfidenceScore int    `json:"confidence_score"`
	FillerCount     int    `json:"filler_count"`
	WPM             int    `json:"wpm"`
	Feedback        string `json:"feedback"`

	// Fallback is set when the scores are the defaults rather than the
	// provider's.
	Fallback bool `json:"-"`
}

// DefaultAnalysis is the neutral payload used when analysis fails.
func DefaultAnalysis() Analysis {
	return Analysis{
		FluencyScore:    50,
		GrammarScore:    50,
		ConfidenceScore: 50,
		FillerCount:     0,
		WPM:             120,
		Feedback:        FallbackFeedback,
		Fallback:        true,
	}
}

// Schema is the response schema sent with each request.
var Schema = &llm.Schema{
	Name:        "speech-analysis",
	Description: "Scores for a spoken interview answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fluency_score":    scoreProp("How smooth and natural the speech flows"),
			"grammar_score":    scoreProp("Grammatical correctness"),
			"confidence_score": scoreProp("How confident the response sounds"),
			"filler_count": map[string]any{
				"type":        "integer",
				"description": "Count of filler words",
			},
			"wpm": map[string]any{
				"type":        "integer",
				"description": "Estimated words per minute",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "2-3 sentences of constructive feedback",
			},
		},
		"required":             []any{"fluency_score", "grammar_score", "confidence_score", "filler_count", "wpm", "feedback"},
		"additionalProperties": false,
	},
}

func scoreProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

// Analyzer turns transcripts into Analyses.
type Analyzer struct {
	provider llm.Provider

	// OnFallback, if set, receives the error that caused a fallback.
	OnFallback func(err error)
}

// NewAnalyzer returns an Analyzer backed by provider.
func NewAnalyzer(provider llm.Provider) *Analyzer {
	return &Analyzer{provider: provider}
}

// Analyze scores transcript as an answer to question. It never fails: a
// provider error or unusable reply yields DefaultAnalysis.
func (a *Analyzer) Analyze(ctx context.Context, transcript, question string) Analysis {
	resp, err := a.provider.Generate(llm.WithPurpose(ctx, Purpose), llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: UserPrompt(transcript, question)}},
		Schema:      Schema,
		MaxTokens:   512,
		Temperature: 0.3,
	})
	if err != nil {
		return a.fallback(err)
	}

	out, err := Parse(resp.Content)
	if err != nil {
		return a.fallback(err)
	}
	return out
}

func (a *Analyzer) fallback(err error) Analysis {
	if a.OnFallback != nil {
		a.OnFallback(err)
	}
	return DefaultAnalysis()
}

// UserPrompt formats the question and transcript for the model.
func UserPrompt(transcript, question string) string {
	return fmt.Sprintf("Interview Question: \"%s\"\n\nCandidate's Response:\n\"%s\"", question, transcript)
}

// Parse decodes a provider reply, stripping markdown fences and clamping
// scores to [0, 100] and counts to be non-negative.
func Parse(raw []byte) (Analysis, error) {
	text := llm.StripCodeFences(string(raw))
	if text == "" {
		return Analysis{}, fmt.Errorf("empty analysis")
	}

	var a Analysis
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&a); err != nil {
		return Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}

	a.FluencyScore = clamp(a.FluencyScore, 0, 100)
	a.GrammarScore = clamp(a.GrammarScore, 0, 100)
	a.ConfidenceScore = clamp(a.ConfidenceScore, 0, 100)
	a.FillerCount = max(a.FillerCount, 0)
	a.WPM = max(a.WPM, 0)
	return a, nil
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
