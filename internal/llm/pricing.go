package llm

import "github.com/shopspring/decimal"

// ModelCost holds per-million-token pricing for a model in USD.
type ModelCost struct {
	InputPerMTok  decimal.Decimal
	OutputPerMTok decimal.Decimal
}

var million = decimal.NewFromInt(1_000_000)

// Cost returns the USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) decimal.Decimal {
	in := c.InputPerMTok.Mul(decimal.NewFromInt(int64(inputTokens)))
	out := c.OutputPerMTok.Mul(decimal.NewFromInt(int64(outputTokens)))
	return in.Add(out).Div(million)
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
// OpenRouter IDs ("google/gemini-3-flash-preview") match on the part
// after the vendor prefix.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	for i := len(modelID) - 1; i >= 0; i-- {
		if modelID[i] == '/' {
			if c, ok := modelCosts[modelID[i+1:]]; ok {
				return &c
			}
			break
		}
	}
	return nil
}

func cost(in, out string) ModelCost {
	return ModelCost{
		InputPerMTok:  decimal.RequireFromString(in),
		OutputPerMTok: decimal.RequireFromString(out),
	}
}

// modelCosts covers the models reachable through the friendly names and
// defaults in Config. Prices from models.dev.
var modelCosts = map[string]ModelCost{
	// Anthropic
	"claude-haiku-4-5-20251001": cost("1", "5"),
	"claude-haiku-4-5":          cost("1", "5"),
	"claude-sonnet-4-20250514":  cost("3", "15"),
	"claude-sonnet-4-5":         cost("3", "15"),

	// OpenAI
	"gpt-4o":       cost("2.5", "10"),
	"gpt-4o-mini":  cost("0.15", "0.6"),
	"gpt-4.1-mini": cost("0.4", "1.6"),
	"gpt-5-mini":   cost("0.25", "2"),

	// Google (Gemini)
	"gemini-2.0-flash":       cost("0.1", "0.4"),
	"gemini-2.5-flash":       cost("0.3", "2.5"),
	"gemini-2.5-pro":         cost("1.25", "10"),
	"gemini-3-flash-preview": cost("0.5", "3"),
}
