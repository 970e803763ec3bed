package llm

import "context"

// PurposeUntagged labels requests made without WithPurpose.
const PurposeUntagged = "unknown"

type purposeKey struct{}

// WithPurpose tags ctx with what the request is for, e.g. "speech-analysis".
// The tag lands in the LLM request event so `placeprep llm list --purpose`
// can filter on it. An empty purpose leaves ctx as it is.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	if purpose == "" {
		return ctx
	}
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the tag set by WithPurpose, or PurposeUntagged.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return PurposeUntagged
}
