package questionbank

import (
	"context"
	"fmt"

	"github.com/abhisek/placeprep/ent/schema"
	"github.com/abhisek/placeprep/internal/store"
)

// ImportSummary counts what Import wrote.
type ImportSummary struct {
	Tests    int
	Problems int
}

// Import upserts every test and problem in b. Rows with matching ids are
// replaced.
func Import(ctx context.Context, b *Bank, tests store.TestRepo, activity store.ActivityRepo) (ImportSummary, error) {
	var sum ImportSummary

	for _, t := range b.Tests {
		err := tests.UpsertTest(ctx, store.Test{
			Definition:  t.Definition(),
			Description: t.Description,
			Difficulty:  t.Difficulty,
		})
		if err != nil {
			return sum, fmt.Errorf("import test %s: %w", t.ID, err)
		}
		sum.Tests++
	}

	for _, p := range b.Problems {
		cases := make([]schema.TestCase, len(p.TestCases))
		for i, tc := range p.TestCases {
			cases[i] = schema.TestCase{Input: tc.Input, Expected: tc.Expected}
		}
		err := activity.UpsertProblem(ctx, store.Problem{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Topic:       p.Topic,
			Difficulty:  p.Difficulty,
			TestCases:   cases,
		})
		if err != nil {
			return sum, fmt.Errorf("import problem %s: %w", p.ID, err)
		}
		sum.Problems++
	}

	return sum, nil
}
