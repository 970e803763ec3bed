package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/placeprep/internal/readiness"
)

var readinessCmd = &cobra.Command{
	Use:   "readiness",
	Short: "Show your placement readiness report",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := cmd.Context()

		user, err := currentUser(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := st.ActivityRepo().Snapshot(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("load activity: %w", err)
		}
		catalog, err := st.ActivityRepo().Catalog(ctx)
		if err != nil {
			return fmt.Errorf("load problem catalog: %w", err)
		}
		report := readiness.Aggregate(snap, catalog)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(report)
		return nil
	},
}

func printReport(r readiness.Report) {
	sep := strings.Repeat("─", 48)

	fmt.Printf("Readiness score: %d/100\n", r.Readiness)
	fmt.Println(sep)
	fmt.Printf("Problems solved:  %d\n", r.ProblemsSolved)
	fmt.Printf("Tests taken:      %d (avg %d%%)\n", r.TestsTaken, r.AvgTestScore)
	fmt.Printf("Speech sessions:  %d\n", r.SpeechSessions)

	fmt.Println()
	fmt.Println("Skill profile")
	fmt.Println(sep)
	for _, a := range r.SkillProfile {
		fmt.Printf("%-15s %3d  %s\n", a.Subject, a.Score, bar(a.Score, 25))
	}

	if len(r.DifficultyBreakdown) > 0 {
		fmt.Println()
		fmt.Println("Solved by difficulty")
		fmt.Println(sep)
		for _, d := range r.DifficultyBreakdown {
			fmt.Printf("%-8s %3d\n", d.Difficulty, d.Solved)
		}
	}

	if len(r.TopicPerformance) > 0 {
		fmt.Println()
		fmt.Println("Topics")
		fmt.Println(sep)
		for _, t := range r.TopicPerformance {
			fmt.Printf("%-20s %3d%%\n", truncate(t.Topic, 20), t.Score)
		}
	}

	if len(r.WeakAreas) > 0 {
		fmt.Println()
		fmt.Println("Focus next")
		fmt.Println(sep)
		for _, w := range r.WeakAreas {
			fmt.Printf("- %s (%d%%): %s\n", w.Topic, w.Score, w.Recommendation)
		}
	}
}

// bar draws score out of 100 as a width-character bar.
func bar(score, width int) string {
	filled := min(max(score*width/100, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func init() {
	readinessCmd.Flags().Bool("json", false, "Print the report as JSON")
}
