package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/placeprep/internal/store"
)

var submissionCmd = &cobra.Command{
	Use:   "submission",
	Short: "Record coding submissions",
}

var submissionAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a coding submission for a problem",
	RunE: func(cmd *cobra.Command, args []string) error {
		problem, _ := cmd.Flags().GetString("problem")
		status, _ := cmd.Flags().GetString("status")
		language, _ := cmd.Flags().GetString("language")
		codeFile, _ := cmd.Flags().GetString("code")
		score, _ := cmd.Flags().GetInt("score")

		switch status {
		case "accepted", "rejected", "pending":
		default:
			return fmt.Errorf("unknown status %q: use accepted, rejected or pending", status)
		}

		var code string
		if codeFile != "" {
			data, err := os.ReadFile(codeFile)
			if err != nil {
				return fmt.Errorf("read code: %w", err)
			}
			code = string(data)
		}

		var scorePtr *int
		if cmd.Flags().Changed("score") {
			if score < 0 || score > 100 {
				return fmt.Errorf("score must be between 0 and 100, got %d", score)
			}
			scorePtr = &score
		}

		user, err := currentUser(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		id, err := st.ActivityRepo().RecordSubmission(cmd.Context(), store.Submission{
			UserID:    user.ID,
			ProblemID: problem,
			Code:      code,
			Language:  language,
			Status:    status,
			Score:     scorePtr,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Recorded submission %s (%s) for %s\n", id, status, problem)
		return nil
	},
}

func init() {
	submissionAddCmd.Flags().StringP("problem", "p", "", "Problem id")
	submissionAddCmd.Flags().StringP("status", "s", "accepted", "Result: accepted, rejected or pending")
	submissionAddCmd.Flags().StringP("language", "l", "python", "Language of the solution")
	submissionAddCmd.Flags().String("code", "", "File containing the submitted code")
	submissionAddCmd.Flags().Int("score", 0, "Score out of 100 from the judge")
	_ = submissionAddCmd.MarkFlagRequired("problem")

	submissionCmd.AddCommand(submissionAddCmd)
}
