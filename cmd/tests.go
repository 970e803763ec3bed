package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "List available tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		tests, err := st.TestRepo().ListTests(cmd.Context())
		if err != nil {
			return fmt.Errorf("list tests: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(tests)
		}

		if len(tests) == 0 {
			fmt.Println("No tests found. Import a question bank with `placeprep bank import <file>`.")
			return nil
		}

		fmt.Printf("%-16s  %-32s  %-10s  %-8s  %5s  %9s\n",
			"ID", "Title", "Type", "Level", "Mins", "Questions")
		fmt.Println(strings.Repeat("─", 92))
		for _, t := range tests {
			fmt.Printf("%-16s  %-32s  %-10s  %-8s  %5d  %9d\n",
				truncate(t.ID, 16), truncate(t.Title, 32), t.Type, t.Difficulty, t.TimeLimitMinutes, t.QuestionCount)
		}
		return nil
	},
}

func init() {
	testsCmd.Flags().Bool("json", false, "Print as JSON")
}
