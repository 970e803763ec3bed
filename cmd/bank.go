package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/placeprep/internal/questionbank"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Validate and import question banks",
}

var bankValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a YAML or JSON question bank without importing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadBank(args[0])
		if err != nil {
			return err
		}
		questions := 0
		for _, t := range b.Tests {
			questions += len(t.Items)
		}
		fmt.Printf("%s: ok (%d tests, %d questions, %d problems)\n", args[0], len(b.Tests), questions, len(b.Problems))
		return nil
	},
}

var bankImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a question bank's tests and coding problems into the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadBank(args[0])
		if err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		sum, err := questionbank.Import(cmd.Context(), b, st.TestRepo(), st.ActivityRepo())
		if err != nil {
			return fmt.Errorf("import %s: %w", args[0], err)
		}
		fmt.Printf("Imported %d tests and %d problems from %s\n", sum.Tests, sum.Problems, args[0])
		return nil
	},
}

// loadBank loads path and prints each validation error on its own line.
func loadBank(path string) (*questionbank.Bank, error) {
	b, err := questionbank.Load(path)
	if err == nil {
		return b, nil
	}
	var verrs questionbank.ValidationErrors
	if errors.As(err, &verrs) {
		for _, v := range verrs {
			fmt.Printf("  %s: %s\n", v.Path, v.Msg)
		}
		return nil, fmt.Errorf("%s: %d validation errors", path, len(verrs))
	}
	return nil, err
}

func init() {
	bankCmd.AddCommand(bankValidateCmd)
	bankCmd.AddCommand(bankImportCmd)
}
