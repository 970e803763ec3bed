package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/placeprep/internal/identity"
	"github.com/abhisek/placeprep/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "placeprep",
	Short: "Placement preparation: timed tests and readiness tracking",
	Long:  "placeprep runs timed aptitude, verbal and technical tests in the terminal and reports how ready you are for placements.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadDotEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTake(cmd, "")
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite file or postgres:// URL (overrides PLACEPREP_DB env var)")
	rootCmd.PersistentFlags().String("user", "", "User id to act as (overrides PLACEPREP_USER env var)")
	rootCmd.PersistentFlags().String("role", "", "Role of the user: student or admin (overrides PLACEPREP_ROLE env var)")

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(testsCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(readinessCmd)
	rootCmd.AddCommand(speechCmd)
	rootCmd.AddCommand(submissionCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadDotEnv reads .env from the working directory when present. Variables
// already in the environment win.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}

// resolveDBPath returns the database location using --db flag (highest
// priority), then PLACEPREP_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if store.IsPostgresDSN(p) {
			return p, nil
		}
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// currentUser resolves the acting user from --user/--role, falling back
// to PLACEPREP_USER and PLACEPREP_ROLE.
func currentUser(cmd *cobra.Command) (identity.User, error) {
	id, _ := cmd.Flags().GetString("user")
	role, _ := cmd.Flags().GetString("role")
	if id == "" {
		id = os.Getenv("PLACEPREP_USER")
	}
	if role == "" {
		role = os.Getenv("PLACEPREP_ROLE")
	}
	u, err := identity.New(id, role)
	if errors.Is(err, identity.ErrNoUser) {
		return identity.User{}, fmt.Errorf("%w: pass --user or set PLACEPREP_USER", err)
	}
	return u, err
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
