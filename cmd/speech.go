package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/placeprep/internal/llm"
	"github.com/abhisek/placeprep/internal/speech"
	"github.com/abhisek/placeprep/internal/store"
)

var speechCmd = &cobra.Command{
	Use:   "speech",
	Short: "Analyze spoken interview answers",
}

var speechAnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a transcript of a spoken answer and save the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		question, _ := cmd.Flags().GetString("question")
		transcript, _ := cmd.Flags().GetString("transcript")
		file, _ := cmd.Flags().GetString("file")
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := cmd.Context()

		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			transcript = string(data)
		}
		transcript = strings.TrimSpace(transcript)
		if transcript == "" {
			return errors.New("a transcript is required: pass --transcript or --file")
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

		provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo())
		if err != nil {
			return fmt.Errorf("LLM provider not configured: %w", err)
		}
		analyzer := speech.NewAnalyzer(provider)
		analyzer.OnFallback = func(err error) {
			warnf("analysis failed, showing default scores: %v", err)
		}

		a := analyzer.Analyze(ctx, transcript, question)
		id, err := st.SpeechRepo().SaveSession(ctx, store.SpeechSession{
			UserID:          user.ID,
			Question:        question,
			Transcript:      transcript,
			FluencyScore:    a.FluencyScore,
			GrammarScore:    a.GrammarScore,
			ConfidenceScore: a.ConfidenceScore,
			FillerCount:     a.FillerCount,
			WPM:             a.WPM,
			Feedback:        a.Feedback,
		})
		if err != nil {
			warnf("session not saved: %v", err)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(a)
		}

		fmt.Printf("Fluency:     %3d\n", a.FluencyScore)
		fmt.Printf("Grammar:     %3d\n", a.GrammarScore)
		fmt.Printf("Confidence:  %3d\n", a.ConfidenceScore)
		fmt.Printf("Fillers:     %3d\n", a.FillerCount)
		fmt.Printf("WPM:         %3d\n", a.WPM)
		fmt.Println()
		fmt.Println(a.Feedback)
		if id != "" {
			fmt.Printf("\nSaved as session %s\n", id)
		}
		return nil
	},
}

var speechListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your analyzed speech sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := currentUser(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.SpeechRepo().ListSessions(cmd.Context(), user.ID)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No speech sessions yet.")
			return nil
		}

		fmt.Printf("%-19s  %4s  %4s  %4s  %s\n", "Time", "Flu", "Gram", "Conf", "Question")
		fmt.Println(strings.Repeat("─", 80))
		for _, s := range sessions {
			fmt.Printf("%-19s  %4d  %4d  %4d  %s\n",
				s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				s.FluencyScore, s.GrammarScore, s.ConfidenceScore, truncate(s.Question, 40))
		}
		return nil
	},
}

func init() {
	speechAnalyzeCmd.Flags().StringP("question", "q", "", "Interview question that was answered")
	speechAnalyzeCmd.Flags().StringP("transcript", "t", "", "Transcript text")
	speechAnalyzeCmd.Flags().StringP("file", "f", "", "Read the transcript from a file")
	speechAnalyzeCmd.Flags().Bool("json", false, "Print the analysis as JSON")
	speechAnalyzeCmd.MarkFlagsMutuallyExclusive("transcript", "file")

	speechCmd.AddCommand(speechAnalyzeCmd)
	speechCmd.AddCommand(speechListCmd)
}
