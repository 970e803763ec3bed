package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/placeprep/internal/assessment"
	"github.com/abhisek/placeprep/internal/events"
	"github.com/abhisek/placeprep/internal/metrics"
	"github.com/abhisek/placeprep/internal/store"
	"github.com/abhisek/placeprep/internal/tui"
)

// persistTimeout bounds the final attempt write.
const persistTimeout = 10 * time.Second

var takeCmd = &cobra.Command{
	Use:   "take [test-id]",
	Short: "Take a timed test",
	Long:  "Take a timed test. Without a test id, pick one from the list.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		testID := ""
		if len(args) == 1 {
			testID = args[0]
		}
		return runTake(cmd, testID)
	},
}

// runTake opens the store, resolves the user, and launches the TUI.
func runTake(cmd *cobra.Command, testID string) error {
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

	// Background failures go to the screen. Stderr would garble the TUI.
	warnings := make(chan string, 8)
	notify := func(msg string) {
		select {
		case warnings <- msg:
		default:
		}
	}

	persister, closeEvents := attemptPersister(st, func(err error) {
		notify("Completion event not sent: " + err.Error())
	})
	defer closeEvents()

	m := takeMetrics(cmd, notify)

	tests, err := st.TestRepo().ListTests(ctx)
	if err != nil {
		return fmt.Errorf("list tests: %w", err)
	}

	start := func(ctx context.Context, id string) (*assessment.Controller, error) {
		def, err := st.TestRepo().GetDefinition(ctx, id)
		if err != nil {
			return nil, err
		}
		attemptID, err := st.AttemptRepo().StartAttempt(ctx, def.ID, user.ID)
		if err != nil {
			return nil, err
		}
		return assessment.New(def, attemptID, user, persister, assessment.Options{
			PersistTimeout: persistTimeout,
			OnSubmit:       m.ObserveSubmission,
		})
	}

	return tui.Run(ctx, tui.Options{Tests: tests, TestID: testID, Start: start, Warnings: warnings})
}

// takeMetrics starts a background /metrics listener when --metrics-addr or
// PLACEPREP_METRICS_ADDR is set. It returns nil otherwise.
func takeMetrics(cmd *cobra.Command, notify func(string)) *metrics.Metrics {
	addr, _ := cmd.Flags().GetString("metrics-addr")
	if addr == "" {
		addr = os.Getenv("PLACEPREP_METRICS_ADDR")
	}
	if addr == "" {
		return nil
	}
	m := metrics.New()
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			notify("Metrics listener stopped: " + err.Error())
		}
	}()
	return m
}

// attemptPersister returns the store's AttemptRepo, wrapped to publish
// completion events when PLACEPREP_AMQP_URL is set. Publish failures go to
// onError, or to stderr when it is nil. The returned func closes the broker
// connection.
func attemptPersister(st *store.Store, onError func(error)) (assessment.Persister, func()) {
	url := os.Getenv("PLACEPREP_AMQP_URL")
	if url == "" {
		return st.AttemptRepo(), func() {}
	}
	client, err := events.Dial(url)
	if err != nil {
		warnf("completion events disabled: %v", err)
		return st.AttemptRepo(), func() {}
	}
	p := events.NewPublishingPersister(st.AttemptRepo(), client.Channel())
	p.OnError = onError
	return p, func() { client.Close() }
}

func init() {
	takeCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while the test runs")
}
