package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abhisek/placeprep/internal/api"
	"github.com/abhisek/placeprep/internal/cache"
	"github.com/abhisek/placeprep/internal/llm"
	"github.com/abhisek/placeprep/internal/metrics"
	"github.com/abhisek/placeprep/internal/speech"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API for the web client",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = os.Getenv("PLACEPREP_HTTP_ADDR")
		}
		if addr == "" {
			addr = ":8080"
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		deps := api.Deps{Store: st, Metrics: metrics.New()}

		if url := os.Getenv("PLACEPREP_REDIS_URL"); url != "" {
			client, err := cache.Connect(ctx, url)
			if err != nil {
				warnf("readiness cache disabled: %v", err)
			} else {
				defer client.Close()
				deps.Cache = cache.NewReadinessCache(client, cache.DefaultTTL)
			}
		}

		persister, closeEvents := attemptPersister(st, nil)
		defer closeEvents()
		deps.Persister = persister

		if provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo()); err != nil {
			warnf("speech analysis disabled: %v", err)
		} else {
			deps.Analyzer = speech.NewAnalyzer(provider)
			deps.Analyzer.OnFallback = func(err error) {
				warnf("speech analysis fell back to default scores: %v", err)
			}
		}

		if os.Getenv(gin.EnvGinMode) == "" {
			gin.SetMode(gin.ReleaseMode)
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           api.New(deps).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			fmt.Fprintf(os.Stderr, "placeprep listening on %s\n", addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides PLACEPREP_HTTP_ADDR, default :8080)")
}
