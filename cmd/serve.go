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

	"github.com/jmsie/aeo/internal"
	"github.com/jmsie/aeo/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveStore string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference session service",
	Long: `Run an HTTP server implementing the session service contract:
/session/new, /session/data, /session/save, /similarity and /generate_queries.

Sessions are kept in memory, Redis (REDIS_URL) or PostgreSQL (DATABASE_URL).
Scoring is forwarded to AEO_SCORER_URL; without one, scoring answers 502.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		if serveAddr != "" {
			c.Addr = serveAddr
		}
		if serveStore != "" {
			c.Store = serveStore
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := server.OpenStore(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to open %s store: %w", c.Store, err)
		}
		defer store.Close()

		var scorer server.Scorer
		if c.ScorerURL != "" {
			scorer = server.NewUpstreamScorer(c.ScorerURL)
		} else {
			internal.LogWarn("No scorer configured; /similarity and /generate_queries will answer 502")
		}

		httpServer := &http.Server{
			Addr:              c.Addr,
			Handler:           server.NewHTTPServer(store, scorer).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			internal.LogInfo("Session service listening on %s (store: %s)", c.Addr, c.Store)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :8000)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "Record store: memory, redis or postgres")
}
