package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jmsie/aeo/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check the local cache and the session service",
	Long: `Check the health of aeo by verifying:
  • The local cache backend opens and accepts writes
  • The active session and recent-sessions list are readable
  • The session service is reachable

This command is useful for debugging configuration, especially in CI/CD environments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		color := internal.IsTerminal(out)
		p := func(style lipgloss.Style, text string) {
			if color {
				text = style.Render(text)
			}
			fmt.Fprintln(out, text)
		}
		detail := func(format string, args ...interface{}) {
			if healthcheckVerbose {
				fmt.Fprintf(out, "   "+format+"\n", args...)
			}
		}

		p(sectionStyle, "aeo Health Check")
		fmt.Fprintln(out)

		// Step 1: Open the cache
		p(infoStyle, "Step 1: Opening local cache...")
		a, err := openApp(cfg, nil)
		if err != nil {
			p(errorStyle, "❌ Failed to open cache")
			return err
		}
		defer a.Close()
		if err := checkStoreWritable(a.cache.Store()); err != nil {
			p(errorStyle, "❌ Cache does not accept writes")
			return err
		}
		p(successStyle, fmt.Sprintf("✅ Cache backend %q opened", cfg.CacheBackend))
		detail("Directory: %s", cfg.CacheDir)
		fmt.Fprintln(out)

		// Step 2: Read cached state
		p(infoStyle, "Step 2: Reading cached sessions...")
		sessions, err := a.cache.Sessions()
		if err != nil {
			p(errorStyle, "❌ Failed to read session list")
			return err
		}
		p(successStyle, fmt.Sprintf("✅ %d recent session(s)", len(sessions)))
		if id := a.location.SessionID(); id != "" {
			detail("Active session: %s", id)
		} else {
			detail("No active session")
		}
		fmt.Fprintln(out)

		// Step 3: Reach the service
		p(infoStyle, "Step 3: Contacting session service...")
		detail("URL: %s", cfg.ServerURL)
		status, err := probeService(cmd.Context(), a.remote.Client())

		fmt.Fprintln(out)
		p(sectionStyle, "Summary")
		fmt.Fprintln(out)
		switch status {
		case serviceReachable:
			p(successStyle, "✅ Health check passed!")
			return nil
		case serviceDegraded:
			p(warningStyle, fmt.Sprintf("⚠️  Service answered with an error: %v", err))
			p(warningStyle, "   Computes will retry and fall back to the local copy")
			return nil
		default:
			p(errorStyle, "❌ Health check failed: session service unreachable")
			if err != nil {
				writeDetail(out, err)
			}
			return fmt.Errorf("health check failed: %w", err)
		}
	},
}

const healthcheckKey = "aeo_healthcheck"

// checkStoreWritable round-trips a scratch key through store
func checkStoreWritable(store internal.KVStore) error {
	want := time.Now().UTC().Format(time.RFC3339Nano)
	if err := store.Set(healthcheckKey, want); err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	got, ok, err := store.Get(healthcheckKey)
	if err != nil {
		return fmt.Errorf("cache read failed: %w", err)
	}
	if !ok || got != want {
		return fmt.Errorf("cache read back %q, want %q", got, want)
	}
	if err := store.Delete(healthcheckKey); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

type serviceStatus int

const (
	serviceUnreachable serviceStatus = iota
	serviceDegraded
	serviceReachable
)

// probeService makes one request to the service. Any HTTP answer other
// than a 502 means it is reachable; servers without /healthz answer 404.
func probeService(ctx context.Context, client *internal.Client) (serviceStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := client.Call(ctx, "/healthz", internal.RequestOptions{Method: http.MethodGet}, 1)
	if err == nil {
		return serviceReachable, nil
	}
	var httpErr *internal.HTTPError
	switch {
	case errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound:
		return serviceReachable, nil
	case errors.As(err, &httpErr), errors.Is(err, internal.ErrServerUnavailable):
		return serviceDegraded, err
	default:
		return serviceUnreachable, err
	}
}

func writeDetail(w io.Writer, err error) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Error details:")
	fmt.Fprintln(w, err)
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed diagnostic information")
}
