package cmd

import (
	"fmt"
	"os"

	"github.com/jmsie/aeo/internal"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	serverURL    string
	cacheBackend string
	configPath   string
	version      string = "dev"
	commit       string = "unknown"
	date         string = "unknown"

	// cfg is loaded before every command runs
	cfg internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aeo",
	Short: "Score content against search queries and keep sessions in sync",
	Long: `A CLI for answer engine optimization sessions.

Text and up to five queries are scored by a similarity service. Every
compute diffs the text against the last synchronized copy, scores each
query, and saves the session locally and remotely.

Quick Start:
  aeo compute --file answer.txt --query "what is go"   # Score a document
  aeo session list                                      # Recent sessions
  aeo export <session-id> --format md                   # Export a session
  aeo serve                                             # Run the reference server`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		if !verbose && cfg.LogLevel != "" {
			level, err := internal.ParseLogLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			internal.SetLogLevel(level)
		}
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers the command-line flags over file and environment settings
func loadConfig() (internal.Config, error) {
	c, err := internal.LoadConfig(configPath)
	if err != nil {
		return c, err
	}
	if serverURL != "" {
		c.ServerURL = serverURL
	}
	if cacheBackend != "" {
		c.CacheBackend = cacheBackend
	}
	return c, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Session service URL (default from config, then http://localhost:8000)")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache", "", "Local cache backend: sqlite, file or memory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.aeo/config.yaml)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
