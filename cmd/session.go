package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jmsie/aeo/internal"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
	Long:  `List, create, open and delete sessions. The active session is kept in the local cache.`,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		sessions, err := a.cache.Sessions()
		if err != nil {
			return err
		}
		displaySessions(cmd.OutOrStdout(), sessions, a.location.SessionID())
		return nil
	},
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, internal.ConsoleObserver{})
		if err != nil {
			return err
		}
		defer a.Close()

		a.location.Replace("")
		if err := a.initialize(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.lifecycle.SessionID())
		return nil
	},
}

var sessionOpenCmd = &cobra.Command{
	Use:   "open <session-id>",
	Short: "Make a session the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, internal.ConsoleObserver{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		err = internal.ShowProgress(ctx, "Loading session "+args[0], func() error {
			return a.lifecycle.Switch(ctx, args[0])
		})
		if err != nil {
			return err
		}

		doc := a.editor.Document()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Opened %s\n", a.lifecycle.SessionID())
		for i, q := range doc.Queries {
			if q != "" {
				fmt.Fprintf(out, "  %d. %s  %s\n", i+1, q, internal.ScoreBadgeAt(doc.Scores[i], float64(cfg.LowScore)).Text)
			}
		}
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Remove a session from the local list",
	Long: `Remove a session from the local list. The service keeps its copy.
Deleting the active session starts a new one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, internal.ConsoleObserver{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.lifecycle.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		if id := a.lifecycle.SessionID(); id != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Active session: %s\n", id)
		}
		return nil
	},
}

var sessionCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the active session id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		id := a.location.SessionID()
		if id == "" {
			return fmt.Errorf("no active session (run 'aeo session new')")
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func displaySessions(w io.Writer, sessions []internal.SessionSummary, activeID string) {
	color := internal.IsTerminal(w)
	render := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(w, render(headerStyle, "No sessions found"))
		return
	}
	fmt.Fprintln(w, render(headerStyle, fmt.Sprintf("%d session(s)", len(sessions))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, render(titleStyle, "ID")+"\t"+render(titleStyle, "Summary")+"\t"+render(titleStyle, "Last used")+"\t")
	fmt.Fprintln(tw, strings.Repeat("─", 80))
	for _, s := range sessions {
		summary := s.Summary
		if r := []rune(summary); len(r) > 50 {
			summary = string(r[:47]) + "..."
		}
		marker := " "
		if s.SessionID == activeID {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t\n",
			marker,
			render(idStyle, s.SessionID),
			summary,
			render(dateStyle, humanize.Time(s.LastAccessed)))
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionNewCmd, sessionOpenCmd, sessionDeleteCmd, sessionCurrentCmd)
}
