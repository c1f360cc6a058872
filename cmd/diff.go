package cmd

import (
	"fmt"
	"os"

	"github.com/jmsie/aeo/internal"
	"github.com/spf13/cobra"
)

var (
	diffOld    string
	diffNew    string
	diffMarkup bool
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show the change overlay between two texts",
	Long: `Show the character-level overlay that a compute would apply when the text
changes from --old to --new. With --markup the overlay is printed as the
span markup the editor stores.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if diffOld == "" || diffNew == "" {
			return fmt.Errorf("--old and --new are required")
		}
		oldText, err := os.ReadFile(diffOld)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", diffOld, err)
		}
		newText, err := os.ReadFile(diffNew)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", diffNew, err)
		}

		segments := internal.Diff(string(oldText), string(newText))
		out := cmd.OutOrStdout()
		if diffMarkup {
			fmt.Fprintln(out, internal.RenderMarkup(segments))
			return nil
		}
		fmt.Fprintln(out, internal.RenderSegments(segments, internal.IsTerminal(out)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVar(&diffOld, "old", "", "Previous version of the text")
	diffCmd.Flags().StringVar(&diffNew, "new", "", "Current version of the text")
	diffCmd.Flags().BoolVar(&diffMarkup, "markup", false, "Print the overlay as editor markup")
}
