package cmd

import (
	"fmt"

	"github.com/jmsie/aeo/internal"
	"github.com/spf13/cobra"
)

var generateFile string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate queries for a document",
	Long: `Ask the service for search intents that match a document and store them
as the active session's queries. Previous scores are cleared.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateFile == "" {
			return fmt.Errorf("--file is required")
		}

		a, err := openApp(cfg, internal.ConsoleObserver{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.initialize(ctx); err != nil {
			return err
		}
		if err := loadFile(a.editor, generateFile); err != nil {
			return err
		}

		var intents []string
		err = internal.ShowProgress(ctx, "Generating queries", func() error {
			var genErr error
			intents, genErr = a.orchestrator.GenerateQueries(ctx)
			return genErr
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(intents) == 0 {
			fmt.Fprintln(out, "No queries generated")
			return nil
		}
		for i, q := range intents {
			if i == internal.MaxQueries {
				fmt.Fprintf(out, "(%d more not kept)\n", len(intents)-internal.MaxQueries)
				break
			}
			fmt.Fprintf(out, "%d. %s\n", i+1, q)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&generateFile, "file", "f", "", "Document to generate queries for")
}
