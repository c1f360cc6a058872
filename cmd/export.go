package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmsie/aeo/internal"
	"github.com/jmsie/aeo/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export a session to file",
	Long: `Export a session document stored by the service (jsonl, md, yaml, json).

Without an id the active session is exported. Use --out - to write to stdout.
Use 'aeo session list' to see recent session IDs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Validate the format before touching the network
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		a, err := openApp(cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		id := a.location.SessionID()
		if len(args) == 1 {
			id = args[0]
		}
		if id == "" {
			return fmt.Errorf("no session id given and no active session")
		}

		ctx := cmd.Context()
		var payload *internal.SessionPayload
		err = internal.ShowProgress(ctx, "Fetching session "+id, func() error {
			var fetchErr error
			payload, fetchErr = a.remote.SessionData(ctx, id)
			return fetchErr
		})
		if err != nil {
			return fmt.Errorf("failed to fetch session %s: %w", id, err)
		}
		if payload.Data == nil {
			return fmt.Errorf("session not found: %s (use 'aeo session list' to see recent sessions)", id)
		}

		record := &internal.SessionRecord{
			SessionID:  id,
			Summary:    payload.Summary,
			Data:       *payload.Data,
			ExportedAt: time.Now().UTC(),
		}

		if outputDir == "-" {
			return exporter.Export(record, cmd.OutOrStdout())
		}
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(outputDir, fmt.Sprintf("session_%s.%s", id, exporter.Extension()))
		if err := writeExport(path, exporter, record); err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Exported session %s to %s", id, path))
		return nil
	},
}

func writeExport(path string, exporter export.Exporter, record *internal.SessionRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	if err := exporter.Export(record, file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to export session %s: %w", record.SessionID, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory, or - for stdout")
}
