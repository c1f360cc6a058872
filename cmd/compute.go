package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/jmsie/aeo/internal"
	"github.com/spf13/cobra"
)

var (
	computeFile    string
	computeQueries []string
	computeWatch   bool
	computeSuggest bool
)

var (
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)

	queryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	gapStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Score a document against its queries",
	Long: `Load a document into the active session, score every query against it,
and save the session.

The text is diffed against the last synchronized copy: deletions are shown
struck through in red, insertions in green. HTML input is sanitized down to
its text and diff markers.

With --watch the file is rescored every time it is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if computeFile == "" {
			return fmt.Errorf("--file is required")
		}
		if len(computeQueries) > internal.MaxQueries {
			return fmt.Errorf("at most %d queries are supported, got %d", internal.MaxQueries, len(computeQueries))
		}

		out := cmd.OutOrStdout()
		color := internal.IsTerminal(out)

		var observer internal.Observer = internal.ConsoleObserver{}
		var watcher *watchObserver
		if computeWatch {
			watcher = &watchObserver{out: out, color: color}
			observer = watcher
		}

		a, err := openApp(cfg, observer)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.initialize(ctx); err != nil {
			return err
		}
		if err := loadFile(a.editor, computeFile); err != nil {
			return err
		}
		if len(computeQueries) > 0 {
			for i := 0; i < internal.MaxQueries; i++ {
				q := ""
				if i < len(computeQueries) {
					q = computeQueries[i]
				}
				a.editor.SetQuery(i, q)
				a.editor.SetScore(i, nil)
			}
		}

		var result *internal.ComputeResult
		err = internal.ShowProgress(ctx, "Scoring queries", func() error {
			var computeErr error
			result, computeErr = a.orchestrator.Compute(ctx)
			return computeErr
		})
		if err != nil && !computeWatch {
			return err
		}
		if result != nil && !computeWatch {
			printResult(out, result, color)
			if computeSuggest {
				printSuggestions(out, a.orchestrator)
			}
		}
		a.orchestrator.Wait()

		if !computeWatch {
			return nil
		}
		return watchFile(ctx, computeFile, a)
	},
}

// watchFile reloads path on every write and asks for a debounced compute.
// It returns when ctx ends.
func watchFile(ctx context.Context, path string, a *app) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace the file, so the directory is watched.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	internal.PrintInfo(fmt.Sprintf("Watching %s (Ctrl+C to stop)", path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := loadFile(a.editor, path); err != nil {
				internal.LogWarn("Reloading %s: %v", path, err)
				continue
			}
			a.orchestrator.RequestCompute()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			internal.LogWarn("File watcher: %v", err)
		}
	}
}

// watchObserver prints every scoring round as it completes
type watchObserver struct {
	internal.ConsoleObserver

	out    io.Writer
	color  bool
	mu     sync.Mutex
	markup string
}

func (o *watchObserver) DocumentChanged(doc internal.Document, markup string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.markup = markup
}

func (o *watchObserver) ScoresUpdated(results []internal.SlotResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	printResult(o.out, &internal.ComputeResult{Markup: o.markup, Slots: results}, o.color)
}

func printResult(w io.Writer, result *internal.ComputeResult, color bool) {
	render := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	if result.SessionID != "" {
		fmt.Fprintln(w, render(sectionStyle, "Session "+result.SessionID))
	}
	for _, slot := range result.Slots {
		fmt.Fprintf(w, "  %d. %s  %s  distance %s\n",
			slot.Slot+1,
			render(queryStyle, slot.Query),
			internal.RenderBadge(slot.Badge, color),
			slot.Distance.Text)
		if len(slot.Gaps) > 0 {
			fmt.Fprintln(w, "     "+render(gapStyle, "missing: "+strings.Join(slot.Gaps, ", ")))
		}
		if slot.Err != nil {
			fmt.Fprintf(w, "     error: %v\n", slot.Err)
		}
	}

	segments := internal.MarkupSegments(result.Markup)
	changed := false
	for _, s := range segments {
		if s.Op != internal.DiffEqual {
			changed = true
			break
		}
	}
	if changed {
		fmt.Fprintln(w)
		fmt.Fprintln(w, render(sectionStyle, "Changes since last sync"))
		fmt.Fprintln(w, internal.RenderSegments(segments, color))
	}
}

func printSuggestions(w io.Writer, o *internal.Orchestrator) {
	tips, err := o.Suggest()
	if err != nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Suggestions:")
	for _, tip := range tips {
		fmt.Fprintln(w, "  • "+tip)
	}
}

func init() {
	rootCmd.AddCommand(computeCmd)
	computeCmd.Flags().StringVarP(&computeFile, "file", "f", "", "Document to score (.txt, .md or .html)")
	computeCmd.Flags().StringArrayVarP(&computeQueries, "query", "q", nil, "Query to score against (repeat up to 5 times)")
	computeCmd.Flags().BoolVarP(&computeWatch, "watch", "w", false, "Rescore whenever the file changes")
	computeCmd.Flags().BoolVar(&computeSuggest, "suggest", false, "Print writing suggestions after scoring")
}
