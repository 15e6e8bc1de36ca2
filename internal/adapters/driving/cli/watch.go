package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/watch"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Index PDFs as they appear in a directory",
	Long: `Watch a directory and index PDF documents as they are added or changed.

PDFs already in the directory are indexed on start. Bursts of file events
are grouped into one batch. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a batch is indexed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rt, session, cleanup, err := startSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	w, err := watch.New(rt.Ingest, session, watch.Config{
		Dir:            args[0],
		Extensions:     rt.Extensions,
		Debounce:       watchDebounce,
		IngestExisting: true,
		OnBatch: func(results []domain.IngestResult, summary domain.BatchSummary, err error) {
			for i := range results {
				fmt.Fprintln(out, results[i].Message)
			}
			fmt.Fprintln(out, summary)
			if err != nil {
				fmt.Fprintf(out, "Warning: %v\n", err)
			}
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(ctx)
}
