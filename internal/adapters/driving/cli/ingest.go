package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf>...",
	Short: "Index PDF documents",
	Long: `Extract, split, embed and index PDF documents.

Documents whose content is already indexed are skipped, so running the
same command twice does no extra work.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, session, cleanup, err := startSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := ingestPaths(ctx, cmd.OutOrStdout(), rt, session, args)
	if err != nil {
		return err
	}
	for i := range results {
		if results[i].Status == domain.IngestError {
			return errors.New("some documents failed to ingest")
		}
	}
	return nil
}

// ingestPaths reads and ingests paths, printing one line per document as
// it finishes and a summary at the end. Unreadable paths are reported
// and skipped; an error is returned only when nothing could be read or
// the processed set could not be saved.
func ingestPaths(
	ctx context.Context,
	out io.Writer,
	rt *Runtime,
	session *domain.Session,
	paths []string,
) ([]domain.IngestResult, error) {
	uploads, readErr := services.ReadUploads(paths, rt.Extensions)
	if readErr != nil {
		fmt.Fprintln(out, readErr)
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: no readable documents", domain.ErrInvalidInput)
	}

	results, summary, err := rt.Ingest.Ingest(ctx, session, uploads,
		func(done, total int, result domain.IngestResult) {
			fmt.Fprintf(out, "[%d/%d] %s\n", done, total, result.Message)
		})
	fmt.Fprintln(out, summary)
	if err != nil {
		return results, fmt.Errorf("saving processed documents: %w", err)
	}
	return results, nil
}
