package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/chatcmd"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var (
	askScope []string
	askBroad bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question> [file.pdf...]",
	Short: "Answer one question about your documents",
	Long: `Answer a single question using the indexed documents.

Any PDF files given after the question are ingested first. Documents
indexed earlier are available without uploading them again.

Examples:
  docqa ask "What is the notice period?"
  docqa ask "Summarise the budget" --scope budget.pdf
  docqa ask "Compare the two offers" offer-a.pdf offer-b.pdf --broad`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askScope, "scope", "s", []string{domain.AllFiles},
		"documents to search (repeatable, or \""+domain.AllFiles+"\")")
	askCmd.Flags().BoolVarP(&askBroad, "broad", "b", false, "retrieve more segments for broad questions")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	question, files := args[0], args[1:]

	rt, session, cleanup, err := startSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(files) > 0 {
		if _, err := ingestPaths(ctx, out, rt, session, files); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	scope := askScope
	if len(scope) == 1 && strings.EqualFold(scope[0], "all") {
		scope = []string{domain.AllFiles}
	}
	if unknown := chatcmd.UnknownDocuments(scope, session.Documents()); len(unknown) > 0 {
		return fmt.Errorf("%w: unknown documents: %s", domain.ErrInvalidInput, strings.Join(unknown, ", "))
	}

	answer, err := rt.Chat.Ask(ctx, session, question, scope, driving.AskOptions{Broad: askBroad})
	if err != nil {
		if guidance, ok := domain.GuidanceMessage(err); ok {
			fmt.Fprintln(out, guidance)
			return nil
		}
		if errors.Is(err, domain.ErrAnswerUnavailable) {
			fmt.Fprintln(out, domain.AnswerUnavailableMessage)
		}
		return err
	}

	printAnswer(out, answer)
	return nil
}
