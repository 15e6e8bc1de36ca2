package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/adapters/driving/chatcmd"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/watch"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

var (
	chatWatchDir string
	chatPlain    bool
)

var chatCmd = &cobra.Command{
	Use:     "chat [file.pdf...]",
	Aliases: []string{"tui"},
	Short:   "Chat with your documents",
	Long: `Start an interactive chat over your documents.

Any PDF files given are ingested before the chat starts. Inside the chat,
type a question or a command:

  /scope a.pdf, b.pdf   choose which documents to ask about
  /scope all            ask about every document
  /files                list documents
  /add <path>           upload more PDFs
  /broad                toggle broad retrieval
  /quit                 leave

The full-screen interface is used on a terminal. With --plain, or when
input is not a terminal, a line-oriented prompt is used instead.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatWatchDir, "watch", "w", "", "also ingest PDFs dropped into this directory")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "use the line-oriented prompt")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, session, cleanup, err := startSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(args) > 0 {
		if _, err := ingestPaths(ctx, cmd.OutOrStdout(), rt, session, args); err != nil {
			return err
		}
	}

	if chatPlain || !isTerminal(cmd.InOrStdin()) {
		var onBatch watch.BatchFunc
		if chatWatchDir != "" {
			out := cmd.OutOrStdout()
			onBatch = func(results []domain.IngestResult, summary domain.BatchSummary, _ error) {
				for i := range results {
					fmt.Fprintln(out, results[i].Message)
				}
				fmt.Fprintln(out, summary)
			}
			if err := startWatch(ctx, rt, session, chatWatchDir, onBatch); err != nil {
				return err
			}
		}
		return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), rt, session)
	}

	return runChatTUI(ctx, rt, session)
}

func runChatTUI(ctx context.Context, rt *Runtime, session *domain.Session) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := tui.NewPorts(rt.Chat, rt.Ingest, rt.Extensions)
	ports.ChainStates = rt.ChainStates

	app, err := tui.NewApp(ports, session)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	// Log lines would tear the full-screen display.
	if !logger.IsVerbose() {
		logger.SetOutput(io.Discard)
		defer logger.SetOutput(os.Stderr)
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if chatWatchDir != "" {
		onBatch := func(results []domain.IngestResult, summary domain.BatchSummary, err error) {
			p.Send(messages.WatchBatch{Results: results, Summary: summary, Err: err})
		}
		if err := startWatch(ctx, rt, session, chatWatchDir, onBatch); err != nil {
			return err
		}
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// startWatch runs a directory watcher in the background until ctx ends.
func startWatch(
	ctx context.Context,
	rt *Runtime,
	session *domain.Session,
	dir string,
	onBatch watch.BatchFunc,
) error {
	w, err := watch.New(rt.Ingest, session, watch.Config{
		Dir:            dir,
		Extensions:     rt.Extensions,
		IngestExisting: true,
		OnBatch:        onBatch,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Error("watch stopped: %v", err)
		}
	}()
	return nil
}

// printAnswer writes an answer and its cited sources.
func printAnswer(out io.Writer, answer *domain.Answer) {
	fmt.Fprintln(out, answer.Text)
	if cites := chatcmd.Citations(answer); len(cites) > 0 {
		fmt.Fprintf(out, "\nSources: %s\n", strings.Join(cites, ", "))
	}
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
