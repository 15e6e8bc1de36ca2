package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docqa/internal/adapters/driving/chatcmd"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

const replPrompt = "> "

// runREPL reads questions and commands line by line until /quit, EOF or
// cancellation.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, rt *Runtime, session *domain.Session) error {
	fmt.Fprintln(out, "Ask a question, or type /help for commands.")
	if docs := session.Documents(); len(docs) > 0 && len(session.Selection) == 0 {
		fmt.Fprintf(out, "%d documents available. Choose with /scope, or /scope all.\n", len(docs))
	}

	broad := false
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, replPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		cmd, err := chatcmd.Parse(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		switch cmd.Kind {
		case chatcmd.Empty:
		case chatcmd.Quit:
			return nil
		case chatcmd.Help:
			fmt.Fprintln(out, chatcmd.Usage)
		case chatcmd.Files:
			replFiles(out, session)
		case chatcmd.Scope:
			replScope(out, session, cmd.Args)
		case chatcmd.Broad:
			broad = !broad
			fmt.Fprintf(out, "Broad retrieval: %t\n", broad)
		case chatcmd.History:
			fmt.Fprintln(out, chatcmd.FormatHistory(session.Conversation.Turns()))
		case chatcmd.Add:
			if _, err := ingestPaths(ctx, out, rt, session, cmd.Args); err != nil {
				fmt.Fprintln(out, err)
			}
		case chatcmd.Ask:
			replAsk(ctx, out, rt, session, cmd.Text, broad)
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}

func replFiles(out io.Writer, session *domain.Session) {
	docs := session.Documents()
	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents uploaded yet.")
		return
	}
	for _, d := range docs {
		fmt.Fprintf(out, "  %s\n", d)
	}
}

func replScope(out io.Writer, session *domain.Session, names []string) {
	if len(names) > 0 {
		if unknown := chatcmd.UnknownDocuments(names, session.Documents()); len(unknown) > 0 {
			fmt.Fprintf(out, "Unknown documents: %s\n", strings.Join(unknown, ", "))
			return
		}
		session.Selection = names
	}
	fmt.Fprintf(out, "Scope: %s\n", chatcmd.DescribeScope(session.Selection))
}

// replAsk answers one question and prints the outcome.
func replAsk(ctx context.Context, out io.Writer, rt *Runtime, session *domain.Session, question string, broad bool) {
	answer, err := rt.Chat.Ask(ctx, session, question, session.Selection, driving.AskOptions{Broad: broad})
	switch {
	case err == nil:
		printAnswer(out, answer)
	case errors.Is(err, context.Canceled):
	default:
		if guidance, ok := domain.GuidanceMessage(err); ok {
			fmt.Fprintln(out, guidance)
		} else if errors.Is(err, domain.ErrAnswerUnavailable) {
			fmt.Fprintln(out, domain.AnswerUnavailableMessage)
		} else {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}
