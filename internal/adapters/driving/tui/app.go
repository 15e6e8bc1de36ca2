package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/chatcmd"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
)

// eventBuffer bounds progress events waiting for the UI loop.
const eventBuffer = 64

// chrome is the number of rows used by the header, prompt and status bar.
const chrome = 6

// App is the chat TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// session is the chat session this UI drives.
	session *domain.Session

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	transcript viewport.Model
	input      *input.PromptInput
	status     *status.Bar
	scope      *list.ScopeList

	// lines holds the rendered transcript entries.
	lines []string

	// docs caches the registered documents. It is refreshed whenever no
	// question holds the session.
	docs []string

	// events carries progress from service goroutines into Update.
	events chan tea.Msg

	currentView messages.ViewType
	broad       bool
	asking      bool
	ingesting   bool

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has received its first size.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat TUI over session with the given ports.
func NewApp(ports *Ports, session *domain.Session) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingSession)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:       ports,
		session:     session,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		transcript:  viewport.New(80, 18),
		input:       input.NewPromptInput(s),
		status:      status.NewBar(s, km),
		scope:       list.NewScopeList(s),
		events:      make(chan tea.Msg, eventBuffer),
		currentView: messages.ViewChat,
		docs:        session.Documents(),
	}

	if ports.ChainStates != nil {
		ports.ChainStates(func(state domain.ChainState) {
			a.emit(messages.ChainStateChanged{State: state})
		})
	}

	a.appendNotice("Add PDFs with /add <path>, pick documents with tab or /scope, then ask a question. /help lists commands.")
	if len(a.docs) > 0 {
		a.appendNotice(fmt.Sprintf("%d documents from earlier sessions are available.", len(a.docs)))
	}
	a.refreshStatus()
	return a, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("docqa"),
		a.input.Init(),
		a.waitForEvent(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.AnswerReceived:
		a.handleAnswer(msg)
		return a, nil

	case messages.IngestProgress:
		a.handleProgress(msg)
		return a, a.waitForEvent()

	case messages.IngestCompleted:
		a.handleIngestCompleted(msg)
		return a, nil

	case messages.WatchBatch:
		a.handleWatchBatch(msg)
		return a, nil

	case messages.ChainStateChanged:
		if a.asking {
			a.status.SetStep(msg.State)
		}
		return a, a.waitForEvent()

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	header := a.styles.Title.Render("docqa") + "  " + a.styles.Muted.Render("chat with your documents")

	var body string
	switch a.currentView {
	case messages.ViewScope:
		body = a.scope.View()
	case messages.ViewHelp:
		body = a.helpView()
	case messages.ViewChat:
		body = a.transcript.View()
	default:
		body = a.transcript.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		a.input.View(),
		a.status.View(),
	)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if keymap.Matches(k, a.keymap.Quit) {
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewScope:
		return a.handlePickerKey(msg)
	case messages.ViewHelp:
		if keymap.Matches(k, a.keymap.Cancel) || keymap.Matches(k, a.keymap.Help) || keymap.Matches(k, a.keymap.Send) {
			a.currentView = messages.ViewChat
		}
		return a, nil
	case messages.ViewChat:
	}

	var cmd tea.Cmd
	switch {
	case keymap.Matches(k, a.keymap.Send):
		return a.submit()
	case keymap.Matches(k, a.keymap.Scope):
		a.openPicker()
		return a, nil
	case keymap.Matches(k, a.keymap.Broad):
		a.toggleBroad()
		return a, nil
	case keymap.Matches(k, a.keymap.Help):
		a.currentView = messages.ViewHelp
		return a, nil
	case keymap.Matches(k, a.keymap.ScrollUp), keymap.Matches(k, a.keymap.ScrollDown):
		a.transcript, cmd = a.transcript.Update(msg)
		return a, cmd
	}

	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Apply):
		a.closePicker()
		a.setSelection(a.scope.Selection())
		return a, a.input.Focus()
	case keymap.Matches(k, a.keymap.Cancel):
		a.closePicker()
		return a, a.input.Focus()
	}

	var cmd tea.Cmd
	a.scope, cmd = a.scope.Update(msg)
	return a, cmd
}

// submit interprets the prompt as a question or slash command.
func (a *App) submit() (tea.Model, tea.Cmd) {
	cmd, err := chatcmd.Parse(a.input.Take())
	if err != nil {
		a.appendError(err.Error())
		return a, nil
	}

	switch cmd.Kind {
	case chatcmd.Ask:
		return a, a.ask(cmd.Text)
	case chatcmd.Add:
		return a, a.add(cmd.Args)
	case chatcmd.Scope:
		a.applyScope(cmd.Args)
	case chatcmd.Files:
		a.listFiles()
	case chatcmd.Broad:
		a.toggleBroad()
	case chatcmd.History:
		a.showHistory()
	case chatcmd.Help:
		a.currentView = messages.ViewHelp
	case chatcmd.Quit:
		return a, tea.Quit
	case chatcmd.Empty:
	}
	return a, nil
}

// ask starts answering text in the background.
func (a *App) ask(text string) tea.Cmd {
	if a.busy() {
		a.appendNotice("Please wait for the current task to finish.")
		return nil
	}

	a.appendUser(text)
	a.asking = true
	a.status.SetState(status.StateThinking)
	a.status.SetStep(domain.StateAwaitingQuestion)

	ctx := a.ctx
	selection := slices.Clone(a.session.Selection)
	opts := driving.AskOptions{Broad: a.broad}
	return func() tea.Msg {
		answer, err := a.ports.Chat.Ask(ctx, a.session, text, selection, opts)
		return messages.AnswerReceived{Question: text, Answer: answer, Err: err}
	}
}

func (a *App) handleAnswer(msg messages.AnswerReceived) {
	a.asking = false
	a.status.Clear()

	if msg.Err == nil {
		a.appendAnswer(msg.Answer)
		return
	}
	if guidance, ok := domain.GuidanceMessage(msg.Err); ok {
		a.appendAssistant(guidance)
		return
	}
	if errors.Is(msg.Err, domain.ErrAnswerUnavailable) {
		a.appendAssistant(domain.AnswerUnavailableMessage)
		return
	}
	a.setError(msg.Err)
}

// add reads and ingests paths in the background.
func (a *App) add(paths []string) tea.Cmd {
	if a.busy() {
		a.appendNotice("Please wait for the current task to finish.")
		return nil
	}

	uploads, err := services.ReadUploads(paths, a.ports.Extensions)
	if err != nil {
		a.appendError(err.Error())
	}
	if len(uploads) == 0 {
		return nil
	}

	a.ingesting = true
	a.status.SetState(status.StateIngesting)
	a.status.SetProgress(0, len(uploads))
	a.appendNotice(fmt.Sprintf("Indexing %d document(s)...", len(uploads)))

	ctx := a.ctx
	return func() tea.Msg {
		results, summary, err := a.ports.Ingest.Ingest(ctx, a.session, uploads,
			func(done, total int, result domain.IngestResult) {
				a.emit(messages.IngestProgress{Done: done, Total: total, Result: result})
			})
		return messages.IngestCompleted{Results: results, Summary: summary, Err: err}
	}
}

func (a *App) handleProgress(msg messages.IngestProgress) {
	a.status.SetProgress(msg.Done, msg.Total)
	a.appendResult(msg.Result)
}

func (a *App) appendResult(result domain.IngestResult) {
	switch result.Status {
	case domain.IngestError:
		a.appendLine(a.styles.Error.Render(result.Message))
	case domain.IngestSkipped:
		a.appendLine(a.styles.Muted.Render(result.Message))
	case domain.IngestSuccess:
		a.appendLine(a.styles.Success.Render(result.Message))
	}
}

func (a *App) handleIngestCompleted(msg messages.IngestCompleted) {
	a.ingesting = false
	a.status.Clear()

	a.appendNotice(msg.Summary.String())
	if msg.Err != nil {
		a.appendError(fmt.Sprintf("Could not save the processed list: %v", msg.Err))
	}

	docs := a.documents()
	if len(docs) > 0 && len(a.session.Selection) == 0 {
		a.appendNotice("Press tab or use /scope to choose which documents to ask about.")
	}
	a.refreshStatus()
}

func (a *App) handleWatchBatch(msg messages.WatchBatch) {
	for i := range msg.Results {
		a.appendResult(msg.Results[i])
	}
	a.appendNotice("Watched folder: " + msg.Summary.String())
	if msg.Err != nil {
		a.appendError(fmt.Sprintf("Could not save the processed list: %v", msg.Err))
	}
	a.documents()
	a.refreshStatus()
}

func (a *App) applyScope(names []string) {
	if len(names) == 0 {
		a.appendNotice("Scope: " + chatcmd.DescribeScope(a.session.Selection))
		return
	}
	if unknown := chatcmd.UnknownDocuments(names, a.documents()); len(unknown) > 0 {
		a.appendError("Unknown documents: " + strings.Join(unknown, ", "))
		return
	}
	a.setSelection(names)
}

func (a *App) setSelection(selection []string) {
	a.session.Selection = selection
	a.appendNotice("Scope: " + chatcmd.DescribeScope(selection))
	a.refreshStatus()
}

func (a *App) listFiles() {
	docs := a.documents()
	if len(docs) == 0 {
		a.appendNotice("No documents uploaded yet.")
		return
	}
	a.appendNotice("Documents:\n  " + strings.Join(docs, "\n  "))
}

func (a *App) showHistory() {
	if a.asking {
		a.appendNotice("Please wait for the current answer.")
		return
	}
	a.appendNotice(chatcmd.FormatHistory(a.session.Conversation.Turns()))
}

func (a *App) toggleBroad() {
	a.broad = !a.broad
	if a.broad {
		a.appendNotice("Broad retrieval on.")
	} else {
		a.appendNotice("Broad retrieval off.")
	}
	a.refreshStatus()
}

func (a *App) openPicker() {
	a.scope.SetDocuments(a.documents(), a.session.Selection)
	a.currentView = messages.ViewScope
	a.status.SetState(status.StatePicking)
	a.input.Blur()
}

func (a *App) closePicker() {
	a.currentView = messages.ViewChat
	a.status.SetState(status.StateReady)
	if a.asking {
		a.status.SetState(status.StateThinking)
	} else if a.ingesting {
		a.status.SetState(status.StateIngesting)
	}
}

// documents returns the registered documents, refreshing the cache
// unless a question currently holds the session.
func (a *App) documents() []string {
	if !a.asking {
		a.docs = a.session.Documents()
	}
	return a.docs
}

func (a *App) busy() bool {
	return a.asking || a.ingesting
}

// emit queues an event for the UI loop, dropping it when the loop is
// too far behind.
func (a *App) emit(msg tea.Msg) {
	select {
	case a.events <- msg:
	default:
	}
}

// waitForEvent delivers the next queued event as a message.
func (a *App) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-a.events:
			return msg
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) refreshStatus() {
	a.status.SetSession(len(a.docs), chatcmd.DescribeScope(a.session.Selection), a.broad)
}

func (a *App) setError(err error) {
	a.err = err
	a.status.SetState(status.StateError)
	a.status.SetMessage(err.Error())
	a.appendError(err.Error())
}

func (a *App) appendUser(text string) {
	a.appendLine(a.styles.UserMessage.Render("You: ") + text)
}

func (a *App) appendAssistant(text string) {
	a.appendLine(a.styles.AssistantMessage.Render("Assistant: ") + text)
}

func (a *App) appendAnswer(answer *domain.Answer) {
	a.appendAssistant(answer.Text)
	if cites := chatcmd.Citations(answer); len(cites) > 0 {
		a.appendLine(a.styles.Source.Render("Sources: " + strings.Join(cites, ", ")))
	}
}

func (a *App) appendNotice(text string) {
	a.appendLine(renderLines(a.styles.Muted, text))
}

func (a *App) appendError(text string) {
	a.appendLine(renderLines(a.styles.Error, text))
}

// renderLines styles each line on its own. lipgloss pads a multi-line
// block to its widest line.
func renderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

func (a *App) appendLine(line string) {
	a.lines = append(a.lines, line)
	a.syncTranscript()
}

func (a *App) syncTranscript() {
	content := strings.Join(a.lines, "\n\n")
	if a.transcript.Width > 0 {
		content = lipgloss.NewStyle().Width(a.transcript.Width).Render(content)
	}
	a.transcript.SetContent(content)
	a.transcript.GotoBottom()
}

func (a *App) helpView() string {
	var b strings.Builder
	b.WriteString(a.styles.Subtitle.Render("Keys"))
	b.WriteString("\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-8s %s\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Subtitle.Render("Commands"))
	b.WriteString("\n")
	b.WriteString(chatcmd.Usage)
	return b.String()
}

// SetDimensions sizes every component for a terminal of width by height.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	bodyHeight := height - chrome
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	a.transcript.Width = width
	a.transcript.Height = bodyHeight
	a.scope.SetDimensions(width, bodyHeight)
	a.input.SetWidth(width)
	a.status.SetWidth(width)
	a.syncTranscript()
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Transcript returns the transcript entries.
func (a *App) Transcript() []string {
	return slices.Clone(a.lines)
}

// Broad reports whether broad retrieval is on.
func (a *App) Broad() bool {
	return a.broad
}

// Busy reports whether a question or upload is in progress.
func (a *App) Busy() bool {
	return a.busy()
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}

// Ready reports whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}
