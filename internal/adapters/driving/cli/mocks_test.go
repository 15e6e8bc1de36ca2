package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/docqa/internal/adapters/driving/watch"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings        domain.AppSettings
	validateErr     error
	connectivityErr error
	set             map[string]string
	pinged          bool
}

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultAppSettings()
	s.Index.Dir = "/tmp/docqa-index"
	return &mockSettingsService{settings: s, set: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if key == "bogus" {
		return domain.ErrInvalidInput
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) ValidateConnectivity(context.Context) error {
	m.pinged = true
	return m.connectivityErr
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

// mockSessionService implements driving.SessionService for testing.
type mockSessionService struct {
	session *domain.Session
	restore bool
}

func (m *mockSessionService) Start(_ context.Context, restore bool) (*domain.Session, error) {
	m.restore = restore
	return m.session, nil
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	IngestFunc func(
		ctx context.Context, session *domain.Session,
		uploads []domain.Upload, progress driving.ProgressFunc,
	) ([]domain.IngestResult, domain.BatchSummary, error)
}

func (m *mockIngestService) Ingest(
	ctx context.Context,
	session *domain.Session,
	uploads []domain.Upload,
	progress driving.ProgressFunc,
) ([]domain.IngestResult, domain.BatchSummary, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, session, uploads, progress)
	}
	results := make([]domain.IngestResult, len(uploads))
	for i, u := range uploads {
		results[i] = domain.SuccessResult(u.Name, "fp-"+u.Name, 2, 5)
		session.Registry.Add(u.Name)
		if progress != nil {
			progress(i+1, len(uploads), results[i])
		}
	}
	return results, domain.Summarise(results, 0), nil
}

// mockChatService implements driving.ChatService for testing.
type mockChatService struct {
	AskFunc func(
		ctx context.Context, session *domain.Session, question string,
		selection []string, opts driving.AskOptions,
	) (*domain.Answer, error)

	questions  []string
	selections [][]string
}

func (m *mockChatService) Ask(
	ctx context.Context,
	session *domain.Session,
	question string,
	selection []string,
	opts driving.AskOptions,
) (*domain.Answer, error) {
	m.questions = append(m.questions, question)
	m.selections = append(m.selections, selection)
	if m.AskFunc != nil {
		return m.AskFunc(ctx, session, question, selection, opts)
	}
	page := 1
	return &domain.Answer{
		Text:     "The answer.",
		Question: question,
		Sources:  []domain.Segment{{Source: "a.pdf", Page: &page}},
	}, nil
}

type testServices struct {
	settings *mockSettingsService
	sessions *mockSessionService
	ingest   *mockIngestService
	chat     *mockChatService
	closed   int
}

// setupTestServices injects mocks and resets command flags.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		settings: newMockSettingsService(),
		sessions: &mockSessionService{session: domain.NewSession("test", nil)},
		ingest:   &mockIngestService{},
		chat:     &mockChatService{},
	}

	SetSettingsService(ts.settings)
	SetRuntimeFactory(func(context.Context) (*Runtime, error) {
		return &Runtime{
			Sessions:   ts.sessions,
			Ingest:     ts.ingest,
			Chat:       ts.chat,
			Extensions: []string{".pdf"},
			Close: func() error {
				ts.closed++
				return nil
			},
		}, nil
	})

	askScope = []string{domain.AllFiles}
	askBroad = false
	verbose = false
	chatPlain = false
	chatWatchDir = ""
	watchDebounce = watch.DefaultDebounce

	t.Cleanup(func() {
		SetSettingsService(nil)
		SetRuntimeFactory(nil)
	})
	return ts
}

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return runCommandContext(t, context.Background(), stdin, args...)
}

func runCommandContext(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func withTimeout(t *testing.T, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}
