package cli

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
)

// mockEngine implements the index, search and chat services.
type mockEngine struct {
	mu sync.Mutex

	info     domain.IndexInfo
	loadErr  error
	buildErr error
	loads    int
	builds   int

	results    []domain.ScoredChunk
	searchErr  error
	lastQuery  string
	searchOpts domain.SearchOptions

	answerText   string
	askErr       error
	lastQuestion string
	askOpts      domain.AskOptions
	history      []domain.ConversationTurn
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		info: domain.IndexInfo{Chunks: 13, Dimension: 1536, Model: "text-embedding-3-small"},
		results: []domain.ScoredChunk{
			{
				Chunk: domain.Chunk{
					ID:       "performance",
					Text:     "Floor speed 3.75 ft/min at 15 GPM.",
					Metadata: map[string]string{"section": "Performance"},
				},
				Score:    0.95,
				Position: 3,
			},
			{
				Chunk: domain.Chunk{ID: "overview", Text: "The LeakProof Drive is a hydraulic unloading system."},
				Score: 0.81,
			},
		},
		answerText: "The floor moves at 3.75 ft/min.",
	}
}

func (m *mockEngine) Build(_ context.Context) (domain.IndexInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds++
	if m.buildErr != nil {
		return m.info, m.buildErr
	}
	m.info.Chunks = 13
	return m.info, nil
}

func (m *mockEngine) Load(_ context.Context) (domain.IndexInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.info, m.loadErr
}

func (m *mockEngine) Info() domain.IndexInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

func (m *mockEngine) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = query
	m.searchOpts = opts
	return m.results, m.searchErr
}

func (m *mockEngine) Ask(_ context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuestion = question
	m.askOpts = opts
	if m.askErr != nil {
		return nil, m.askErr
	}
	if opts.WithHistory {
		m.history = append(m.history, domain.ConversationTurn{
			Question: question,
			Answer:   m.answerText,
			Sources:  m.results,
			AskedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		})
	}
	return &domain.Answer{Text: m.answerText, Sources: m.results}, nil
}

func (m *mockEngine) History() []domain.ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ConversationTurn(nil), m.history...)
}

func (m *mockEngine) ClearHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
}

func (m *mockEngine) ExportHistory(ctx context.Context, exporter driven.ConversationExporter) error {
	return exporter.Export(ctx, m.History())
}

// testEngine is the engine injected by setupTestServices.
var testEngine *mockEngine

// setupTestServices injects a mock engine and an in-memory settings
// service. The returned function restores the previous state.
func setupTestServices() func() {
	prevSettings, prevIndex, prevSearch, prevChat := settingsService, indexService, searchService, chatService

	testEngine = newMockEngine()
	settingsService = services.NewSettingsService(memory.NewConfigStore(), nil)
	indexService = testEngine
	searchService = testEngine
	chatService = testEngine

	return func() {
		settingsService, indexService, searchService, chatService = prevSettings, prevIndex, prevSearch, prevChat
		testEngine = nil
		resetCommand(rootCmd)
	}
}

// resetCommand restores every flag to its default so state does not leak
// between executions of the shared root command.
func resetCommand(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		//nolint:errcheck // Defaults always parse.
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetCommand(c)
	}
	cmd.SetArgs(nil)
	cmd.SetIn(nil)
	cmd.SetOut(nil)
	cmd.SetErr(nil)
}
