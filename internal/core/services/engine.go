package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Engine implements the driving interfaces.
var (
	_ driving.IndexService    = (*Engine)(nil)
	_ driving.SearchService   = (*Engine)(nil)
	_ driving.ChatService     = (*Engine)(nil)
	_ driven.PromptStoreAware = (*Engine)(nil)
)

// EngineConfig holds retrieval and generation settings for an Engine.
type EngineConfig struct {
	// TopK is the default number of chunks per question.
	TopK int

	// HistoryWindow is the number of turns included in a prompt.
	HistoryWindow int

	// HistoryRetention caps stored turns. Zero keeps all.
	HistoryRetention int

	// MinScore drops results below this similarity. Zero disables it.
	MinScore float64

	// Params are the completion sampling parameters.
	Params domain.GenerationParams
}

// EngineConfigFromSettings extracts engine configuration from app settings.
func EngineConfigFromSettings(s domain.AppSettings) EngineConfig {
	return EngineConfig{
		TopK:             s.Retrieval.TopK,
		HistoryWindow:    s.Retrieval.HistoryWindow,
		HistoryRetention: s.Retrieval.HistoryRetention,
		MinScore:         s.Retrieval.MinScore,
		Params:           s.LLM.Params(),
	}
}

// Engine is the retrieval-augmented question answering engine.
//
// The current index is held behind an atomic pointer. Build and Load
// construct a complete new index before swapping it in, so searches never
// observe a partially built index. Builds are serialised.
type Engine struct {
	embedder  driven.EmbeddingService
	corpus    driven.CorpusSource
	llm       driven.LLMService
	store     driven.IndexStore
	assembler *ContextAssembler
	memory    *ConversationMemory
	cfg       EngineConfig

	index   atomic.Pointer[Index]
	buildMu sync.Mutex
	now     func() time.Time
}

// NewEngine creates an engine with an empty index.
// The LLM service and index store are optional and set separately.
func NewEngine(embedder driven.EmbeddingService, corpus driven.CorpusSource, cfg EngineConfig) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.Params == (domain.GenerationParams{}) {
		cfg.Params = domain.DefaultGenerationParams()
	}

	e := &Engine{
		embedder:  embedder,
		corpus:    corpus,
		assembler: NewContextAssembler(),
		memory:    NewConversationMemory(cfg.HistoryWindow, WithRetention(cfg.HistoryRetention)),
		cfg:       cfg,
		now:       time.Now,
	}
	empty, _ := NewIndex(nil, nil, embedder.ModelName())
	e.index.Store(empty)
	return e
}

// SetLLMService sets the completion provider used by Ask.
func (e *Engine) SetLLMService(llm driven.LLMService) {
	e.llm = llm
}

// SetIndexStore sets where Build saves and Load restores the index.
func (e *Engine) SetIndexStore(store driven.IndexStore) {
	e.store = store
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (e *Engine) SetPromptStore(store driven.PromptStore) {
	e.assembler.SetPromptStore(store)
}

// Memory returns the engine's conversation memory.
func (e *Engine) Memory() *ConversationMemory {
	return e.memory
}

// Build loads the corpus, embeds every chunk in one batch, swaps the new
// index in and persists it. On failure the previous index keeps serving.
// An embedder fitted to the corpus is swapped in together with the index.
// A save failure is returned after the swap; the new index still serves.
func (e *Engine) Build(ctx context.Context) (domain.IndexInfo, error) {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	logger.Section("Index Build")

	corpus, err := e.corpus.Load(ctx)
	if err != nil {
		return e.Info(), fmt.Errorf("load corpus: %w", err)
	}
	store, err := NewChunkStore(corpus)
	if err != nil {
		return e.Info(), err
	}
	chunks := store.Build()
	logger.Debug("Corpus %q from %s: %d chunks", store.Name(), e.corpus.Location(), len(chunks))
	if len(chunks) == 0 {
		return e.Info(), fmt.Errorf("%w: corpus %s has no chunks", domain.ErrInvalidCorpus, e.corpus.Location())
	}

	start := time.Now()
	idx, err := BuildIndex(ctx, e.embedder, chunks)
	if err != nil {
		logger.Warn("Index build failed: %v", err)
		return e.Info(), fmt.Errorf("build index: %w", err)
	}
	logger.Info("Embedded %d chunks (dim=%d) in %s", idx.Len(), idx.Dimension(), time.Since(start).Round(time.Millisecond))

	e.index.Store(idx)

	if e.store != nil {
		if err := e.store.Save(ctx, idx.Snapshot()); err != nil {
			return e.Info(), fmt.Errorf("save index: %w", err)
		}
		logger.Debug("Index saved to %s", e.store.Location())
	}

	return e.Info(), nil
}

// Load restores the persisted index and swaps it in.
func (e *Engine) Load(ctx context.Context) (domain.IndexInfo, error) {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	logger.Section("Index Load")

	if e.store == nil {
		return e.Info(), fmt.Errorf("%w: no index store configured", domain.ErrIndexNotFound)
	}

	snap, err := e.store.Load(ctx)
	if err != nil {
		return e.Info(), fmt.Errorf("load index: %w", err)
	}
	idx, err := IndexFromSnapshot(snap)
	if err != nil {
		return e.Info(), fmt.Errorf("load index: %w", err)
	}

	if model := e.embedder.ModelName(); idx.Model() != "" && idx.Model() != model {
		logger.Warn("Index was built with %q but queries use %q", idx.Model(), model)
	}

	fitted, err := FitEmbedder(ctx, e.embedder, idx.chunks)
	if err != nil {
		return e.Info(), fmt.Errorf("load index: %w", err)
	}
	idx.embedder = fitted

	e.index.Store(idx)
	logger.Debug("Loaded %d chunks from %s", idx.Len(), e.store.Location())
	return e.Info(), nil
}

// LoadOrBuild restores the persisted index, building it when none exists.
func (e *Engine) LoadOrBuild(ctx context.Context) (domain.IndexInfo, error) {
	info, err := e.Load(ctx)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, domain.ErrIndexNotFound) {
		return info, err
	}
	logger.Info("No saved index, building")
	return e.Build(ctx)
}

// Info describes the index currently serving queries.
func (e *Engine) Info() domain.IndexInfo {
	idx := e.index.Load()
	info := domain.IndexInfo{
		Chunks:    idx.Len(),
		Dimension: idx.Dimension(),
		Model:     idx.Model(),
	}
	if idx.Len() > 0 {
		info.BuiltAt = idx.BuiltAt()
	}
	if e.store != nil {
		info.Location = e.store.Location()
	}
	return info
}

// Search embeds the query and ranks every indexed chunk against it.
func (e *Engine) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.ScoredChunk{}, nil
	}

	idx := e.index.Load()
	if idx.Len() == 0 {
		return nil, &domain.EmptyIndexError{}
	}

	if opts.TopK <= 0 {
		opts.TopK = e.cfg.TopK
	}
	if opts.MinScore == nil && e.cfg.MinScore != 0 {
		minScore := e.cfg.MinScore
		opts.MinScore = &minScore
	}

	vec, err := EmbedQuery(ctx, idx.QueryEmbedder(e.embedder), query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results, err := SearchIndex(vec, idx, opts)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	for i, r := range results {
		logger.Debug("  %d. %s (score=%.4f)", i+1, r.Chunk.ID, r.Score)
	}
	logger.Info("Final results: %d", len(results))
	return results, nil
}

// Ask retrieves sources for the question, assembles a prompt and asks the
// completion provider. With WithHistory the recent turns are included and the
// new turn is recorded once the provider answers.
func (e *Engine) Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if e.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	sources, err := e.Search(ctx, question, domain.SearchOptions{TopK: opts.TopK})
	if err != nil {
		return nil, err
	}

	var history []domain.ConversationTurn
	if opts.WithHistory {
		history = e.memory.Recent(0)
	}

	logger.Section("Answer Generation")
	prompt := e.assembler.Assemble(question, sources, history)
	logger.Debug("Prompt: %d messages, %d history turns, %d sources", len(prompt.Messages), len(history), len(sources))

	text, err := e.llm.Chat(ctx, toChatMessages(prompt), driven.ChatOptions{
		MaxTokens:   e.cfg.Params.MaxTokens,
		Temperature: e.cfg.Params.Temperature,
	})
	if err != nil {
		return nil, domain.NewProviderError(e.llm.ModelName(), "chat", err)
	}

	answer := &domain.Answer{Text: text, Sources: sources, Prompt: prompt}
	if opts.WithHistory {
		e.memory.Append(domain.ConversationTurn{
			Question: question,
			Answer:   text,
			Sources:  sources,
			AskedAt:  e.now().UTC(),
		})
	}
	return answer, nil
}

// AskTemplate asks a canned question at its own retrieval depth.
func (e *Engine) AskTemplate(ctx context.Context, tmpl QueryTemplate) (*domain.Answer, error) {
	return e.Ask(ctx, tmpl.Question, domain.AskOptions{TopK: tmpl.TopK})
}

// History returns every recorded turn in chronological order.
func (e *Engine) History() []domain.ConversationTurn {
	return e.memory.All()
}

// ClearHistory forgets all recorded turns.
func (e *Engine) ClearHistory() {
	e.memory.Clear()
}

// ExportHistory hands all recorded turns to the exporter.
func (e *Engine) ExportHistory(ctx context.Context, exporter driven.ConversationExporter) error {
	turns := e.memory.All()
	if err := exporter.Export(ctx, turns); err != nil {
		return fmt.Errorf("export history: %w", err)
	}
	logger.Debug("Exported %d turns", len(turns))
	return nil
}

func toChatMessages(p domain.Prompt) []driven.ChatMessage {
	out := make([]driven.ChatMessage, len(p.Messages))
	for i, m := range p.Messages {
		out[i] = driven.ChatMessage{Role: m.Role.String(), Content: m.Content}
	}
	return out
}
