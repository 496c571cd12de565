package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Texts found in vectors embed to that vector; anything else gets fallback.
type mockEmbeddingService struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	fallback   []float32
	embedErr   error
	batchErr   error
	dropLast   bool
	batchCalls int
	embedCalls int
}

func newMockEmbedder(vectors map[string][]float32) *mockEmbeddingService {
	return &mockEmbeddingService{vectors: vectors, fallback: []float32{0, 0}}
}

func (m *mockEmbeddingService) lookup(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return append([]float32(nil), v...)
	}
	return append([]float32(nil), m.fallback...)
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.lookup(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	result := make([][]float32, 0, len(texts))
	for _, t := range texts {
		result = append(result, m.lookup(t))
	}
	if m.dropLast && len(result) > 0 {
		result = result[:len(result)-1]
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(m.fallback)
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockPreparingEmbedder records the corpus it was fitted to and returns
// fitted, or its embedded mock when fitted is nil.
type mockPreparingEmbedder struct {
	*mockEmbeddingService
	prepared []string
	fitted   driven.EmbeddingService
	fitErr   error
}

func (m *mockPreparingEmbedder) Fit(_ context.Context, texts []string) (driven.EmbeddingService, error) {
	if m.fitErr != nil {
		return nil, m.fitErr
	}
	m.prepared = append([]string(nil), texts...)
	if m.fitted != nil {
		return m.fitted, nil
	}
	return m.mockEmbeddingService, nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu       sync.Mutex
	answer   string
	chatErr  error
	messages [][]driven.ChatMessage
	opts     []driven.ChatOptions
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messages)
	m.opts = append(m.opts, opts)
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.answer, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockCorpusSource implements driven.CorpusSource for testing.
type mockCorpusSource struct {
	corpus  domain.Corpus
	loadErr error
}

func (m *mockCorpusSource) Load(_ context.Context) (domain.Corpus, error) {
	if m.loadErr != nil {
		return domain.Corpus{}, m.loadErr
	}
	return m.corpus, nil
}

func (m *mockCorpusSource) Location() string {
	return "mock"
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	loadErr error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("prompt not found")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockExporter implements driven.ConversationExporter for testing.
type mockExporter struct {
	turns     []domain.ConversationTurn
	exportErr error
}

func (m *mockExporter) Export(_ context.Context, turns []domain.ConversationTurn) error {
	if m.exportErr != nil {
		return m.exportErr
	}
	m.turns = turns
	return nil
}

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
}

func (m *mockAIValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

// --- Test helpers ---

// testCorpus returns three chunks whose texts map to the vectors used in
// the ranking examples: a=[1,0], b=[0,1], c=[0.9,0.1].
func testCorpus() (domain.Corpus, map[string][]float32) {
	corpus := domain.Corpus{
		Name: "test",
		Chunks: []domain.Chunk{
			{ID: "a", Text: "alpha text", Metadata: map[string]string{"section": "one"}},
			{ID: "b", Text: "beta text", Metadata: map[string]string{"section": "two"}},
			{ID: "c", Text: "gamma text", Metadata: map[string]string{"section": "three"}},
		},
	}
	vectors := map[string][]float32{
		"alpha text": {1, 0},
		"beta text":  {0, 1},
		"gamma text": {0.9, 0.1},
		"question":   {1, 0},
	}
	return corpus, vectors
}
