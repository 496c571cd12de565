package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.ScoredChunk
	err      error
	gotQuery string
	gotOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	m.gotQuery = query
	m.gotOpts = opts
	return m.results, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer  *domain.Answer
	history []domain.ConversationTurn
	err     error
	gotOpts domain.AskOptions
}

func (m *mockChatService) Ask(_ context.Context, _ string, opts domain.AskOptions) (*domain.Answer, error) {
	m.gotOpts = opts
	return m.answer, m.err
}

func (m *mockChatService) History() []domain.ConversationTurn {
	return m.history
}

func (m *mockChatService) ClearHistory() {
	m.history = nil
}

func (m *mockChatService) ExportHistory(ctx context.Context, exporter driven.ConversationExporter) error {
	return exporter.Export(ctx, m.history)
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	info domain.IndexInfo
	err  error
}

func (m *mockIndexService) Build(_ context.Context) (domain.IndexInfo, error) {
	return m.info, m.err
}

func (m *mockIndexService) Load(_ context.Context) (domain.IndexInfo, error) {
	return m.info, m.err
}

func (m *mockIndexService) Info() domain.IndexInfo {
	return m.info
}
