package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var flowChunk = domain.ScoredChunk{
	Chunk: domain.Chunk{
		ID:       "pump_flow",
		Text:     "Flow rate 15 GPM",
		Metadata: map[string]string{"section": "Performance"},
	},
	Score:    0.95,
	Position: 3,
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{results: []domain.ScoredChunk{flowChunk}}

		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "flow", TopK: 4})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, SourceOutput{
			ID:       "pump_flow",
			Section:  "Performance",
			Text:     "Flow rate 15 GPM",
			Score:    0.95,
			Position: 3,
		}, output.Results[0])
		assert.Equal(t, "flow", mockSearch.gotQuery)
		assert.Equal(t, 4, mockSearch.gotOpts.TopK)
	})

	t.Run("zero top_k defers to settings", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Empty(t, output.Results)
		assert.Equal(t, 0, mockSearch.gotOpts.TopK)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{err: domain.ErrEmptyIndex}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		assert.ErrorIs(t, err, domain.ErrEmptyIndex)
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer and sources", func(t *testing.T) {
		chat := &mockChatService{answer: &domain.Answer{
			Text:    "It moves 15 gallons per minute.",
			Sources: []domain.ScoredChunk{flowChunk},
		}}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "flow?", TopK: 2, WithHistory: true})

		require.NoError(t, err)
		assert.Equal(t, "It moves 15 gallons per minute.", output.Answer)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "pump_flow", output.Sources[0].ID)
		assert.Equal(t, domain.AskOptions{TopK: 2, WithHistory: true}, chat.gotOpts)
	})

	t.Run("wraps provider errors", func(t *testing.T) {
		chat := &mockChatService{err: domain.NewProviderError("openai", "chat", errors.New("rate limited"))}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "flow?"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProvider)
		assert.Contains(t, err.Error(), "ask:")
	})
}
