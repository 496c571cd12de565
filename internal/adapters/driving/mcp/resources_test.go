package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleIndexResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil index service is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		_, err = server.handleIndexResource(ctx, makeReadResourceRequest("docqa://index"))
		assert.Error(t, err)
	})

	t.Run("describes the index", func(t *testing.T) {
		index := &mockIndexService{info: domain.IndexInfo{
			Chunks:    13,
			Dimension: 1536,
			Model:     "text-embedding-3-small",
			BuiltAt:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		}}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Index: index})
		require.NoError(t, err)

		result, err := server.handleIndexResource(ctx, makeReadResourceRequest("docqa://index"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"chunks": 13`)
		assert.Contains(t, result.Contents[0].Text, `"dimension": 1536`)
	})
}

func TestServer_handleHistoryResource(t *testing.T) {
	ctx := context.Background()

	t.Run("no chat service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest("docqa://history"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns recorded turns", func(t *testing.T) {
		chat := &mockChatService{history: []domain.ConversationTurn{
			{Question: "What is the floor speed?", Answer: "3.75 ft/min"},
		}}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Chat: chat})
		require.NoError(t, err)

		result, err := server.handleHistoryResource(ctx, makeReadResourceRequest("docqa://history"))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, "What is the floor speed?")
		assert.Contains(t, result.Contents[0].Text, "3.75 ft/min")
	})
}
