package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question or keywords to look up in the documentation"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default from settings)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SourceOutput `json:"results"`
	Count   int            `json:"count"`
}

// SourceOutput is one retrieved passage.
type SourceOutput struct {
	ID       string  `json:"id"`
	Section  string  `json:"section,omitempty"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Position int     `json:"position"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question    string `json:"question" jsonschema:"the question to answer from the documentation"`
	TopK        int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default from settings)"`
	WithHistory bool   `json:"with_history,omitempty" jsonschema:"include and record conversation history"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the documentation passages most similar to a query",
	}, s.handleSearch)

	if s.ports.Chat != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using retrieved documentation passages",
		}, s.handleAsk)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Search.Search(ctx, input.Query, domain.SearchOptions{TopK: input.TopK})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: toSourceOutputs(results),
		Count:   len(results),
	}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Chat.Ask(ctx, input.Question, domain.AskOptions{
		TopK:        input.TopK,
		WithHistory: input.WithHistory,
	})
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("ask: %w", err)
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Sources: toSourceOutputs(answer.Sources),
	}, nil
}

func toSourceOutputs(results []domain.ScoredChunk) []SourceOutput {
	out := make([]SourceOutput, len(results))
	for i, r := range results {
		out[i] = SourceOutput{
			ID:       r.Chunk.ID,
			Section:  r.Chunk.Section(),
			Text:     r.Chunk.Text,
			Score:    r.Score,
			Position: r.Position,
		}
	}
	return out
}
