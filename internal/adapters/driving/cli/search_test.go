package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, "", "search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasTopKFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag, "top-k flag should exist")
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "search", "floor speed")

	require.NoError(t, err)
	assert.Contains(t, out, "[Performance] (similarity: 0.950)")
	assert.Contains(t, out, "[overview] (similarity: 0.810)")
	assert.Contains(t, out, "Floor speed 3.75 ft/min")
	assert.Equal(t, "floor speed", testEngine.lastQuery)
	assert.Equal(t, 0, testEngine.searchOpts.TopK)
}

func TestSearchCmd_PassesTopK(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "", "search", "--top-k", "5", "floor speed")

	require.NoError(t, err)
	assert.Equal(t, 5, testEngine.searchOpts.TopK)
}

func TestSearchCmd_NoResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEngine.results = []domain.ScoredChunk{}

	out, err := execute(t, "", "search", "nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "search", "--json", "floor speed")
	require.NoError(t, err)

	var results []searchResultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "performance", results[0].ID)
	assert.Equal(t, "Performance", results[0].Section)
	assert.InDelta(t, 0.95, results[0].Score, 1e-9)
	assert.Equal(t, 3, results[0].Position)
}

func TestSearchCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEngine.searchErr = &domain.DimensionMismatchError{Expected: 1536, Actual: 768}

	_, err := execute(t, "", "search", "floor speed")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "search failed")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n  b\tc", 10))
	assert.Equal(t, "abc...", snippet("abcdef", 3))
	assert.Equal(t, "", snippet("", 3))
}

func TestFormatSource_FallsBackToID(t *testing.T) {
	s := domain.ScoredChunk{Chunk: domain.Chunk{ID: "specs"}, Score: 0.5}
	assert.Contains(t, formatSource(s), "[specs]")
	assert.Contains(t, formatSource(s), "(similarity: 0.500)")
}
