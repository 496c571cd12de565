package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/services"
)

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "ask", "What is the floor speed?")

	require.NoError(t, err)
	assert.Contains(t, out, "Answer:")
	assert.Contains(t, out, "The floor moves at 3.75 ft/min.")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "[Performance] (similarity: 0.950)")
	assert.Equal(t, "What is the floor speed?", testEngine.lastQuestion)
	assert.False(t, testEngine.askOpts.WithHistory)
}

func TestAskCmd_NoSources(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "ask", "--no-sources", "What is the floor speed?")

	require.NoError(t, err)
	assert.NotContains(t, out, "Sources:")
}

func TestAskCmd_Templates(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want services.QueryTemplate
	}{
		{
			name: "compare",
			args: []string{"ask", "--compare", "15 GPM, 20 GPM"},
			want: services.CompareQuery("15 GPM", "20 GPM"),
		},
		{
			name: "recommend",
			args: []string{"ask", "--recommend", "wood chips"},
			want: services.RecommendQuery("wood chips"),
		},
		{
			name: "performance",
			args: []string{"ask", "--performance"},
			want: services.PerformanceQuery(),
		},
		{
			name: "top-k overrides template",
			args: []string{"ask", "--performance", "--top-k", "2"},
			want: services.QueryTemplate{Question: services.PerformanceQuery().Question, TopK: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestServices()
			defer cleanup()

			_, err := execute(t, "", tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.want.Question, testEngine.lastQuestion)
			assert.Equal(t, tt.want.TopK, testEngine.askOpts.TopK)
		})
	}
}

func TestAskCmd_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no question", []string{"ask"}},
		{"blank question", []string{"ask", "   "}},
		{"compare without comma", []string{"ask", "--compare", "15 GPM"}},
		{"compare with empty side", []string{"ask", "--compare", "15 GPM,"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestServices()
			defer cleanup()

			_, err := execute(t, "", tt.args...)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Empty(t, testEngine.lastQuestion)
		})
	}
}

func TestAskCmd_TemplatesAreExclusive(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "", "ask", "--performance", "--recommend", "gravel")

	assert.Error(t, err)
}

func TestAskCmd_LLMUnavailable(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEngine.askErr = domain.ErrLLMUnavailable

	_, err := execute(t, "", "ask", "What is the floor speed?")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "docqa search")
}

func TestAskCmd_Export(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := filepath.Join(t.TempDir(), "answer.yaml")

	out, err := execute(t, "", "ask", "--export", path, "What is the floor speed?")

	require.NoError(t, err)
	assert.Contains(t, out, "Exported to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "question: What is the floor speed?")
	assert.Contains(t, string(data), "The floor moves at 3.75 ft/min.")
}

func TestAskCmd_ExportUnsupportedFormat(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := filepath.Join(t.TempDir(), "answer.csv")

	_, err := execute(t, "", "ask", "--export", path, "What is the floor speed?")

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
