package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the documentation",
	Long: `Embeds the query and ranks every documentation chunk by cosine similarity.
No language model is involved; use 'docqa ask' for an answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (0 = configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if err := requireIndex(cmd); err != nil {
		return err
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.Search(cmd.Context(), query, domain.SearchOptions{TopK: searchTopK})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	printSources(cmd, results, true)
	return nil
}

// searchResultJSON is the JSON shape of one search result.
type searchResultJSON struct {
	ID       string            `json:"id"`
	Section  string            `json:"section,omitempty"`
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Position int               `json:"position"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.ScoredChunk) error {
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{
			ID:       r.Chunk.ID,
			Section:  r.Chunk.Section(),
			Text:     r.Chunk.Text,
			Score:    r.Score,
			Position: r.Position,
			Metadata: r.Chunk.Metadata,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// printSources prints one line per source in rank order, optionally
// followed by the chunk text.
func printSources(cmd *cobra.Command, sources []domain.ScoredChunk, withText bool) {
	for i, s := range sources {
		cmd.Printf("  %d. %s\n", i+1, formatSource(s))
		if withText {
			cmd.Printf("     %s\n", dimStyle.Render(snippet(s.Chunk.Text, 160)))
		}
	}
}

// formatSource renders a source as "[section] (similarity: 0.912)".
func formatSource(s domain.ScoredChunk) string {
	section := s.Chunk.Section()
	if section == "" {
		section = s.Chunk.ID
	}
	return sourceStyle.Render("["+section+"]") + fmt.Sprintf(" (similarity: %.3f)", s.Score)
}

// snippet collapses whitespace and truncates text to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
