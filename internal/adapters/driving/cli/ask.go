package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driven/export"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/services"
)

var (
	askTopK        int
	askCompare     string
	askRecommend   string
	askPerformance bool
	askExport      string
	askNoSources   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the documentation",
	Long: `Retrieves the most relevant documentation chunks, sends them with the
question to the language model and prints the answer with its sources.

Each ask is independent; use 'docqa chat' for follow-up questions.

Canned questions:
  --compare "a,b"        compare two features (5 sources)
  --recommend "use case" judge suitability for a use case (4 sources)
  --performance          list flow rates, floor speeds and unload times (6 sources)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of sources (0 = configured default)")
	askCmd.Flags().StringVar(&askCompare, "compare", "", "compare two features, separated by a comma")
	askCmd.Flags().StringVar(&askRecommend, "recommend", "", "ask whether the drive suits a use case")
	askCmd.Flags().BoolVar(&askPerformance, "performance", false, "summarise pump performance")
	askCmd.Flags().StringVar(&askExport, "export", "", "write the question and answer to a .json or .yaml file")
	askCmd.Flags().BoolVar(&askNoSources, "no-sources", false, "do not print sources")
	askCmd.MarkFlagsMutuallyExclusive("compare", "recommend", "performance")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	tmpl, err := askTemplate(args)
	if err != nil {
		return err
	}
	if askTopK > 0 {
		tmpl.TopK = askTopK
	}

	if err := requireIndex(cmd); err != nil {
		return err
	}
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	answer, err := chatService.Ask(cmd.Context(), tmpl.Question, domain.AskOptions{TopK: tmpl.TopK})
	if err != nil {
		if errors.Is(err, domain.ErrLLMUnavailable) {
			return fmt.Errorf("%w: configure one with 'docqa settings llm' or use 'docqa search'", err)
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	printAnswer(cmd, answer, !askNoSources)

	if askExport != "" {
		turn := domain.ConversationTurn{
			Question: tmpl.Question,
			Answer:   answer.Text,
			Sources:  answer.Sources,
			AskedAt:  time.Now().UTC(),
		}
		if err := exportTurns(cmd.Context(), askExport, []domain.ConversationTurn{turn}); err != nil {
			return err
		}
		cmd.Printf("Exported to %s\n", askExport)
	}
	return nil
}

// askTemplate resolves the question from the arguments or a canned template.
func askTemplate(args []string) (services.QueryTemplate, error) {
	switch {
	case askCompare != "":
		a, b, ok := strings.Cut(askCompare, ",")
		a, b = strings.TrimSpace(a), strings.TrimSpace(b)
		if !ok || a == "" || b == "" {
			return services.QueryTemplate{}, fmt.Errorf("%w: --compare wants two features separated by a comma",
				domain.ErrInvalidInput)
		}
		return services.CompareQuery(a, b), nil
	case askRecommend != "":
		return services.RecommendQuery(askRecommend), nil
	case askPerformance:
		return services.PerformanceQuery(), nil
	case len(args) == 1 && strings.TrimSpace(args[0]) != "":
		return services.QueryTemplate{Question: args[0]}, nil
	default:
		return services.QueryTemplate{}, fmt.Errorf("%w: a question is required", domain.ErrInvalidInput)
	}
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer, withSources bool) {
	cmd.Println(headingStyle.Render("Answer:"))
	cmd.Println(strings.TrimSpace(answer.Text))
	if !withSources || len(answer.Sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println(headingStyle.Render("Sources:"))
	printSources(cmd, answer.Sources, false)
}

func exportTurns(ctx context.Context, path string, turns []domain.ConversationTurn) error {
	exporter, err := export.NewFileExporter(path)
	if err != nil {
		return err
	}
	if err := exporter.Export(ctx, turns); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}
