// Package cli provides the docqa command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/corpus"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Environment variables consulted when the config file has no API key.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
)

var (
	version   = "dev"
	verbose   bool
	configDir string

	settingsService driving.SettingsService
	indexService    driving.IndexService
	searchService   driving.SearchService
	chatService     driving.ChatService

	closers []func()
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Question answering over the KEITH LeakProof Drive documentation",
	Long: `docqa answers questions about the KEITH LeakProof Drive by retrieving the
most relevant documentation chunks and asking a language model to answer
from them.

Build the index once with 'docqa index build', then use 'docqa search',
'docqa ask' or 'docqa chat'.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print retrieval pipeline details to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.docqa)")
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as chat, watch and mcp serve.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by 'docqa version'.
func SetVersion(v string) {
	version = v
}

// requireSettings opens the config store and creates the settings service.
func requireSettings() error {
	if settingsService != nil {
		return nil
	}

	//nolint:errcheck // A missing .env file is normal.
	_ = godotenv.Load()

	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settingsService = services.NewSettingsService(store, ai.NewConfigValidator())
	return nil
}

// loadSettings returns the current settings.
func loadSettings() (*domain.AppSettings, error) {
	if err := requireSettings(); err != nil {
		return nil, err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// requireEngine builds the engine from settings and exposes it through the
// driving ports. Services injected beforehand are left untouched.
func requireEngine(cmd *cobra.Command) error {
	if searchService != nil {
		return nil
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	applyEnvKeys(settings)

	result, err := ai.Initialise(settings)
	if err != nil {
		return err
	}
	closers = append(closers, result.Close)
	for _, w := range result.Warnings {
		cmd.PrintErrln(warnStyle.Render("Warning: ") + w)
	}

	source, err := corpus.New(settings.Corpus.Path)
	if err != nil {
		return err
	}

	store, err := openIndexStore(settings.Index)
	if err != nil {
		return err
	}
	closers = append(closers, func() {
		if err := store.Close(); err != nil {
			logger.Warn("close index store: %v", err)
		}
	})

	prompts, err := file.NewPromptStore(dataPath("prompts"), map[string]string{
		driven.PromptSystem:  services.DefaultSystemPrompt,
		driven.PromptContext: services.DefaultContextPrompt,
	})
	if err != nil {
		return fmt.Errorf("open prompts: %w", err)
	}

	engine := services.NewEngine(result.EmbeddingService, source, services.EngineConfigFromSettings(*settings))
	if result.LLMService != nil {
		engine.SetLLMService(result.LLMService)
	}
	engine.SetIndexStore(store)
	engine.SetPromptStore(prompts)

	indexService = engine
	searchService = engine
	chatService = engine
	return nil
}

// requireIndex makes sure a non-empty index is serving, loading the saved
// index or building a fresh one when none is usable.
func requireIndex(cmd *cobra.Command) error {
	if err := requireEngine(cmd); err != nil {
		return err
	}
	if !indexService.Info().IsEmpty() {
		return nil
	}

	_, err := indexService.Load(cmd.Context())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrIndexNotFound):
		cmd.PrintErrln(dimStyle.Render("No saved index, building..."))
	case errors.Is(err, domain.ErrCorruptIndex):
		cmd.PrintErrln(warnStyle.Render("Warning: ") + err.Error() + ", rebuilding")
	default:
		return err
	}

	if _, err := indexService.Build(cmd.Context()); err != nil {
		return err
	}
	return nil
}

// openIndexStore returns the store for the configured backend.
func openIndexStore(s domain.IndexSettings) (driven.IndexStore, error) {
	path := s.Path
	if path == "" {
		path = dataPath(filepath.Join("data", s.Backend.DefaultFileName()))
	}

	switch s.Backend {
	case domain.IndexBackendMemory:
		return memory.NewIndexStore(), nil
	case domain.IndexBackendSQLite:
		store, err := sqlite.NewStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.IndexBackendJSON, "":
		store, err := jsonfile.NewIndexStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: index backend %q", domain.ErrUnsupportedType, s.Backend)
	}
}

// dataPath places name under --config-dir. Without the flag it returns an
// empty string so each adapter uses its own default under ~/.docqa.
func dataPath(name string) string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, name)
}

// applyEnvKeys fills missing API keys from the environment.
func applyEnvKeys(s *domain.AppSettings) {
	keyFor := func(p domain.AIProvider) string {
		switch p {
		case domain.AIProviderOpenAI:
			return os.Getenv(envOpenAIKey)
		case domain.AIProviderAnthropic:
			return os.Getenv(envAnthropicKey)
		default:
			return ""
		}
	}
	if s.Embedding.APIKey == "" {
		s.Embedding.APIKey = keyFor(s.Embedding.Provider)
	}
	if s.LLM.APIKey == "" {
		s.LLM.APIKey = keyFor(s.LLM.Provider)
	}
}

func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}
