package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, retrieval and index options.

Use subcommands to configure specific settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by key.

Keys:
  embedding.provider   ollama, openai or tfidf
  embedding.model      embedding model name
  embedding.base_url   API endpoint override
  llm.provider         ollama, openai or anthropic
  llm.model            completion model name
  llm.base_url         API endpoint override
  llm.temperature      sampling temperature
  llm.max_tokens       completion length cap
  retrieval.top_k      sources per question
  retrieval.history_window     previous turns sent with a chat question
  retrieval.history_retention  stored turns (0 = all)
  retrieval.min_score  drop sources below this similarity (0 = off)
  index.backend        json, sqlite or memory
  index.path           index file location
  corpus.path          .toml, .yaml, .txt or .md corpus file (empty = built-in)
  ratelimit.rps        provider requests per second (0 = off)
  ratelimit.burst      provider request burst

API keys are set with 'docqa settings embedding' or 'docqa settings llm'.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index and search the documentation.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to answer questions.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(headingStyle.Render("Current Settings"))
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", describeAPIKey(settings.Embedding.APIKey, settings.Embedding.Provider))
	}
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", describeAPIKey(settings.LLM.APIKey, settings.LLM.Provider))
	}
	cmd.Printf("  Temperature: %g\n", settings.LLM.Temperature)
	cmd.Printf("  Max Tokens: %d\n", settings.LLM.MaxTokens)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  History Window: %d\n", settings.Retrieval.HistoryWindow)
	if settings.Retrieval.HistoryRetention > 0 {
		cmd.Printf("  History Retention: %d\n", settings.Retrieval.HistoryRetention)
	}
	if settings.Retrieval.MinScore != 0 {
		cmd.Printf("  Min Score: %g\n", settings.Retrieval.MinScore)
	}
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Backend: %s\n", settings.Index.Backend)
	if settings.Index.Path != "" {
		cmd.Printf("  Path: %s\n", settings.Index.Path)
	}
	corpusPath := settings.Corpus.Path
	if corpusPath == "" {
		corpusPath = "(built-in)"
	}
	cmd.Printf("  Corpus: %s\n", corpusPath)
	cmd.Println()

	if settings.RateLimit.IsEnabled() {
		cmd.Println("[Rate Limit]")
		cmd.Printf("  Requests/s: %g\n", settings.RateLimit.RequestsPerSecond)
		cmd.Printf("  Burst: %d\n", settings.RateLimit.Burst)
		cmd.Println()
	}

	withEnv := *settings
	applyEnvKeys(&withEnv)
	err = settingsService.Validate()
	if errors.Is(err, domain.ErrEmbeddingUnavailable) && withEnv.Embedding.IsConfigured() {
		err = nil
	}
	if err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docqa settings embedding' or 'docqa settings llm' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	key, value := args[0], strings.TrimSpace(args[1])
	if err := applySetting(settings, key, value); err != nil {
		return err
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

// applySetting parses value and stores it in the field named by key.
//
//nolint:gocyclo // One case per key.
func applySetting(s *domain.AppSettings, key, value string) error {
	var err error
	switch key {
	case "embedding.provider":
		p := domain.AIProvider(value)
		if !p.IsValid() || p == domain.AIProviderAnthropic {
			return fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidInput, value)
		}
		s.Embedding.Provider = p
		s.Embedding.Model = domain.DefaultEmbeddingModels()[p]
	case "embedding.model":
		s.Embedding.Model = value
	case "embedding.base_url":
		s.Embedding.BaseURL = value
	case "llm.provider":
		p := domain.AIProvider(value)
		if !p.IsValid() || p == domain.AIProviderTFIDF {
			return fmt.Errorf("%w: LLM provider %q", domain.ErrInvalidInput, value)
		}
		s.LLM.Provider = p
		s.LLM.Model = domain.DefaultLLMModels()[p]
	case "llm.model":
		s.LLM.Model = value
	case "llm.base_url":
		s.LLM.BaseURL = value
	case "llm.temperature":
		s.LLM.Temperature, err = parseFloatSetting(key, value)
	case "llm.max_tokens":
		s.LLM.MaxTokens, err = parseIntSetting(key, value, 1)
	case "retrieval.top_k":
		s.Retrieval.TopK, err = parseIntSetting(key, value, 1)
	case "retrieval.history_window":
		s.Retrieval.HistoryWindow, err = parseIntSetting(key, value, 0)
	case "retrieval.history_retention":
		s.Retrieval.HistoryRetention, err = parseIntSetting(key, value, 0)
	case "retrieval.min_score":
		s.Retrieval.MinScore, err = parseFloatSetting(key, value)
	case "index.backend":
		b := domain.IndexBackend(value)
		if !b.IsValid() {
			return fmt.Errorf("%w: index backend %q", domain.ErrInvalidInput, value)
		}
		s.Index.Backend = b
	case "index.path":
		s.Index.Path = value
	case "corpus.path":
		s.Corpus.Path = value
	case "ratelimit.rps":
		s.RateLimit.RequestsPerSecond, err = parseFloatSetting(key, value)
	case "ratelimit.burst":
		s.RateLimit.Burst, err = parseIntSetting(key, value, 1)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return err
}

func parseIntSetting(key, value string, minVal int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < minVal {
		return 0, fmt.Errorf("%w: %s must be an integer >= %d", domain.ErrInvalidInput, key, minVal)
	}
	return n, nil
}

func parseFloatSetting(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
	}
	return f, nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	cmd.Println("Run 'docqa index build' to re-embed the corpus with the new provider.")
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when stdin is a terminal,
// falling back to reader otherwise.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func describeAPIKey(key string, provider domain.AIProvider) string {
	if key != "" {
		return maskAPIKey(key)
	}
	env := envOpenAIKey
	if provider == domain.AIProviderAnthropic {
		env = envAnthropicKey
	}
	if os.Getenv(env) != "" {
		return "(from " + env + ")"
	}
	return "(not set)"
}
