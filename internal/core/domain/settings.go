package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or completions.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderTFIDF is the offline TF-IDF embedder. Embeddings only.
	AIProviderTFIDF AIProvider = "tfidf"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderTFIDF:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderTFIDF
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderTFIDF:
		return "TF-IDF (offline)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects where the embedding index is persisted.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendJSON stores the index as a single JSON document.
	IndexBackendJSON IndexBackend = "json"

	// IndexBackendSQLite stores the index in a SQLite database.
	IndexBackendSQLite IndexBackend = "sqlite"

	// IndexBackendMemory keeps the index in process memory only.
	IndexBackendMemory IndexBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendJSON, IndexBackendSQLite, IndexBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b IndexBackend) String() string {
	return string(b)
}

// DefaultFileName returns the file name used when no index path is configured.
func (b IndexBackend) DefaultFileName() string {
	switch b {
	case IndexBackendSQLite:
		return "index.db"
	case IndexBackendJSON:
		return "index.json"
	default:
		return ""
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds completion provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature controls sampling randomness.
	Temperature float64

	// MaxTokens caps the completion length.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderTFIDF {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// Params returns the generation parameters for this configuration.
func (l LLMSettings) Params() GenerationParams {
	return GenerationParams{Temperature: l.Temperature, MaxTokens: l.MaxTokens}
}

// RetrievalSettings controls search and history behaviour.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// HistoryWindow is the number of previous turns included in a prompt.
	HistoryWindow int

	// HistoryRetention caps stored turns, evicting the oldest. Zero keeps all.
	HistoryRetention int

	// MinScore drops results below this similarity. Zero disables it.
	MinScore float64
}

// IndexSettings controls index persistence.
type IndexSettings struct {
	// Backend selects the storage format.
	Backend IndexBackend

	// Path is the index file location. Empty means the default under the
	// config directory.
	Path string
}

// CorpusSettings controls where the corpus comes from.
type CorpusSettings struct {
	// Path is a TOML, YAML or text corpus file. Empty means the built-in corpus.
	Path string
}

// RateLimitSettings throttles provider calls. Zero RequestsPerSecond disables it.
type RateLimitSettings struct {
	RequestsPerSecond float64
	Burst             int
}

// IsEnabled returns true if a rate limit should be applied.
func (r RateLimitSettings) IsEnabled() bool {
	return r.RequestsPerSecond > 0
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Index     IndexSettings
	Corpus    CorpusSettings
	RateLimit RateLimitSettings
}

// Default retrieval values.
const (
	DefaultTopK          = 3
	DefaultHistoryWindow = 3
)

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty; they come from the config file or environment.
func DefaultAppSettings() AppSettings {
	params := DefaultGenerationParams()
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       DefaultLLMModels()[AIProviderOpenAI],
			Temperature: params.Temperature,
			MaxTokens:   params.MaxTokens,
		},
		Retrieval: RetrievalSettings{
			TopK:          DefaultTopK,
			HistoryWindow: DefaultHistoryWindow,
		},
		Index: IndexSettings{
			Backend: IndexBackendJSON,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderTFIDF,
	}
}

// AllLLMProviders returns providers that support completions.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderTFIDF:  "tfidf",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
