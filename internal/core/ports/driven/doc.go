// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Turns text into vectors (OpenAI, Ollama, TF-IDF)
//   - CorpusSource: Supplies the chunk definitions the index is built from
//   - IndexStore: Persists and restores an embedding index
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades to retrieval only:
//
//   - LLMService: Completion provider. Without it, Ask fails and only search works.
//   - PromptStore: Customisable prompt templates. Defaults are used when nil.
//   - ConversationExporter: Writes conversation history to a file.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or driving package
package driven
