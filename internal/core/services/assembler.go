package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Default prompt templates, used when no PromptStore is set or it fails.
const (
	DefaultSystemPrompt = `You are a technical expert assistant specializing in KEITH LeakProof Drive systems.
Your role is to provide accurate, helpful information based on the technical documentation provided.

Guidelines:
- Answer questions directly and concisely
- Use specific technical details from the documentation
- If asked about specifications, provide exact numbers and units
- If information is not in the documentation, clearly state that
- Be professional and helpful
- Reference specific features or specifications when relevant
- Reference previous questions in the conversation when relevant`

	DefaultContextPrompt = `Based on the following documentation about the KEITH LeakProof Drive, please answer the user's question.

DOCUMENTATION:
%s

USER QUESTION: %s

Please provide a clear, accurate answer based on the documentation above.`
)

// Ensure ContextAssembler can receive a prompt store.
var _ driven.PromptStoreAware = (*ContextAssembler)(nil)

// ContextAssembler turns retrieved sources and history into a prompt.
// Assemble is pure apart from reading prompt templates.
type ContextAssembler struct {
	prompts driven.PromptStore
}

// NewContextAssembler creates an assembler that uses the default templates.
func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (a *ContextAssembler) SetPromptStore(store driven.PromptStore) {
	a.prompts = store
}

// Assemble builds the prompt: the system instruction, then each history turn
// as a user/assistant pair oldest first, then one user message holding the
// numbered sources and the question.
func (a *ContextAssembler) Assemble(
	question string, sources []domain.ScoredChunk, history []domain.ConversationTurn,
) domain.Prompt {
	messages := make([]domain.Message, 0, 2+2*len(history))
	messages = append(messages, domain.Message{
		Role:    domain.RoleSystem,
		Content: a.template(driven.PromptSystem, DefaultSystemPrompt),
	})

	for _, turn := range history {
		messages = append(messages,
			domain.Message{Role: domain.RoleUser, Content: turn.Question},
			domain.Message{Role: domain.RoleAssistant, Content: turn.Answer},
		)
	}

	docs := FormatSources(sources)
	content, ok := fillContext(a.template(driven.PromptContext, DefaultContextPrompt), docs, question)
	if !ok {
		logger.Warn("Context prompt must contain two %%s placeholders, using default")
		content, _ = fillContext(DefaultContextPrompt, docs, question)
	}
	messages = append(messages, domain.Message{
		Role:    domain.RoleUser,
		Content: content,
	})

	return domain.Prompt{Messages: messages}
}

// FormatSources renders sources as "[Source i]:\n<text>" blocks, numbered from
// 1 in the given order and separated by blank lines.
func FormatSources(sources []domain.ScoredChunk) string {
	blocks := make([]string, len(sources))
	for i, s := range sources {
		blocks[i] = fmt.Sprintf("[Source %d]:\n%s", i+1, s.Chunk.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// fillContext replaces the first %s in tmpl with docs and the second with
// question. Everything else, including any other %, is kept as written.
func fillContext(tmpl, docs, question string) (string, bool) {
	parts := strings.Split(tmpl, "%s")
	if len(parts) != 3 {
		return "", false
	}
	return parts[0] + docs + parts[1] + question + parts[2], true
}

func (a *ContextAssembler) template(name, fallback string) string {
	if a.prompts == nil {
		return fallback
	}
	tmpl, err := a.prompts.Load(name)
	if err != nil || strings.TrimSpace(tmpl) == "" {
		if err != nil {
			logger.Warn("Failed to load prompt %q: %v", name, err)
		}
		return fallback
	}
	return tmpl
}
