package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ConversationExporter writes a conversation history somewhere durable.
type ConversationExporter interface {
	// Export writes all turns in chronological order.
	Export(ctx context.Context, turns []domain.ConversationTurn) error
}
