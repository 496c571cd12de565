package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// ChatService answers questions with retrieval-augmented generation.
type ChatService interface {
	// Ask retrieves sources for the question and asks the completion provider.
	Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error)

	// History returns every recorded turn in chronological order.
	History() []domain.ConversationTurn

	// ClearHistory forgets all recorded turns.
	ClearHistory()

	// ExportHistory hands all recorded turns to the exporter.
	ExportHistory(ctx context.Context, exporter driven.ConversationExporter) error
}
