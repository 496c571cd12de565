// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Metadata keys set on every chunk.
const (
	MetaSource   = "source"
	MetaPosition = "position"
	MetaType     = "type"
)

// Processor splits document content into fixed-size chunks.
// It implements the PostProcessor interface.
//
// Sizes are counted in runes, so multi-byte characters are never split.
// Chunk IDs are name-based UUIDs of the document name and position, which
// keeps them stable across rebuilds of the same file.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkID returns the stable ID for the chunk at position in the named document.
func ChunkID(docName string, position int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docName+"#"+strconv.Itoa(position))).String()
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	content := []rune(doc.Content)
	contentLen := len(content)
	step := p.chunkSize - p.overlap

	chunks := make([]domain.Chunk, 0, contentLen/step+1)

	position := 0
	for start := 0; start < contentLen; start += step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + p.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, domain.Chunk{
			ID:   ChunkID(doc.Name, position),
			Text: string(content[start:end]),
			Metadata: map[string]string{
				MetaSource:   doc.Name,
				MetaPosition: strconv.Itoa(position),
				MetaType:     "text",
			},
		})
		position++

		if end == contentLen {
			break
		}
	}

	return chunks, nil
}
