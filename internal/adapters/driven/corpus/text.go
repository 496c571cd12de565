package corpus

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// Ensure TextFile implements the interface.
var _ driven.CorpusSource = (*TextFile)(nil)

// TextFile loads a plain-text or markdown file and splits it into chunks
// with the post-processing pipeline. Chunk IDs are stable for a given file
// name and content layout.
type TextFile struct {
	path     string
	pipeline driven.PostProcessorPipeline
}

// NewTextFile creates a text corpus source. A nil pipeline uses the
// standard chunking pipeline with default sizes.
func NewTextFile(path string, pipeline driven.PostProcessorPipeline) (*TextFile, error) {
	if pipeline == nil {
		p, err := postprocessors.NewTextPipeline(nil)
		if err != nil {
			return nil, fmt.Errorf("build text pipeline: %w", err)
		}
		pipeline = p
	}
	return &TextFile{path: path, pipeline: pipeline}, nil
}

// Load reads the file and chunks it.
func (s *TextFile) Load(ctx context.Context) (domain.Corpus, error) {
	data, err := readFile(s.path)
	if err != nil {
		return domain.Corpus{}, err
	}

	doc := &domain.Document{Name: filepath.Base(s.path), Content: string(data)}
	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return domain.Corpus{}, fmt.Errorf("chunk %s: %w", s.path, err)
	}
	logger.Debug("Chunked text corpus %s: %d bytes into %d chunks", s.path, len(data), len(chunks))

	return finish(domain.Corpus{Chunks: chunks}, s.path)
}

// Location returns the file path.
func (s *TextFile) Location() string {
	return s.path
}
