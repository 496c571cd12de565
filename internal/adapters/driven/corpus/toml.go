package corpus

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure TOMLFile implements the interface.
var _ driven.CorpusSource = (*TOMLFile)(nil)

// TOMLFile loads a corpus from a TOML file of [[chunks]] tables:
//
//	name = "my-corpus"
//
//	[[chunks]]
//	id = "intro"
//	text = """..."""
//
//	[chunks.metadata]
//	section = "overview"
type TOMLFile struct {
	path string
}

// NewTOMLFile creates a TOML corpus source.
func NewTOMLFile(path string) *TOMLFile {
	return &TOMLFile{path: path}
}

// Load reads and validates the corpus.
func (s *TOMLFile) Load(ctx context.Context) (domain.Corpus, error) {
	if err := ctx.Err(); err != nil {
		return domain.Corpus{}, err
	}
	data, err := readFile(s.path)
	if err != nil {
		return domain.Corpus{}, err
	}
	c, err := decodeTOML(data, s.path)
	if err != nil {
		return domain.Corpus{}, err
	}
	logger.Debug("Loaded TOML corpus %s: %d chunks", s.path, len(c.Chunks))
	return finish(c, s.path)
}

// Location returns the file path.
func (s *TOMLFile) Location() string {
	return s.path
}

func decodeTOML(data []byte, name string) (domain.Corpus, error) {
	var c domain.Corpus
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return domain.Corpus{}, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidCorpus, name, err)
	}
	return c, nil
}
