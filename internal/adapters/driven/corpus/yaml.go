package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure YAMLFile implements the interface.
var _ driven.CorpusSource = (*YAMLFile)(nil)

// YAMLFile loads a corpus from a YAML document with a chunks list:
//
//	name: my-corpus
//	chunks:
//	  - id: intro
//	    text: |
//	      ...
//	    metadata:
//	      section: overview
type YAMLFile struct {
	path string
}

// NewYAMLFile creates a YAML corpus source.
func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

// Load reads and validates the corpus.
func (s *YAMLFile) Load(ctx context.Context) (domain.Corpus, error) {
	if err := ctx.Err(); err != nil {
		return domain.Corpus{}, err
	}
	data, err := readFile(s.path)
	if err != nil {
		return domain.Corpus{}, err
	}

	var c domain.Corpus
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return domain.Corpus{}, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidCorpus, s.path, err)
	}
	logger.Debug("Loaded YAML corpus %s: %d chunks", s.path, len(c.Chunks))
	return finish(c, s.path)
}

// Location returns the file path.
func (s *YAMLFile) Location() string {
	return s.path
}
