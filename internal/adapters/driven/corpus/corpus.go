package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Supported corpus file extensions.
const (
	extTOML     = ".toml"
	extYAML     = ".yaml"
	extYML      = ".yml"
	extText     = ".txt"
	extMarkdown = ".md"
)

// New returns the corpus source for path, chosen by file extension.
// An empty path returns the embedded default corpus.
func New(path string) (driven.CorpusSource, error) {
	if path == "" {
		return NewEmbedded(), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case extTOML:
		return NewTOMLFile(path), nil
	case extYAML, extYML:
		return NewYAMLFile(path), nil
	case extText, extMarkdown, "":
		return NewTextFile(path, nil)
	default:
		return nil, fmt.Errorf("%w: corpus file %s (want .toml, .yaml, .yml, .txt or .md)",
			domain.ErrUnsupportedType, path)
	}
}

// readFile reads a corpus file, mapping a missing file to ErrNotFound.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: corpus file %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return data, nil
}

// finish names an unnamed corpus after its file and validates it.
func finish(c domain.Corpus, path string) (domain.Corpus, error) {
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(c.Chunks) == 0 {
		return domain.Corpus{}, fmt.Errorf("%w: %s has no chunks", domain.ErrInvalidCorpus, path)
	}
	if err := c.Validate(); err != nil {
		return domain.Corpus{}, err
	}
	return c, nil
}
