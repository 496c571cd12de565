package corpus

import (
	"context"
	_ "embed"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

//go:embed default.toml
var defaultTOML []byte

// EmbeddedLocation is reported as the location of the built-in corpus.
const EmbeddedLocation = "embedded:default.toml"

// Ensure Embedded implements the interface.
var _ driven.CorpusSource = (*Embedded)(nil)

// Embedded serves the built-in LeakProof Drive corpus.
type Embedded struct{}

// NewEmbedded creates the built-in corpus source.
func NewEmbedded() *Embedded {
	return &Embedded{}
}

// Load parses the embedded corpus. Each call returns a fresh copy.
func (s *Embedded) Load(ctx context.Context) (domain.Corpus, error) {
	if err := ctx.Err(); err != nil {
		return domain.Corpus{}, err
	}
	c, err := decodeTOML(defaultTOML, EmbeddedLocation)
	if err != nil {
		return domain.Corpus{}, err
	}
	return finish(c, EmbeddedLocation)
}

// Location identifies the embedded corpus.
func (s *Embedded) Location() string {
	return EmbeddedLocation
}
