package domain

import "fmt"

// Corpus is an ordered definition of the chunks a knowledge base is built from.
type Corpus struct {
	// Name identifies the corpus in logs and exports.
	Name string `json:"name" yaml:"name" toml:"name"`

	// Chunks are kept in definition order.
	Chunks []Chunk `json:"chunks" yaml:"chunks" toml:"chunks"`
}

// Validate checks that every chunk has a unique, non-empty ID and non-empty text.
func (c Corpus) Validate() error {
	seen := make(map[string]int, len(c.Chunks))
	for i, ch := range c.Chunks {
		if ch.ID == "" {
			return fmt.Errorf("%w: chunk %d has no id", ErrInvalidCorpus, i)
		}
		if ch.Text == "" {
			return fmt.Errorf("%w: chunk %q has no text", ErrInvalidCorpus, ch.ID)
		}
		if prev, ok := seen[ch.ID]; ok {
			return fmt.Errorf("%w: duplicate chunk id %q at %d and %d", ErrInvalidCorpus, ch.ID, prev, i)
		}
		seen[ch.ID] = i
	}
	return nil
}

// Document is raw text that a post-processing pipeline turns into chunks.
type Document struct {
	// Name identifies the document; chunk IDs are derived from it.
	Name string

	// Content is the full document text.
	Content string
}
