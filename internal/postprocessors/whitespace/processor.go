// Package whitespace provides a processor that normalises chunk whitespace.
package whitespace

import (
	"context"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Processor collapses runs of whitespace inside each chunk and drops chunks
// that end up empty. Paragraph breaks are kept as a single blank line.
type Processor struct{}

// New creates a whitespace processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "whitespace"
}

// Process normalises the chunks produced by earlier processors.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := chunks[:0:0]
	for _, c := range chunks {
		c.Text = Normalise(c.Text)
		if c.Text == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Normalise trims text, collapses spaces within lines and squeezes blank
// lines between paragraphs down to one.
func Normalise(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if len(out) > 0 {
				blank = true
			}
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
