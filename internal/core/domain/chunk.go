package domain

// Chunk is a single retrievable unit of corpus text.
// Chunks are created once when the corpus is built and never mutated.
type Chunk struct {
	// ID is unique within a corpus.
	ID string `json:"id" yaml:"id" toml:"id"`

	// Text is the passage content that gets embedded and shown to the model.
	Text string `json:"text" yaml:"text" toml:"text"`

	// Metadata holds descriptive attributes such as section or type.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata,omitempty"`
}

// Clone returns a deep copy of the chunk.
func (c Chunk) Clone() Chunk {
	out := Chunk{ID: c.ID, Text: c.Text}
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Section returns the "section" metadata value, or an empty string.
func (c Chunk) Section() string {
	return c.Metadata["section"]
}

// Vector is a fixed-length embedding produced by an embedding provider.
// All vectors in one index share the same length.
type Vector = []float32

// ScoredChunk pairs a chunk with its cosine similarity to a query.
type ScoredChunk struct {
	// Chunk is a copy of the matched chunk.
	Chunk Chunk `json:"chunk" yaml:"chunk"`

	// Score is the cosine similarity in [-1, 1].
	Score float64 `json:"score" yaml:"score"`

	// Position is the chunk's 0-based position in the index.
	Position int `json:"position" yaml:"position"`
}

// Clone returns a deep copy of the scored chunk.
func (s ScoredChunk) Clone() ScoredChunk {
	return ScoredChunk{Chunk: s.Chunk.Clone(), Score: s.Score, Position: s.Position}
}

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// TopK is the maximum number of results. Values outside [1, index size]
	// are clamped.
	TopK int

	// MinScore drops ranked results scoring below it when non-nil.
	MinScore *float64
}
