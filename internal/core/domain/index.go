package domain

import "time"

// IndexInfo summarises the index currently serving queries.
type IndexInfo struct {
	Chunks    int       `json:"chunks"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model"`
	Location  string    `json:"location,omitempty"`
	BuiltAt   time.Time `json:"built_at,omitempty"`
}

// IsEmpty returns true if there is nothing to search.
func (i IndexInfo) IsEmpty() bool {
	return i.Chunks == 0
}

// AskOptions configures a single question.
type AskOptions struct {
	// TopK overrides the configured number of retrieved chunks when > 0.
	TopK int

	// WithHistory includes recent conversation turns in the prompt and
	// records the new turn.
	WithHistory bool
}
