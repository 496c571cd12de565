package domain

import "time"

// ConversationTurn is one completed question and answer with the
// sources that were shown to the model.
type ConversationTurn struct {
	Question string        `json:"question" yaml:"question"`
	Answer   string        `json:"answer" yaml:"answer"`
	Sources  []ScoredChunk `json:"sources" yaml:"sources"`
	AskedAt  time.Time     `json:"asked_at" yaml:"asked_at"`
}

// Clone returns a deep copy of the turn.
func (t ConversationTurn) Clone() ConversationTurn {
	out := ConversationTurn{Question: t.Question, Answer: t.Answer, AskedAt: t.AskedAt}
	if t.Sources != nil {
		out.Sources = make([]ScoredChunk, len(t.Sources))
		for i, s := range t.Sources {
			out.Sources[i] = s.Clone()
		}
	}
	return out
}

// Answer is the result of a retrieval-augmented question.
type Answer struct {
	// Text is the completion returned by the model.
	Text string

	// Sources are the retrieved chunks in rank order.
	Sources []ScoredChunk

	// Prompt is the exact prompt sent to the model.
	Prompt Prompt
}
