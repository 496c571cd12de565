package services

import (
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ConversationMemory records completed turns in the order they happened.
// Storage is unbounded unless a retention limit is set; Recent always
// applies the window.
type ConversationMemory struct {
	mu        sync.Mutex
	turns     []domain.ConversationTurn
	window    int
	retention int
}

// MemoryOption configures a ConversationMemory.
type MemoryOption func(*ConversationMemory)

// WithRetention keeps at most n turns, evicting the oldest first.
// n <= 0 means unbounded.
func WithRetention(n int) MemoryOption {
	return func(m *ConversationMemory) {
		if n > 0 {
			m.retention = n
		}
	}
}

// NewConversationMemory creates an empty memory. A window <= 0 uses
// domain.DefaultHistoryWindow.
func NewConversationMemory(window int, opts ...MemoryOption) *ConversationMemory {
	if window <= 0 {
		window = domain.DefaultHistoryWindow
	}
	m := &ConversationMemory{window: window}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Append records a turn. The turn is copied.
func (m *ConversationMemory) Append(turn domain.ConversationTurn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn.Clone())
	if m.retention > 0 && len(m.turns) > m.retention {
		evicted := len(m.turns) - m.retention
		m.turns = append([]domain.ConversationTurn(nil), m.turns[evicted:]...)
	}
}

// Recent returns at most n of the most recent turns, oldest first.
// n <= 0 uses the memory's window.
func (m *ConversationMemory) Recent(n int) []domain.ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 {
		n = m.window
	}
	start := len(m.turns) - n
	if start < 0 {
		start = 0
	}
	return cloneTurns(m.turns[start:])
}

// All returns every turn, oldest first.
func (m *ConversationMemory) All() []domain.ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneTurns(m.turns)
}

// Len returns the number of recorded turns.
func (m *ConversationMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// Clear forgets all turns.
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

// Window returns the default number of turns returned by Recent.
func (m *ConversationMemory) Window() int {
	return m.window
}

func cloneTurns(turns []domain.ConversationTurn) []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, len(turns))
	for i, t := range turns {
		out[i] = t.Clone()
	}
	return out
}
