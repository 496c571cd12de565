package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func turn(i int) domain.ConversationTurn {
	return domain.ConversationTurn{
		Question: fmt.Sprintf("q%d", i),
		Answer:   fmt.Sprintf("a%d", i),
	}
}

func questions(turns []domain.ConversationTurn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Question
	}
	return out
}

func TestConversationMemory_HistoryWindow(t *testing.T) {
	m := NewConversationMemory(3)
	for i := 1; i <= 5; i++ {
		m.Append(turn(i))
	}

	assert.Equal(t, []string{"q3", "q4", "q5"}, questions(m.Recent(3)))
	assert.Equal(t, []string{"q1", "q2", "q3", "q4", "q5"}, questions(m.Recent(10)))
	assert.Equal(t, 5, m.Len())
}

func TestConversationMemory_RecentNeverExceedsStored(t *testing.T) {
	m := NewConversationMemory(3)
	m.Append(turn(1))
	m.Append(turn(2))

	assert.Equal(t, []string{"q1", "q2"}, questions(m.Recent(10)))
	assert.Empty(t, NewConversationMemory(3).Recent(3))
}

func TestConversationMemory_DefaultWindow(t *testing.T) {
	m := NewConversationMemory(0)
	assert.Equal(t, domain.DefaultHistoryWindow, m.Window())

	for i := 1; i <= 5; i++ {
		m.Append(turn(i))
	}
	assert.Equal(t, []string{"q3", "q4", "q5"}, questions(m.Recent(0)))
}

func TestConversationMemory_Retention(t *testing.T) {
	m := NewConversationMemory(3, WithRetention(4))
	for i := 1; i <= 6; i++ {
		m.Append(turn(i))
	}

	assert.Equal(t, 4, m.Len())
	assert.Equal(t, []string{"q3", "q4", "q5", "q6"}, questions(m.All()))
}

func TestConversationMemory_Clear(t *testing.T) {
	m := NewConversationMemory(3)
	m.Append(turn(1))
	m.Clear()

	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Recent(3))
}

func TestConversationMemory_SourcesAreSnapshots(t *testing.T) {
	m := NewConversationMemory(3)
	sources := []domain.ScoredChunk{{Chunk: domain.Chunk{ID: "c", Metadata: map[string]string{"k": "v"}}}}
	m.Append(domain.ConversationTurn{Question: "q", Answer: "a", Sources: sources})

	sources[0].Chunk.Metadata["k"] = "changed"
	got := m.All()
	require.Len(t, got, 1)
	assert.Equal(t, "v", got[0].Sources[0].Chunk.Metadata["k"])

	got[0].Question = "mutated"
	assert.Equal(t, "q", m.All()[0].Question)
}

func TestConversationMemory_ConcurrentAppend(t *testing.T) {
	m := NewConversationMemory(3)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Append(turn(i))
			_ = m.Recent(3)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, m.Len())
}
