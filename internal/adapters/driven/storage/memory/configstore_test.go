package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("llm.model", "gpt-4o-mini"))
	require.NoError(t, store.Set("llm.model", "llama3.2"))

	val, ok := store.Get("llm.model")
	assert.True(t, ok)
	assert.Equal(t, "llama3.2", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_GetString(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("str", "value")
	_ = store.Set("num", 3)

	assert.Equal(t, "value", store.GetString("str"))
	assert.Empty(t, store.GetString("num"))
	assert.Empty(t, store.GetString("missing"))
}

func TestConfigStore_GetInt(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected int
	}{
		{"int", 3, 3},
		{"int64", int64(800), 800},
		{"float64", float64(5), 5},
		{"wrong type", "three", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewConfigStore()
			_ = store.Set("retrieval.top_k", tt.value)
			assert.Equal(t, tt.expected, store.GetInt("retrieval.top_k"))
		})
	}
}

func TestConfigStore_GetFloat(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected float64
	}{
		{"float64", 0.3, 0.3},
		{"float32", float32(0.5), 0.5},
		{"int", 1, 1},
		{"int64", int64(2), 2},
		{"wrong type", "hot", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewConfigStore()
			_ = store.Set("llm.temperature", tt.value)
			assert.InDelta(t, tt.expected, store.GetFloat("llm.temperature"), 1e-9)
		})
	}

	assert.Zero(t, NewConfigStore().GetFloat("missing"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("flag", true)
	_ = store.Set("str", "true")

	assert.True(t, store.GetBool("flag"))
	assert.False(t, store.GetBool("str"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("typed", []string{"a", "b"})
	_ = store.Set("untyped", []any{"a", 1, "b"})

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("typed"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("untyped"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "key-" + string(rune('A'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt("key-"+string(rune('A'+i))))
	}
}
