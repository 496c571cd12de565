package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})

	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
}

func TestLLMService_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 3)
		assert.Equal(t, "assistant", req.Messages[1].Role)
		require.NotNil(t, req.Options)
		assert.Equal(t, 800, req.Options.NumPredict)
		require.NotNil(t, req.Options.Temperature)
		assert.InDelta(t, 0.0, *req.Options.Temperature, 1e-9)

		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "Six minutes."},
			Done:    true,
		})
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
		{Role: "user", Content: "q2"},
	}, driven.ChatOptions{MaxTokens: 800, Temperature: 0})

	require.NoError(t, err)
	assert.Equal(t, "Six minutes.", out)
}

func TestLLMService_Errors(t *testing.T) {
	var crashed atomic.Bool
	crashed.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if crashed.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("model crashed"))
			return
		}
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorContains(t, err, "status 500")
	assert.ErrorContains(t, err, "model crashed")

	crashed.Store(false)
	_, err = svc.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorContains(t, err, "decode response")
}

func TestLLMService_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	assert.ErrorContains(t, svc.Ping(context.Background()), "status 503")
	assert.NoError(t, svc.Close())
}
