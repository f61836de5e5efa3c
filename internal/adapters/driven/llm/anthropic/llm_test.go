package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.ErrorContains(t, err, "API key is required")

	s, err := NewLLMService(Config{APIKey: "k", BaseURL: "https://example.test/"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.test", s.baseURL)
	assert.Equal(t, DefaultModel, s.ModelName())
}

func TestLLMService_Generate(t *testing.T) {
	var req messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Часть 1. "},{"type":"text","text":"Часть 2."}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	reply, err := s.Generate(context.Background(), "промпт", driven.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Часть 1. Часть 2.", reply)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Equal(t, []message{{Role: "user", Content: "промпт"}}, req.Messages)
}

func TestLLMService_Generate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens too large"}}`))
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = s.Generate(context.Background(), "p", driven.GenerateOptions{MaxTokens: 1 << 20})

	assert.ErrorContains(t, err, "invalid_request_error: max_tokens too large")
}

func TestLLMService_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
}
