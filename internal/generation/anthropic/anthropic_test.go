package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/codesage/internal/generation"
)

func TestGenerateTextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-haiku-4-5", body.Model)
		assert.Equal(t, 256, body.MaxTokens)
		assert.Equal(t, 0.2, body.Temperature)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "document foo", body.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"Returns one."},{"type":"text","text":" Always."}]}`))
	}))
	defer server.Close()

	var _ generation.Generator = New(server.URL, "k", nil)

	text, err := New(server.URL, "test-api-key", nil).Generate(context.Background(), generation.Request{
		Prompt:      "document foo",
		Model:       "claude-haiku-4-5",
		Temperature: 0.2,
		MaxTokens:   256,
	})
	require.NoError(t, err)
	assert.Equal(t, "Returns one. Always.", text)
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"type":"authentication_error"}}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "bad", nil).Generate(context.Background(), generation.Request{Model: "m"})
	var apiErr *generation.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "authentication_error")
}

func TestGenerateEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"   "}]}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "k", nil).Generate(context.Background(), generation.Request{Model: "m"})
	assert.ErrorIs(t, err, generation.ErrEmptyResponse)
}
