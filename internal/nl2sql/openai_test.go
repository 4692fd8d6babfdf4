package nl2sql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProposerSendsPromptAndParsesReply(t *testing.T) {
	var captured struct {
		Model          string `json:"model"`
		ResponseFormat *struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"is_answerable\": true, \"sql\": \"SELECT COUNT(*) AS total_customers FROM customers\", \"explanation\": \"\"}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	proposer, err := NewOpenAIProposer(OpenAIConfig{
		Provider: ProviderGroq,
		BaseURL:  server.URL + "/v1",
		APIKey:   "test-key",
		Model:    "llama-test",
		JSONMode: true,
	})
	require.NoError(t, err)

	candidate, err := proposer.Propose(context.Background(), Request{
		Question:      "How many customers are there?",
		SchemaContext: "### Table: customers\n    - id: INTEGER (PRIMARY KEY)",
		Dialect:       "SQLite",
	})
	require.NoError(t, err)
	assert.True(t, candidate.IsAnswerable)
	assert.Equal(t, "SELECT COUNT(*) AS total_customers FROM customers", candidate.SQL)

	assert.Equal(t, "llama-test", captured.Model)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "### Table: customers")
	assert.Equal(t, "How many customers are there?", captured.Messages[1].Content)
	assert.Equal(t, ProviderGroq, proposer.Provider())
}

func TestOpenAIProposerSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	proposer, err := NewOpenAIProposer(OpenAIConfig{BaseURL: server.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = proposer.Propose(context.Background(), Request{Question: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai")
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestOpenAIProposerRequiresKey(t *testing.T) {
	_, err := NewOpenAIProposer(OpenAIConfig{})
	require.Error(t, err)
}

func TestOllamaProposer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3"}]}`))
		case "/api/chat":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "llama3", body["model"])
			assert.Equal(t, "json", body["format"])
			_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"{\"is_answerable\": false, \"sql\": \"\", \"explanation\": \"no weather data\"}"},"done":true}` + "\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	proposer, err := NewOllamaProposer(OllamaConfig{Host: server.URL})
	require.NoError(t, err)
	require.NoError(t, proposer.Ping(context.Background()))

	candidate, err := proposer.Propose(context.Background(), Request{Question: "What is the weather like on Mars?"})
	require.NoError(t, err)
	assert.False(t, candidate.IsAnswerable)
	assert.Equal(t, "no weather data", candidate.Explanation)
}

func TestSelectAutoPrefersAnthropicThenGroqThenOpenAI(t *testing.T) {
	ctx := context.Background()

	p, err := Select(ctx, SelectConfig{AnthropicAPIKey: "a", GroqAPIKey: "g", OpenAIAPIKey: "o"})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, p.Provider())
	assert.Equal(t, anthropicModel, p.Model())

	p, err = Select(ctx, SelectConfig{GroqAPIKey: "g", OpenAIAPIKey: "o"})
	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, p.Provider())

	p, err = Select(ctx, SelectConfig{OpenAIAPIKey: "o", Model: "gpt-custom"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p.Provider())
	assert.Equal(t, "gpt-custom", p.Model())
}

func TestSelectFallsBackToOllama(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	p, err := Select(context.Background(), SelectConfig{OllamaHost: server.URL})
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, p.Provider())
}

func TestSelectNoProviderAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	server.Close()

	_, err := Select(context.Background(), SelectConfig{OllamaHost: server.URL})
	require.ErrorIs(t, err, ErrNoProviderAvailable)
}

func TestSelectExplicitProviderNeedsKey(t *testing.T) {
	_, err := Select(context.Background(), SelectConfig{Provider: "groq"})
	require.ErrorIs(t, err, ErrNoProviderAvailable)
	assert.True(t, strings.Contains(err.Error(), "GROQ_API_KEY"))

	_, err = Select(context.Background(), SelectConfig{Provider: "watson"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoProviderAvailable)
}
