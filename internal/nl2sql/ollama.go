package nl2sql

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

const DefaultOllamaHost = "http://localhost:11434"

type OllamaConfig struct {
	Host     string
	Model    string
	Timeout  time.Duration
	Examples []Example
}

type OllamaProposer struct {
	client   *ollama.Client
	model    string
	examples []Example
}

func NewOllamaProposer(cfg OllamaConfig) (*OllamaProposer, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = DefaultOllamaHost
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q", host)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "llama3"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaProposer{
		client:   ollama.NewClient(base, &http.Client{Timeout: timeout}),
		model:    model,
		examples: cfg.Examples,
	}, nil
}

func (p *OllamaProposer) Provider() string { return ProviderOllama }

func (p *OllamaProposer) Model() string { return p.model }

// Ping checks that the local server answers its model listing.
func (p *OllamaProposer) Ping(ctx context.Context) error {
	if _, err := p.client.List(ctx); err != nil {
		return fmt.Errorf("list ollama models: %w", err)
	}
	return nil
}

func (p *OllamaProposer) Propose(ctx context.Context, req Request) (Candidate, error) {
	stream := false
	chatReq := &ollama.ChatRequest{
		Model: p.model,
		Messages: []ollama.Message{
			{Role: "system", Content: SystemPrompt(req, p.examples)},
			{Role: "user", Content: strings.TrimSpace(req.Question)},
		},
		Stream:  &stream,
		Format:  json.RawMessage(`"json"`),
		Options: map[string]any{"temperature": 0},
	}

	var content strings.Builder
	err := p.client.Chat(ctx, chatReq, func(resp ollama.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return Candidate{}, fmt.Errorf("request ollama chat: %w", err)
	}
	return ParseCandidate(content.String())
}
