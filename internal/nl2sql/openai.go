package nl2sql

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig covers any OpenAI compatible chat endpoint. Anthropic and Groq
// are reached this way too.
type OpenAIConfig struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	JSONMode    bool
	Examples    []Example
}

type OpenAIProposer struct {
	client      *openai.Client
	provider    string
	model       string
	temperature float32
	maxTokens   int
	jsonMode    bool
	examples    []Example
}

func NewOpenAIProposer(cfg OpenAIConfig) (*OpenAIProposer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" {
		provider = ProviderOpenAI
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	config := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProposer{
		client:      openai.NewClientWithConfig(config),
		provider:    provider,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		jsonMode:    cfg.JSONMode,
		examples:    cfg.Examples,
	}, nil
}

func (p *OpenAIProposer) Provider() string { return p.provider }

func (p *OpenAIProposer) Model() string { return p.model }

func (p *OpenAIProposer) Propose(ctx context.Context, req Request) (Candidate, error) {
	temperature := p.temperature
	if temperature == 0 {
		// go-openai drops a zero temperature from the payload.
		temperature = math.SmallestNonzeroFloat32
	}
	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(req, p.examples)},
			{Role: openai.ChatMessageRoleUser, Content: strings.TrimSpace(req.Question)},
		},
		Temperature: temperature,
		MaxTokens:   p.maxTokens,
	}
	if p.jsonMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Candidate{}, fmt.Errorf("request %s chat completion: %w", p.provider, err)
	}
	if len(resp.Choices) == 0 {
		return Candidate{}, fmt.Errorf("%w: empty chat completion choices", ErrMalformedResponse)
	}
	return ParseCandidate(resp.Choices[0].Message.Content)
}
