package nl2sql

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderAuto      = "auto"
	ProviderAnthropic = "anthropic"
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1/"
	groqBaseURL      = "https://api.groq.com/openai/v1"

	anthropicModel = "claude-sonnet-4-20250514"
	groqModel      = "llama-3.3-70b-versatile"
	openAIModel    = "gpt-4o-mini"
	ollamaModel    = "llama3"
)

type SelectConfig struct {
	// Provider is auto, anthropic, groq, openai or ollama.
	Provider string
	// Model overrides the chosen provider's default model.
	Model   string
	Timeout time.Duration

	AnthropicAPIKey string
	GroqAPIKey      string
	OpenAIAPIKey    string

	AnthropicBaseURL string
	GroqBaseURL      string
	OpenAIBaseURL    string

	OllamaHost         string
	OllamaProbeTimeout time.Duration

	Examples []Example
}

// Select builds a proposer for the configured provider. In auto mode it
// prefers Anthropic, then Groq, then OpenAI (each when a key is present),
// then a reachable local Ollama server. ErrNoProviderAvailable is returned
// when nothing qualifies.
func Select(ctx context.Context, cfg SelectConfig) (Proposer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", ProviderAuto:
		return selectAuto(ctx, cfg)
	case ProviderAnthropic:
		return requireKey(cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY", func() (Proposer, error) { return anthropic(cfg) })
	case ProviderGroq:
		return requireKey(cfg.GroqAPIKey, "GROQ_API_KEY", func() (Proposer, error) { return groq(cfg) })
	case ProviderOpenAI:
		return requireKey(cfg.OpenAIAPIKey, "OPENAI_API_KEY", func() (Proposer, error) { return openAI(cfg) })
	case ProviderOllama:
		return probeOllama(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

func selectAuto(ctx context.Context, cfg SelectConfig) (Proposer, error) {
	switch {
	case strings.TrimSpace(cfg.AnthropicAPIKey) != "":
		return anthropic(cfg)
	case strings.TrimSpace(cfg.GroqAPIKey) != "":
		return groq(cfg)
	case strings.TrimSpace(cfg.OpenAIAPIKey) != "":
		return openAI(cfg)
	}
	return probeOllama(ctx, cfg)
}

func requireKey(key, name string, build func() (Proposer, error)) (Proposer, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrNoProviderAvailable, name)
	}
	return build()
}

func anthropic(cfg SelectConfig) (Proposer, error) {
	return NewOpenAIProposer(OpenAIConfig{
		Provider: ProviderAnthropic,
		BaseURL:  orDefault(cfg.AnthropicBaseURL, anthropicBaseURL),
		APIKey:   cfg.AnthropicAPIKey,
		Model:    orDefault(cfg.Model, anthropicModel),
		Timeout:  cfg.Timeout,
		Examples: cfg.Examples,
	})
}

func groq(cfg SelectConfig) (Proposer, error) {
	return NewOpenAIProposer(OpenAIConfig{
		Provider: ProviderGroq,
		BaseURL:  orDefault(cfg.GroqBaseURL, groqBaseURL),
		APIKey:   cfg.GroqAPIKey,
		Model:    orDefault(cfg.Model, groqModel),
		Timeout:  cfg.Timeout,
		JSONMode: true,
		Examples: cfg.Examples,
	})
}

func openAI(cfg SelectConfig) (Proposer, error) {
	return NewOpenAIProposer(OpenAIConfig{
		Provider: ProviderOpenAI,
		BaseURL:  cfg.OpenAIBaseURL,
		APIKey:   cfg.OpenAIAPIKey,
		Model:    orDefault(cfg.Model, openAIModel),
		Timeout:  cfg.Timeout,
		JSONMode: true,
		Examples: cfg.Examples,
	})
}

func probeOllama(ctx context.Context, cfg SelectConfig) (Proposer, error) {
	proposer, err := NewOllamaProposer(OllamaConfig{
		Host:     cfg.OllamaHost,
		Model:    orDefault(cfg.Model, ollamaModel),
		Timeout:  cfg.Timeout,
		Examples: cfg.Examples,
	})
	if err != nil {
		return nil, err
	}

	probeTimeout := cfg.OllamaProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := proposer.Ping(probeCtx); err != nil {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY, GROQ_API_KEY or OPENAI_API_KEY, or run Ollama locally: %v", ErrNoProviderAvailable, err)
	}
	return proposer, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
