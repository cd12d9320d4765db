// Package llm abstracts the text-generation providers used for narrative
// extraction and advisory synthesis. Providers are selected through
// environment-driven configuration; a deterministic mock keeps the whole
// pipeline runnable offline.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client generates text from a prompt. Implementations are safe for
// concurrent use.
type Client interface {
	// GenerateText produces a completion for the prompt. systemPrompt may
	// be empty.
	GenerateText(ctx context.Context, systemPrompt, prompt string) (string, error)

	// Name returns the provider name.
	Name() string

	// Model returns the configured model identifier.
	Model() string
}

// Config selects and configures the text provider.
type Config struct {
	// Provider is one of "groq", "openai", "anthropic", "mock".
	Provider string

	Model string

	GroqKey      string
	OpenAIKey    string
	AnthropicKey string
}

// New builds the configured client. Unknown providers are an error so a
// typo in deployment config fails fast instead of silently degrading.
func New(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "groq":
		return NewGroq(cfg.GroqKey, cfg.Model)
	case "openai":
		return NewOpenAI(cfg.OpenAIKey, cfg.Model)
	case "anthropic":
		return NewAnthropic(cfg.AnthropicKey, cfg.Model)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown TEXT_LLM_PROVIDER: %q", cfg.Provider)
	}
}
