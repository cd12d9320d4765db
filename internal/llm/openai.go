package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGroqModel   = "llama-3.3-70b-versatile"

	groqBaseURL = "https://api.groq.com/openai/v1"
)

// OpenAICompatClient generates text through an OpenAI-compatible chat
// completions endpoint. Groq exposes the same wire protocol, so both
// providers share this implementation with different base URLs.
type OpenAICompatClient struct {
	llm      *openai.LLM
	provider string
	model    string
}

// NewOpenAI creates a client against the OpenAI API.
func NewOpenAI(apiKey, model string) (*OpenAICompatClient, error) {
	if model == "" {
		model = defaultOpenAIModel
	}
	return newCompat("openai", apiKey, model, "")
}

// NewGroq creates a client against Groq's OpenAI-compatible endpoint.
func NewGroq(apiKey, model string) (*OpenAICompatClient, error) {
	if model == "" {
		model = defaultGroqModel
	}
	return newCompat("groq", apiKey, model, groqBaseURL)
}

func newCompat(provider, apiKey, model, baseURL string) (*OpenAICompatClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s provider requires an API key", provider)
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return &OpenAICompatClient{llm: client, provider: provider, model: model}, nil
}

// GenerateText runs a single-turn chat completion.
func (c *OpenAICompatClient) GenerateText(ctx context.Context, systemPrompt, prompt string) (string, error) {
	var messages []llms.MessageContent
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%s API call failed: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.provider)
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// Name returns the provider name.
func (c *OpenAICompatClient) Name() string { return c.provider }

// Model returns the configured model.
func (c *OpenAICompatClient) Model() string { return c.model }
