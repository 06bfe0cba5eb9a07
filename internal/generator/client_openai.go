package generator

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Client on any OpenAI-compatible chat-completions
// endpoint. Groq exposes that surface, so the same client serves both the
// "openai" and "groq" providers; only base URL and model differ.
type OpenAIClient struct {
	name  string
	model string
	opts  []option.RequestOption
}

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	defaultGroqModel = "llama-3.1-8b-instant"
	defaultGPTModel  = "gpt-4o-mini"
)

// NewOpenAIClient creates a client for api.openai.com.
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if model == "" {
		model = defaultGPTModel
	}
	return newOpenAICompatible("openai", apiKey, "", model)
}

// NewGroqClient creates a client for Groq's OpenAI-compatible API.
func NewGroqClient(apiKey, model string) (*OpenAIClient, error) {
	if model == "" {
		model = defaultGroqModel
	}
	return newOpenAICompatible("groq", apiKey, groqBaseURL, model)
}

func newOpenAICompatible(name, apiKey, baseURL, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{name: name, model: model, opts: opts}, nil
}

func (c *OpenAIClient) Name() string { return c.name }

// CompleteWithSystem sends a prompt with a system message.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	client := openai.NewClient(c.opts...)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(systemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(userPrompt))

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no completion", c.name)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
