// Package genai wraps the OpenAI chat completion API behind a small client
// used for intent classification and email processing.
package genai

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// Defaults tuned for short, deterministic assistant output.
const (
	DefaultModel       = openai.ChatModelGPT4oMini
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.3
	DefaultTopP        = 0.2
)

// ClientInterface defines the generation operations the assistant depends
// on. Tests substitute a mock; production code uses Client.
type ClientInterface interface {
	SendPrompt(ctx context.Context, prompt string) (string, error)
	GenerateWithMessages(ctx context.Context, system string, history []models.ConversationMessage) (string, error)
}

// Client calls the OpenAI chat completion endpoint.
type Client struct {
	api         openai.Client
	model       openai.ChatModel
	maxTokens   int64
	temperature float64
	topP        float64
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = openai.ChatModel(model) }
}

// WithMaxTokens overrides the completion token limit.
func WithMaxTokens(n int64) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithSampling overrides temperature and top_p.
func WithSampling(temperature, topP float64) Option {
	return func(c *Client) {
		c.temperature = temperature
		c.topP = topP
	}
}

// NewClient initializes a client from the OPENAI_API_KEY environment
// variable.
func NewClient(opts ...Option) (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	return NewClientWithKey(apiKey, opts...), nil
}

// NewClientWithKey initializes a client with an explicit API key.
func NewClientWithKey(apiKey string, opts ...Option) *Client {
	c := &Client{
		api:         openai.NewClient(option.WithAPIKey(apiKey)),
		model:       DefaultModel,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		topP:        DefaultTopP,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendPrompt sends a single user prompt and returns the completion text.
func (c *Client) SendPrompt(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(prompt),
	})
}

// GenerateWithMessages sends the conversation history under a system prompt
// and returns the completion text.
func (c *Client) GenerateWithMessages(ctx context.Context, system string, history []models.ConversationMessage) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	for _, m := range history {
		switch m.Role {
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return c.complete(ctx, msgs)
}

func (c *Client) complete(ctx context.Context, msgs []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    msgs,
		Model:       c.model,
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
		TopP:        openai.Float(c.topP),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
