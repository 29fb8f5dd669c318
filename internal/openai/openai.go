// Package openai generates digests through the OpenAI chat completions API or
// any endpoint compatible with it.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel = goopenai.GPT4oMini
	maxTokens    = 8192
)

type Client struct {
	client  *goopenai.Client
	model   string
	timeout time.Duration
}

// NewClient builds a client. baseURL is optional and points the client at a
// compatible server instead of api.openai.com.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if model == "" {
		model = DefaultModel
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{client: goopenai.NewClientWithConfig(cfg), model: model, timeout: timeout}, nil
}

func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: user})

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
