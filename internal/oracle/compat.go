package oracle

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Compat talks to any OpenAI-compatible endpoint (OpenRouter, a local
// llama.cpp server and so on).
type Compat struct {
	client *openai.Client
	model  string
}

func NewCompat(apiKey, model, baseURL string, httpClient *http.Client) *Compat {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	return &Compat{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *Compat) Complete(ctx context.Context, msgs []Message, p Params) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(msgs)),
		Temperature: float32(p.Temperature),
		MaxTokens:   p.MaxTokens,
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return resp.Choices[0].Message.Content, nil
}
