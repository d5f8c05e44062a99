package oracle

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Official talks to the OpenAI chat completions API through the official SDK.
type Official struct {
	client openai.Client
	model  string
}

// NewOfficial builds the SDK client. baseURL and httpClient are optional.
func NewOfficial(apiKey, model, baseURL string, httpClient *http.Client) *Official {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &Official{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (o *Official) Complete(ctx context.Context, msgs []Message, p Params) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)),
		Model:    openai.ChatModel(o.model),
	}
	if p.Temperature > 0 {
		params.Temperature = openai.Float(p.Temperature)
	}
	if p.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(p.MaxTokens))
	}

	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return resp.Choices[0].Message.Content, nil
}
