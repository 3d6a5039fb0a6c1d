package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"
)

const (
	// DefaultModel produces the most consistent structured output
	DefaultModel = "gpt-4o"

	defaultTemperature = 0.2
	defaultMaxTokens   = 4000
)

// Client wraps the OpenAI chat API with the two call shapes the
// guidance pipeline needs: JSON-mode structured decode and plain text.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new LLM client
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := openai.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &Client{
		client: &c,
		model:  model,
	}
}

// CompleteJSON runs a single prompt in JSON mode and unmarshals the
// response into out. The system prompt must instruct the model to return
// only JSON matching out's shape.
func (c *Client) CompleteJSON(ctx context.Context, system, user string, out any) error {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model: c.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: constant.JSONObject("json_object"),
			},
		},
		Temperature: openai.Float(defaultTemperature),
		MaxTokens:   openai.Int(defaultMaxTokens),
	})
	if err != nil {
		return fmt.Errorf("openai chat api error: %w", err)
	}

	if len(completion.Choices) == 0 {
		return errors.New("no response from openai")
	}

	content := completion.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse structured response: %w", err)
	}
	return nil
}

// Complete runs a single prompt and returns the raw text response
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       c.model,
		Temperature: openai.Float(defaultTemperature),
		MaxTokens:   openai.Int(defaultMaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat api error: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("no response from openai")
	}

	return completion.Choices[0].Message.Content, nil
}
