package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"job-assistant/pipeline"
)

const defaultOpenAIModel = "gpt-4o-mini"

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIExtractor implements pipeline.StructuredExtractor with forced function calls.
type OpenAIExtractor struct {
	client chatCompleter
	model  string
	logger *zap.Logger
}

func NewOpenAIExtractor(apiKey, baseURL, model string, logger *zap.Logger) (*OpenAIExtractor, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return newOpenAIExtractor(openai.NewClientWithConfig(cfg), model, logger), nil
}

func newOpenAIExtractor(client chatCompleter, model string, logger *zap.Logger) *OpenAIExtractor {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultOpenAIModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIExtractor{client: client, model: model, logger: logger}
}

// Extract forces a call to the function named after the schema and returns
// its argument string. A reply without a tool call yields a nil payload.
func (o *OpenAIExtractor) Extract(ctx context.Context, req pipeline.ExtractRequest) (json.RawMessage, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Parameters:  req.Schema.Parameters,
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: req.Schema.Name},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		o.logger.Warn("openai returned no choices", zap.String("schema", req.Schema.Name))
		return nil, nil
	}

	msg := resp.Choices[0].Message
	for _, call := range msg.ToolCalls {
		if call.Function.Name == req.Schema.Name && strings.TrimSpace(call.Function.Arguments) != "" {
			return json.RawMessage(call.Function.Arguments), nil
		}
	}
	if msg.FunctionCall != nil && strings.TrimSpace(msg.FunctionCall.Arguments) != "" {
		return json.RawMessage(msg.FunctionCall.Arguments), nil
	}

	o.logger.Warn("openai reply carried no function call", zap.String("schema", req.Schema.Name))
	return nil, nil
}

func (o *OpenAIExtractor) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
