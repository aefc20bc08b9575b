package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"job-assistant/config"
	"job-assistant/pipeline"
)

const defaultGeminiModel = "gemini-2.5-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor implements pipeline.StructuredExtractor on the Gemini API
// or Vertex AI, using JSON mode with a response schema.
type GeminiExtractor struct {
	models contentGenerator
	model  string
	logger *zap.Logger
}

func NewGeminiExtractor(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*GeminiExtractor, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Vertex.Project != "" {
		clientCfg = &genai.ClientConfig{
			Project:  cfg.Vertex.Project,
			Location: cfg.Vertex.Location,
			Backend:  genai.BackendVertexAI,
		}
	} else if clientCfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiExtractor(client.Models, cfg.Model, logger), nil
}

func newGeminiExtractor(models contentGenerator, model string, logger *zap.Logger) *GeminiExtractor {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiExtractor{models: models, model: model, logger: logger}
}

// Extract returns the JSON text produced for the schema. An empty reply
// yields a nil payload.
func (g *GeminiExtractor) Extract(ctx context.Context, req pipeline.ExtractRequest) (json.RawMessage, error) {
	text, err := g.generate(ctx, req.Text, &genai.GenerateContentConfig{
		SystemInstruction:  genai.NewContentFromText(req.System, genai.RoleUser),
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: req.Schema.Parameters,
		Temperature:        genai.Ptr[float32](0.1),
	})
	if err != nil {
		return nil, err
	}
	if text == "" {
		g.logger.Warn("gemini returned no structured output", zap.String("schema", req.Schema.Name))
		return nil, nil
	}

	if !json.Valid([]byte(text)) {
		text = cleanJSONResponse(text)
	}
	return json.RawMessage(text), nil
}

func (g *GeminiExtractor) Generate(ctx context.Context, system, prompt string) (string, error) {
	text, err := g.generate(ctx, prompt, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return text, nil
}

func (g *GeminiExtractor) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil {
		return "", nil
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			builder.WriteString(part.Text)
		}
		// Only the first candidate is used.
		break
	}
	return strings.TrimSpace(builder.String()), nil
}

// cleanJSONResponse strips markdown fences and surrounding prose from a
// model reply that should have been a bare JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}
	return strings.TrimSpace(content)
}
