package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"job-assistant/pipeline"
)

type fakeModels struct {
	parts  []*genai.Part
	err    error
	model  string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: genai.RoleModel, Parts: f.parts}}},
	}, nil
}

func TestGeminiExtract(t *testing.T) {
	tests := []struct {
		name  string
		parts []*genai.Part
		want  string
	}{
		{name: "bare json", parts: []*genai.Part{{Text: `{"title":"Backend Engineer"}`}}, want: `{"title":"Backend Engineer"}`},
		{name: "fenced json", parts: []*genai.Part{{Text: "```json\n{\"title\":\"Backend Engineer\"}\n```"}}, want: `{"title":"Backend Engineer"}`},
		{name: "string payload kept", parts: []*genai.Part{{Text: `"{\"title\":\"x\"}"`}}, want: `"{\"title\":\"x\"}"`},
		{name: "split parts", parts: []*genai.Part{{Text: `{"title":`}, {Text: `"x"}`}}, want: `{"title":"x"}`},
		{name: "thoughts skipped", parts: []*genai.Part{{Text: "thinking", Thought: true}, {Text: `{}`}}, want: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := &fakeModels{parts: tt.parts}
			extractor := newGeminiExtractor(models, "", nil)

			raw, err := extractor.Extract(context.Background(), pipeline.ExtractRequest{
				System: "You are a job description parser.",
				Text:   "Backend Engineer at Acme",
				Schema: pipeline.JobSchema,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(raw))

			assert.Equal(t, defaultGeminiModel, models.model)
			assert.Equal(t, "application/json", models.config.ResponseMIMEType)
			assert.Equal(t, pipeline.JobSchema.Parameters, models.config.ResponseJsonSchema)
		})
	}
}

func TestGeminiExtractEmptyReply(t *testing.T) {
	extractor := newGeminiExtractor(&fakeModels{}, "gemini-2.5-pro", nil)

	raw, err := extractor.Extract(context.Background(), pipeline.ExtractRequest{Text: "x", Schema: pipeline.MatchSchema})
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestGeminiErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	extractor := newGeminiExtractor(&fakeModels{err: boom}, "", nil)

	_, err := extractor.Extract(context.Background(), pipeline.ExtractRequest{Text: "x", Schema: pipeline.MatchSchema})
	assert.ErrorIs(t, err, boom)

	_, err = extractor.Generate(context.Background(), "system", "prompt")
	assert.ErrorIs(t, err, boom)

	_, err = newGeminiExtractor(&fakeModels{}, "", nil).Generate(context.Background(), "system", "prompt")
	assert.Error(t, err)
}

func TestGeminiGenerate(t *testing.T) {
	models := &fakeModels{parts: []*genai.Part{{Text: "  Dear hiring manager  "}}}
	text, err := newGeminiExtractor(models, "", nil).Generate(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Dear hiring manager", text)
	assert.Empty(t, models.config.ResponseMIMEType)
}

func TestCleanJSONResponse(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":1}\n```":      `{"a":1}`,
		"```\n{\"a\":1}```":            `{"a":1}`,
		"Here you go: {\"a\":1} done.": `{"a":1}`,
		"no json":                      "no json",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanJSONResponse(in), in)
	}
}
