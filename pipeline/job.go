package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"job-assistant/domain"
)

const jobSystemPrompt = "You are a job description parser."

// JobParser turns free-text job descriptions into job postings.
type JobParser struct {
	extractor StructuredExtractor
	logger    *zap.Logger
	maxLogLen int
}

func NewJobParser(extractor StructuredExtractor, opts Options) *JobParser {
	return &JobParser{
		extractor: extractor,
		logger:    opts.logger().Named("job_parser"),
		maxLogLen: opts.maxLogLength(),
	}
}

// Parse returns the structured job. It is not persisted.
func (p *JobParser) Parse(ctx context.Context, text string) (*domain.JobPosting, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: job description is empty", ErrNoData)
	}

	raw, err := p.extractor.Extract(ctx, ExtractRequest{System: jobSystemPrompt, Text: text, Schema: JobSchema})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	p.logger.Debug("job description extracted",
		zap.Int("response_length", utf8.RuneCount(raw)),
		zap.String("response_preview", truncateForLog(string(raw), p.maxLogLen)),
	)

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no structured response for job description", ErrNoData)
	}

	obj, err := DecodeObject(raw)
	if err != nil {
		return nil, err
	}

	return &domain.JobPosting{
		Title:          coerceString(obj["title"]),
		Company:        coerceString(obj["company"]),
		RequiredSkills: datatypes.JSONSlice[string](CoerceStringList(obj["required_skills"])),
		Description:    coerceString(obj["description"]),
	}, nil
}
