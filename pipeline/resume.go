package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"job-assistant/domain"
)

const resumeSystemPrompt = "Extract structured data from resumes."

// ResumeParser turns a stored resume document into a candidate profile.
type ResumeParser struct {
	text      TextExtractor
	extractor StructuredExtractor
	logger    *zap.Logger
	maxLogLen int
}

func NewResumeParser(text TextExtractor, extractor StructuredExtractor, opts Options) *ResumeParser {
	return &ResumeParser{
		text:      text,
		extractor: extractor,
		logger:    opts.logger().Named("resume_parser"),
		maxLogLen: opts.maxLogLength(),
	}
}

// Parse extracts the document text and asks the extractor for a profile.
// The returned profile is not persisted. ErrNoData is returned when the
// format is unsupported, the document holds no text, or the service gave
// no structured response.
func (p *ResumeParser) Parse(ctx context.Context, ref, format string) (*domain.CandidateProfile, error) {
	text, err := p.text.ExtractText(ctx, ref, format)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %w", ErrNoData, err)
		}
		return nil, fmt.Errorf("extract resume text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: resume contains no text", ErrNoData)
	}

	p.logger.Debug("resume text extracted",
		zap.String("resume_file", ref),
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.String("text_preview", truncateForLog(text, p.maxLogLen)),
	)

	raw, err := p.extractor.Extract(ctx, ExtractRequest{System: resumeSystemPrompt, Text: text, Schema: ResumeSchema})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no structured response for resume", ErrNoData)
	}

	obj, err := DecodeObject(raw)
	if err != nil {
		return nil, err
	}

	profile := &domain.CandidateProfile{
		Name:           coerceString(obj["name"]),
		Skills:         datatypes.JSONSlice[string](CoerceStringList(obj["skills"])),
		Education:      datatypes.JSONSlice[string](CoerceStringList(obj["education"])),
		WorkExperience: datatypes.JSONSlice[string](CoerceStringList(obj["work_experience"])),
		ResumeFile:     ref,
	}
	if profile.Name == "" {
		p.logger.Warn("resume parsed without a candidate name", zap.String("resume_file", ref))
	}

	return profile, nil
}
