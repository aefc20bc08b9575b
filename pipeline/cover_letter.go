package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"job-assistant/domain"
)

const (
	coverLetterSystemPrompt = "You are an expert resume writer and career advisor."
	defaultCoverLetterWait  = 60 * time.Second
)

// CoverLetterGenerator writes prose. It is the only component that bounds
// the extractor call with its own timeout.
type CoverLetterGenerator struct {
	extractor StructuredExtractor
	timeout   time.Duration
	logger    *zap.Logger
}

func NewCoverLetterGenerator(extractor StructuredExtractor, timeout time.Duration, opts Options) *CoverLetterGenerator {
	if timeout <= 0 {
		timeout = defaultCoverLetterWait
	}
	return &CoverLetterGenerator{
		extractor: extractor,
		timeout:   timeout,
		logger:    opts.logger().Named("cover_letter"),
	}
}

func (g *CoverLetterGenerator) Generate(ctx context.Context, candidate domain.CandidateProfile, job domain.JobPosting) (string, error) {
	candidateJSON, err := json.Marshal(map[string]any{
		"name":            candidate.Name,
		"skills":          []string(candidate.Skills),
		"work_experience": []string(candidate.WorkExperience),
	})
	if err != nil {
		return "", fmt.Errorf("marshal candidate payload: %w", err)
	}
	jobJSON, err := json.Marshal(map[string]any{
		"title":           job.Title,
		"company":         job.Company,
		"required_skills": []string(job.RequiredSkills),
	})
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	prompt := fmt.Sprintf("Generate a professional cover letter for the following candidate based on the given job description. \n\nCandidate: %s\n\nJob: %s",
		candidateJSON, jobJSON)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.extractor.Generate(ctx, coverLetterSystemPrompt, prompt)
	if err != nil {
		g.logger.Error("cover letter generation failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	letter := strings.TrimSpace(text)
	g.logger.Info("cover letter generated",
		zap.String("candidate", candidate.Name),
		zap.String("job_title", job.Title),
		zap.Int("length", utf8.RuneCountInString(letter)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return letter, nil
}
