package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"job-assistant/domain"
)

const matchSystemPrompt = "You are a job matching assistant."

// Matcher asks the extractor to compare a candidate with a job. It does no
// scoring of its own; it builds the request and normalizes the answer.
type Matcher struct {
	extractor StructuredExtractor
	logger    *zap.Logger
	maxLogLen int
}

func NewMatcher(extractor StructuredExtractor, opts Options) *Matcher {
	return &Matcher{
		extractor: extractor,
		logger:    opts.logger().Named("matcher"),
		maxLogLen: opts.maxLogLength(),
	}
}

func (m *Matcher) Match(ctx context.Context, candidate domain.CandidateProfile, job domain.JobPosting) (*domain.MatchOutcome, error) {
	candidateJSON, err := json.Marshal(candidatePayload(candidate))
	if err != nil {
		return nil, fmt.Errorf("marshal candidate payload: %w", err)
	}
	jobJSON, err := json.Marshal(jobPayload(job))
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	prompt := fmt.Sprintf("Match this candidate %s with job %s.", candidateJSON, jobJSON)

	m.logger.Debug("match request",
		zap.String("candidate", candidate.Name),
		zap.String("job_title", job.Title),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := m.extractor.Extract(ctx, ExtractRequest{System: matchSystemPrompt, Text: prompt, Schema: MatchSchema})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	m.logger.Debug("match response",
		zap.String("candidate", candidate.Name),
		zap.String("job_title", job.Title),
		zap.String("response_preview", truncateForLog(string(raw), m.maxLogLen)),
	)

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no structured response for match", ErrNoData)
	}

	obj, err := DecodeObject(raw)
	if err != nil {
		return nil, err
	}

	return m.normalize(obj), nil
}

// normalize enforces the outcome shape: integer score, list of missing
// skills and a non-empty summary. Scores outside 0..100 pass through.
func (m *Matcher) normalize(obj map[string]any) *domain.MatchOutcome {
	score, ok := coerceInt(obj["match_score"])
	if !ok && obj["match_score"] != nil {
		m.logger.Warn("match score is not numeric, using 0", zap.Any("match_score", obj["match_score"]))
	}
	if score < 0 || score > 100 {
		m.logger.Warn("match score outside 0..100", zap.Int("match_score", score))
	}

	summary := coerceString(obj["summary"])
	if summary == "" {
		summary = domain.DefaultSummary
	}

	return &domain.MatchOutcome{
		MatchScore:    score,
		MissingSkills: CoerceStringList(obj["missing_skills"]),
		Summary:       summary,
	}
}

func candidatePayload(c domain.CandidateProfile) map[string]any {
	return map[string]any{
		"name":            c.Name,
		"skills":          []string(c.Skills),
		"education":       []string(c.Education),
		"work_experience": []string(c.WorkExperience),
	}
}

func jobPayload(j domain.JobPosting) map[string]any {
	return map[string]any{
		"title":           j.Title,
		"company":         j.Company,
		"required_skills": []string(j.RequiredSkills),
		"description":     j.Description,
	}
}
