// Package pipeline turns resumes and job descriptions into structured records,
// matches candidates against jobs and writes cover letters. Every semantic
// decision is delegated to a StructuredExtractor; this package builds the
// requests and normalizes the responses.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sashabaranov/go-openai/jsonschema"
)

var (
	// ErrNoData means there was nothing to extract, or the service gave no structured answer.
	ErrNoData = errors.New("no data could be extracted")
	// ErrUpstream wraps failures of the extraction service call itself.
	ErrUpstream = errors.New("extraction service failed")
	// ErrUnsupportedFormat is returned by text extractors for formats they cannot read.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Schema names a target shape for structured extraction.
type Schema struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
}

type ExtractRequest struct {
	System string
	Text   string
	Schema Schema
}

// StructuredExtractor is the external capability every component delegates to.
// Extract returns the raw payload produced for the schema, or nil when the
// service produced no structured response. Generate returns free-form text.
type StructuredExtractor interface {
	Extract(ctx context.Context, req ExtractRequest) (json.RawMessage, error)
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// TextExtractor converts a stored document into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, ref, format string) (string, error)
}

var stringList = jsonschema.Definition{
	Type:  jsonschema.Array,
	Items: &jsonschema.Definition{Type: jsonschema.String},
}

var ResumeSchema = Schema{
	Name:        "parse_resume",
	Description: "Parse resume and return structured JSON.",
	Parameters: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"name":            {Type: jsonschema.String},
			"skills":          stringList,
			"education":       stringList,
			"work_experience": stringList,
		},
		Required: []string{"name"},
	},
}

var JobSchema = Schema{
	Name:        "parse_job_posting",
	Description: "Extract job details into structured format.",
	Parameters: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"title":   {Type: jsonschema.String, Description: "Job title"},
			"company": {Type: jsonschema.String, Description: "Company name"},
			"required_skills": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "List of required skills for the job.",
			},
			"description": {Type: jsonschema.String, Description: "Full job description text"},
		},
		Required: []string{"title", "required_skills", "description"},
	},
}

var MatchSchema = Schema{
	Name:        "match_candidate_to_job",
	Description: "Match a candidate to a job and return relevant details.",
	Parameters: jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"match_score": {
				Type:        jsonschema.Integer,
				Description: "Percentage score of how well the candidate fits the job.",
			},
			"missing_skills": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "List of skills missing from the candidate's profile.",
			},
			"summary": {Type: jsonschema.String, Description: "Short summary of the match assessment."},
		},
		Required: []string{"match_score", "missing_skills", "summary"},
	},
}
