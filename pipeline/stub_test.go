package pipeline

import (
	"context"
	"encoding/json"
)

type stubExtractor struct {
	payload  json.RawMessage
	text     string
	err      error
	requests []ExtractRequest
	prompts  []string
	deadline bool
}

func (s *stubExtractor) Extract(_ context.Context, req ExtractRequest) (json.RawMessage, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

func (s *stubExtractor) Generate(ctx context.Context, system, prompt string) (string, error) {
	_, s.deadline = ctx.Deadline()
	s.prompts = append(s.prompts, system, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubText struct {
	text string
	err  error
	refs []string
}

func (s *stubText) ExtractText(_ context.Context, ref, _ string) (string, error) {
	s.refs = append(s.refs, ref)
	return s.text, s.err
}
