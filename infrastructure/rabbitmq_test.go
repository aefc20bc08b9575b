package infrastructure

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"job-assistant/domain"
)

func TestNewMatchEvent(t *testing.T) {
	candidateID, jobID := uint(3), uint(4)
	result := domain.MatchResult{
		ID:            7,
		CandidateID:   &candidateID,
		Candidate:     &domain.CandidateProfile{ID: candidateID, Name: "Jane Doe"},
		JobID:         &jobID,
		MatchScore:    60,
		MissingSkills: datatypes.JSONSlice[string]{"Go"},
		Summary:       "Partial fit",
		CreatedAt:     time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}

	body, err := json.Marshal(NewMatchEvent(result))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"event": "match.created",
		"result": {
			"id": 7,
			"candidate_name": "Jane Doe",
			"job_title": "N/A",
			"company": "N/A",
			"match_score": 60,
			"missing_skills": ["Go"],
			"summary": "Partial fit",
			"created_at": "2024-03-01 09:30:00"
		}
	}`, string(body))
}
