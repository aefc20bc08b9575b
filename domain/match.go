package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// NotAvailable stands in for a candidate or job that no longer exists.
	NotAvailable = "N/A"
	// DefaultSummary is used when the matcher produced no summary.
	DefaultSummary = "No summary available"
	// TimestampLayout is YYYY-MM-DD HH:MM:SS.
	TimestampLayout = "2006-01-02 15:04:05"
)

// MatchOutcome is the normalized triple produced by the matcher.
type MatchOutcome struct {
	MatchScore    int      `json:"match_score"`
	MissingSkills []string `json:"missing_skills"`
	Summary       string   `json:"summary"`
}

// MatchResult is one persisted match. Several may exist for the same pair.
type MatchResult struct {
	ID            uint                        `gorm:"primaryKey"`
	CandidateID   *uint                       `gorm:"index"`
	Candidate     *CandidateProfile           `gorm:"constraint:OnDelete:SET NULL"`
	JobID         *uint                       `gorm:"index"`
	Job           *JobPosting                 `gorm:"constraint:OnDelete:SET NULL"`
	MatchScore    int                         `gorm:"not null"`
	MissingSkills datatypes.JSONSlice[string] `gorm:"not null"`
	Summary       string                      `gorm:"type:text"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime"`
}

// MatchResultView is the denormalized listing entry.
type MatchResultView struct {
	ID            uint     `json:"id"`
	CandidateName string   `json:"candidate_name"`
	JobTitle      string   `json:"job_title"`
	Company       string   `json:"company"`
	MatchScore    int      `json:"match_score"`
	MissingSkills []string `json:"missing_skills"`
	Summary       string   `json:"summary"`
	CreatedAt     string   `json:"created_at"`
}

func (m MatchResult) View() MatchResultView {
	v := MatchResultView{
		ID:            m.ID,
		CandidateName: NotAvailable,
		JobTitle:      NotAvailable,
		Company:       NotAvailable,
		MatchScore:    m.MatchScore,
		MissingSkills: []string(nonNil(m.MissingSkills)),
		Summary:       m.Summary,
		CreatedAt:     m.CreatedAt.UTC().Format(TimestampLayout),
	}
	if m.Candidate != nil {
		v.CandidateName = m.Candidate.Name
	}
	if m.Job != nil {
		v.JobTitle = m.Job.Title
		v.Company = m.Job.Company
	}
	return v
}
