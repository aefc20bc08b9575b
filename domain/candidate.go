package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CandidateProfile is the structured form of a parsed resume. Name is the natural key.
type CandidateProfile struct {
	ID             uint                        `gorm:"primaryKey" json:"id,omitempty"`
	Name           string                      `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Skills         datatypes.JSONSlice[string] `json:"skills"`
	Education      datatypes.JSONSlice[string] `json:"education"`
	WorkExperience datatypes.JSONSlice[string] `json:"work_experience"`
	ResumeFile     string                      `gorm:"size:512" json:"resume_file,omitempty"`
	CreatedAt      time.Time                   `json:"-"`
}

// Normalize trims the natural key and replaces nil lists with empty ones.
func (c *CandidateProfile) Normalize() {
	c.Name = trim(c.Name)
	c.Skills = nonNil(c.Skills)
	c.Education = nonNil(c.Education)
	c.WorkExperience = nonNil(c.WorkExperience)
}

// IsZero reports whether nothing at all was provided for the candidate.
func (c *CandidateProfile) IsZero() bool {
	return c == nil || (trim(c.Name) == "" && len(c.Skills) == 0 && len(c.Education) == 0 &&
		len(c.WorkExperience) == 0 && trim(c.ResumeFile) == "")
}
