package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// JobPosting is a job advertisement. (Title, Company) is the natural key.
type JobPosting struct {
	ID             uint                        `gorm:"primaryKey" json:"id,omitempty"`
	Title          string                      `gorm:"size:255;not null;uniqueIndex:idx_job_title_company" json:"title"`
	Company        string                      `gorm:"size:255;not null;uniqueIndex:idx_job_title_company" json:"company"`
	RequiredSkills datatypes.JSONSlice[string] `json:"required_skills"`
	Description    string                      `gorm:"type:text" json:"description"`
	CreatedAt      time.Time                   `json:"-"`
}

func (j *JobPosting) Normalize() {
	j.Title = trim(j.Title)
	j.Company = trim(j.Company)
	j.RequiredSkills = nonNil(j.RequiredSkills)
}

func (j *JobPosting) IsZero() bool {
	return j == nil || (trim(j.Title) == "" && trim(j.Company) == "" &&
		len(j.RequiredSkills) == 0 && trim(j.Description) == "")
}

// HasSkill reports whether skill is listed in RequiredSkills, ignoring case.
func (j *JobPosting) HasSkill(skill string) bool {
	for _, s := range j.RequiredSkills {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(skill)) {
			return true
		}
	}
	return false
}

// JobFilter narrows a job listing. Empty fields do not filter.
type JobFilter struct {
	Company string
	Skill   string
	Query   string
}

func trim(s string) string { return strings.TrimSpace(s) }

func nonNil(s datatypes.JSONSlice[string]) datatypes.JSONSlice[string] {
	if s == nil {
		return datatypes.JSONSlice[string]{}
	}
	return s
}
