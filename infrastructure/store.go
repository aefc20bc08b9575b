package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"job-assistant/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrJobExists = errors.New("job posting already exists")
)

// JobExistsError carries the stored posting that blocked a create.
type JobExistsError struct {
	Existing domain.JobPosting
}

func (e *JobExistsError) Error() string {
	return fmt.Sprintf("%s: %q at %q", ErrJobExists, e.Existing.Title, e.Existing.Company)
}

func (e *JobExistsError) Is(target error) bool { return target == ErrJobExists }

// Store persists candidates, job postings and match results.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateJobPosting inserts a new posting. A posting with the same title and
// company is never duplicated; a *JobExistsError is returned instead.
func (s *Store) CreateJobPosting(ctx context.Context, job *domain.JobPosting) error {
	job.Normalize()

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: jobKey, DoNothing: true}).
		Create(job)
	if res.Error != nil {
		return fmt.Errorf("create job posting: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var existing domain.JobPosting
	if err := s.db.WithContext(ctx).
		Where("title = ? AND company = ?", job.Title, job.Company).
		First(&existing).Error; err != nil {
		return fmt.Errorf("load existing job posting: %w", err)
	}
	return &JobExistsError{Existing: existing}
}

// likeEscaper makes user text match literally inside a LIKE pattern using '!' as the escape.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (s *Store) ListJobPostings(ctx context.Context, filter domain.JobFilter) ([]domain.JobPosting, error) {
	query := s.db.WithContext(ctx).Order("id")

	if company := strings.TrimSpace(filter.Company); company != "" {
		query = query.Where("LOWER(company) = ?", strings.ToLower(company))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		query = query.Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'", like, like)
	}

	var jobs []domain.JobPosting
	if err := query.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list job postings: %w", err)
	}

	// required_skills is a JSON column, so membership is checked here rather
	// than in dialect-specific SQL.
	if skill := strings.TrimSpace(filter.Skill); skill != "" {
		filtered := jobs[:0]
		for _, job := range jobs {
			if job.HasSkill(skill) {
				filtered = append(filtered, job)
			}
		}
		jobs = filtered
	}

	if jobs == nil {
		jobs = []domain.JobPosting{}
	}
	return jobs, nil
}

// DeleteJobPosting removes a posting. Match results keep their scores and
// lose the job reference.
func (s *Store) DeleteJobPosting(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.MatchResult{}).
			Where("job_id = ?", id).
			Update("job_id", nil).Error; err != nil {
			return fmt.Errorf("detach match results: %w", err)
		}

		res := tx.Delete(&domain.JobPosting{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete job posting: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) ListCandidates(ctx context.Context) ([]domain.CandidateProfile, error) {
	candidates := []domain.CandidateProfile{}
	if err := s.db.WithContext(ctx).Order("id").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return candidates, nil
}

func (s *Store) DeleteCandidate(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.MatchResult{}).
			Where("candidate_id = ?", id).
			Update("candidate_id", nil).Error; err != nil {
			return fmt.Errorf("detach match results: %w", err)
		}

		res := tx.Delete(&domain.CandidateProfile{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete candidate: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RecordMatch resolves the candidate and job by natural key, creating them
// when absent, and stores one new match result, all in one transaction.
// Existing rows are left as they are.
func (s *Store) RecordMatch(ctx context.Context, candidate domain.CandidateProfile, job domain.JobPosting, outcome domain.MatchOutcome) (*domain.MatchResult, error) {
	var result domain.MatchResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		storedCandidate, err := upsertCandidate(tx, candidate)
		if err != nil {
			return err
		}
		storedJob, err := upsertJob(tx, job)
		if err != nil {
			return err
		}

		missing := outcome.MissingSkills
		if missing == nil {
			missing = []string{}
		}
		result = domain.MatchResult{
			CandidateID:   &storedCandidate.ID,
			JobID:         &storedJob.ID,
			MatchScore:    outcome.MatchScore,
			MissingSkills: datatypes.JSONSlice[string](missing),
			Summary:       outcome.Summary,
		}
		if err := tx.Create(&result).Error; err != nil {
			return fmt.Errorf("create match result: %w", err)
		}

		result.Candidate = storedCandidate
		result.Job = storedJob
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) ListMatchResults(ctx context.Context) ([]domain.MatchResult, error) {
	results := []domain.MatchResult{}
	if err := s.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Job").
		Order("id").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("list match results: %w", err)
	}
	return results, nil
}

var (
	candidateKey = []clause.Column{{Name: "name"}}
	jobKey       = []clause.Column{{Name: "title"}, {Name: "company"}}
)

func upsertCandidate(tx *gorm.DB, candidate domain.CandidateProfile) (*domain.CandidateProfile, error) {
	candidate.ID = 0
	candidate.Normalize()

	if err := tx.Clauses(clause.OnConflict{Columns: candidateKey, DoNothing: true}).
		Create(&candidate).Error; err != nil {
		return nil, fmt.Errorf("upsert candidate: %w", err)
	}

	var stored domain.CandidateProfile
	if err := tx.Where("name = ?", candidate.Name).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("load candidate: %w", err)
	}
	return &stored, nil
}

func upsertJob(tx *gorm.DB, job domain.JobPosting) (*domain.JobPosting, error) {
	job.ID = 0
	job.Normalize()

	if err := tx.Clauses(clause.OnConflict{Columns: jobKey, DoNothing: true}).
		Create(&job).Error; err != nil {
		return nil, fmt.Errorf("upsert job posting: %w", err)
	}

	var stored domain.JobPosting
	if err := tx.Where("title = ? AND company = ?", job.Title, job.Company).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("load job posting: %w", err)
	}
	return &stored, nil
}
