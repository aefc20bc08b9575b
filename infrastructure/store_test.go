package infrastructure

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"job-assistant/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "store.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db, false, zap.NewNop()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrateSeedsOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db, true, zap.NewNop()))
	require.NoError(t, Migrate(ctx, db, true, zap.NewNop()))

	var count int64
	require.NoError(t, db.Model(&domain.JobPosting{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCreateJobPostingRejectsDuplicate(t *testing.T) {
	store := NewStore(newTestDB(t))
	ctx := context.Background()

	first := &domain.JobPosting{Title: "Backend Engineer", Company: "Acme", RequiredSkills: datatypes.JSONSlice[string]{"Go"}}
	require.NoError(t, store.CreateJobPosting(ctx, first))
	require.NotZero(t, first.ID)

	second := &domain.JobPosting{Title: " Backend Engineer ", Company: "Acme", Description: "other"}
	err := store.CreateJobPosting(ctx, second)
	require.ErrorIs(t, err, ErrJobExists)

	var exists *JobExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, first.ID, exists.Existing.ID)

	jobs, err := store.ListJobPostings(ctx, domain.JobFilter{})
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestListJobPostingsFilters(t *testing.T) {
	store := NewStore(newTestDB(t))
	ctx := context.Background()

	for _, job := range []domain.JobPosting{
		{Title: "Backend Engineer", Company: "Acme", RequiredSkills: datatypes.JSONSlice[string]{"Python", "Go"}, Description: "APIs"},
		{Title: "Data Analyst", Company: "Globex", RequiredSkills: datatypes.JSONSlice[string]{"SQL"}, Description: "dashboards for the backend team"},
		{Title: "Frontend Engineer", Company: "acme", RequiredSkills: datatypes.JSONSlice[string]{"TypeScript"}},
		{Title: "Growth Lead (50% remote)", Company: "Initech", RequiredSkills: datatypes.JSONSlice[string]{"SEO"}, Description: "own the top_of_funnel"},
	} {
		require.NoError(t, store.CreateJobPosting(ctx, &job))
	}

	tests := []struct {
		name   string
		filter domain.JobFilter
		want   []string
	}{
		{name: "no filter", filter: domain.JobFilter{}, want: []string{"Backend Engineer", "Data Analyst", "Frontend Engineer", "Growth Lead (50% remote)"}},
		{name: "company ignores case", filter: domain.JobFilter{Company: "ACME"}, want: []string{"Backend Engineer", "Frontend Engineer"}},
		{name: "skill", filter: domain.JobFilter{Skill: "go"}, want: []string{"Backend Engineer"}},
		{name: "query in title or description", filter: domain.JobFilter{Query: "backend"}, want: []string{"Backend Engineer", "Data Analyst"}},
		{name: "combined", filter: domain.JobFilter{Company: "acme", Query: "engineer", Skill: "TypeScript"}, want: []string{"Frontend Engineer"}},
		{name: "nothing matches", filter: domain.JobFilter{Skill: "Rust"}, want: []string{}},
		{name: "percent is literal", filter: domain.JobFilter{Query: "%"}, want: []string{"Growth Lead (50% remote)"}},
		{name: "percent inside text", filter: domain.JobFilter{Query: "50%"}, want: []string{"Growth Lead (50% remote)"}},
		{name: "underscore is literal", filter: domain.JobFilter{Query: "d_s"}, want: []string{}},
		{name: "underscore inside text", filter: domain.JobFilter{Query: "top_of"}, want: []string{"Growth Lead (50% remote)"}},
		{name: "escape character is literal", filter: domain.JobFilter{Query: "!%"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := store.ListJobPostings(ctx, tt.filter)
			require.NoError(t, err)

			titles := []string{}
			for _, job := range jobs {
				titles = append(titles, job.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestRecordMatchReusesExistingRecords(t *testing.T) {
	store := NewStore(newTestDB(t))
	ctx := context.Background()

	candidate := domain.CandidateProfile{Name: "Jane Doe", Skills: datatypes.JSONSlice[string]{"Python"}}
	job := domain.JobPosting{Title: "Backend Engineer", Company: "Acme", RequiredSkills: datatypes.JSONSlice[string]{"Python", "Go"}}
	outcome := domain.MatchOutcome{MatchScore: 60, MissingSkills: []string{"Go"}, Summary: "Partial fit"}

	first, err := store.RecordMatch(ctx, candidate, job, outcome)
	require.NoError(t, err)
	require.NotNil(t, first.CandidateID)
	require.NotNil(t, first.JobID)

	candidate.Skills = datatypes.JSONSlice[string]{"Python", "Go"}
	second, err := store.RecordMatch(ctx, candidate, job, outcome)
	require.NoError(t, err)

	assert.Equal(t, *first.CandidateID, *second.CandidateID)
	assert.Equal(t, *first.JobID, *second.JobID)
	assert.NotEqual(t, first.ID, second.ID)
	// The first submission is kept.
	assert.Equal(t, []string{"Python"}, []string(second.Candidate.Skills))

	candidates, err := store.ListCandidates(ctx)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)

	results, err := store.ListMatchResults(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Jane Doe", results[0].View().CandidateName)
	assert.Equal(t, []string{"Go"}, results[0].View().MissingSkills)
}

func TestRecordMatchConcurrentSamePair(t *testing.T) {
	store := NewStore(newTestDB(t))
	ctx := context.Background()

	candidate := domain.CandidateProfile{Name: "Jane Doe"}
	job := domain.JobPosting{Title: "Backend Engineer", Company: "Acme"}

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.RecordMatch(ctx, candidate, job, domain.MatchOutcome{MatchScore: 50})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	candidates, err := store.ListCandidates(ctx)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)

	jobs, err := store.ListJobPostings(ctx, domain.JobFilter{})
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	results, err := store.ListMatchResults(ctx)
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestDeleteKeepsMatchResults(t *testing.T) {
	store := NewStore(newTestDB(t))
	ctx := context.Background()

	result, err := store.RecordMatch(ctx,
		domain.CandidateProfile{Name: "Jane Doe"},
		domain.JobPosting{Title: "Backend Engineer", Company: "Acme"},
		domain.MatchOutcome{MatchScore: 70, Summary: "ok"},
	)
	require.NoError(t, err)

	require.NoError(t, store.DeleteCandidate(ctx, *result.CandidateID))
	require.NoError(t, store.DeleteJobPosting(ctx, *result.JobID))

	assert.ErrorIs(t, store.DeleteCandidate(ctx, *result.CandidateID), ErrNotFound)
	assert.ErrorIs(t, store.DeleteJobPosting(ctx, *result.JobID), ErrNotFound)

	results, err := store.ListMatchResults(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)

	view := results[0].View()
	assert.Equal(t, domain.NotAvailable, view.CandidateName)
	assert.Equal(t, domain.NotAvailable, view.JobTitle)
	assert.Equal(t, domain.NotAvailable, view.Company)
	assert.Equal(t, 70, view.MatchScore)
}

func TestPing(t *testing.T) {
	store := NewStore(newTestDB(t))
	assert.NoError(t, store.Ping(context.Background()))
}
