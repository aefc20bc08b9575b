package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"job-assistant/domain"
	"job-assistant/pipeline"
)

type RecordStore interface {
	CreateJobPosting(ctx context.Context, job *domain.JobPosting) error
	ListJobPostings(ctx context.Context, filter domain.JobFilter) ([]domain.JobPosting, error)
	DeleteJobPosting(ctx context.Context, id uint) error
	ListCandidates(ctx context.Context) ([]domain.CandidateProfile, error)
	DeleteCandidate(ctx context.Context, id uint) error
	RecordMatch(ctx context.Context, candidate domain.CandidateProfile, job domain.JobPosting, outcome domain.MatchOutcome) (*domain.MatchResult, error)
	ListMatchResults(ctx context.Context) ([]domain.MatchResult, error)
	Ping(ctx context.Context) error
}

type ResumeStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

type ResumeParser interface {
	Parse(ctx context.Context, ref, format string) (*domain.CandidateProfile, error)
}

type JobParser interface {
	Parse(ctx context.Context, text string) (*domain.JobPosting, error)
}

type Matcher interface {
	Match(ctx context.Context, candidate domain.CandidateProfile, job domain.JobPosting) (*domain.MatchOutcome, error)
}

type CoverLetterWriter interface {
	Generate(ctx context.Context, candidate domain.CandidateProfile, job domain.JobPosting) (string, error)
}

type MatchPublisher interface {
	PublishMatch(ctx context.Context, result domain.MatchResult) error
}

// Dependencies wires the handler. Publisher is optional.
type Dependencies struct {
	Store        RecordStore
	Storage      ResumeStorage
	Resumes      ResumeParser
	Jobs         JobParser
	Matcher      Matcher
	CoverLetters CoverLetterWriter
	Publisher    MatchPublisher

	MaxUploadBytes int64
}

type HTTPHandler struct {
	deps Dependencies
}

func NewHTTPHandler(router gin.IRouter, deps Dependencies) *HTTPHandler {
	h := &HTTPHandler{deps: deps}

	router.POST("/upload_resume/", h.UploadResume)
	router.POST("/parse_job/", h.ParseJob)
	router.POST("/match/", h.Match)
	router.POST("/generate_cover_letter/", h.GenerateCoverLetter)
	router.GET("/job_listings/", h.ListJobs)
	router.POST("/add_job/", h.AddJob)
	router.DELETE("/job_listings/:id/", h.DeleteJob)
	router.GET("/candidates/", h.ListCandidates)
	router.DELETE("/candidates/:id/", h.DeleteCandidate)
	router.GET("/match-results/", h.ListMatchResults)
	router.GET("/healthz", h.Health)

	return h
}

// UploadResume stores the "resume" part and returns the parsed profile.
// The profile is not persisted.
func (h *HTTPHandler) UploadResume(c *gin.Context) {
	if h.deps.MaxUploadBytes > 0 {
		// Leave room for the multipart envelope around the file itself.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.deps.MaxUploadBytes+1<<20)
	}

	header, err := c.FormFile("resume")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, errBadRequest("resume file too large"))
			return
		}
		respondError(c, errBadRequest("resume file is required"))
		return
	}
	if h.deps.MaxUploadBytes > 0 && header.Size > h.deps.MaxUploadBytes {
		respondError(c, errBadRequest("resume file too large"))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	ref, err := h.deps.Storage.Save(c.Request.Context(), header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	profile, err := h.deps.Resumes.Parse(c.Request.Context(), ref, format)
	if err != nil {
		respondError(c, err)
		return
	}

	requestLogger(c).Info("resume parsed",
		zap.String("resume_file", ref),
		zap.String("candidate", profile.Name),
		zap.Int("skills", len(profile.Skills)),
	)
	c.JSON(http.StatusOK, profile)
}

type parseJobRequest struct {
	JobText string `json:"job_text"`
}

func (h *HTTPHandler) ParseJob(c *gin.Context) {
	var req parseJobRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, newAPIError(http.StatusBadRequest, "invalid request body", err.Error()))
		return
	}
	if strings.TrimSpace(req.JobText) == "" {
		respondError(c, errBadRequest("job description missing"))
		return
	}

	job, err := h.deps.Jobs.Parse(c.Request.Context(), req.JobText)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// stringList accepts a JSON list or a single scalar, like the pipeline
// does for extractor output.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*l = pipeline.CoerceStringList(v)
	return nil
}

type candidateInput struct {
	Name           string     `json:"name"`
	Skills         stringList `json:"skills"`
	Education      stringList `json:"education"`
	WorkExperience stringList `json:"work_experience"`
	ResumeFile     string     `json:"resume_file"`
}

func (in *candidateInput) profile() *domain.CandidateProfile {
	if in == nil {
		return nil
	}
	p := &domain.CandidateProfile{
		Name:           in.Name,
		Skills:         datatypes.JSONSlice[string](in.Skills),
		Education:      datatypes.JSONSlice[string](in.Education),
		WorkExperience: datatypes.JSONSlice[string](in.WorkExperience),
		ResumeFile:     in.ResumeFile,
	}
	p.Normalize()
	return p
}

type jobInput struct {
	Title          string     `json:"title"`
	Company        string     `json:"company"`
	RequiredSkills stringList `json:"required_skills"`
	Description    string     `json:"description"`
}

func (in *jobInput) posting() *domain.JobPosting {
	if in == nil {
		return nil
	}
	j := &domain.JobPosting{
		Title:          in.Title,
		Company:        in.Company,
		RequiredSkills: datatypes.JSONSlice[string](in.RequiredSkills),
		Description:    in.Description,
	}
	j.Normalize()
	return j
}

type pairRequest struct {
	Candidate *candidateInput `json:"candidate"`
	Job       *jobInput       `json:"job"`
}

type matchResponse struct {
	domain.MatchOutcome
	CandidateName string `json:"candidate_name"`
	JobTitle      string `json:"job_title"`
	Company       string `json:"company"`
}

// Match scores the pair, then stores the candidate and job (when new) and
// one match result.
func (h *HTTPHandler) Match(c *gin.Context) {
	var req pairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, newAPIError(http.StatusBadRequest, "invalid request body", err.Error()))
		return
	}
	candidate, job := req.Candidate.profile(), req.Job.posting()
	if candidate == nil || candidate.Name == "" {
		respondError(c, errBadRequest("candidate name is required"))
		return
	}
	if job == nil || job.Title == "" || job.Company == "" {
		respondError(c, errBadRequest("job title and company are required"))
		return
	}

	ctx := c.Request.Context()
	outcome, err := h.deps.Matcher.Match(ctx, *candidate, *job)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.deps.Store.RecordMatch(ctx, *candidate, *job, *outcome)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.deps.Publisher != nil {
		if err := h.deps.Publisher.PublishMatch(ctx, *result); err != nil {
			requestLogger(c).Warn("failed to publish match event", zap.Uint("match_id", result.ID), zap.Error(err))
		}
	}

	view := result.View()
	c.JSON(http.StatusOK, matchResponse{
		MatchOutcome:  *outcome,
		CandidateName: view.CandidateName,
		JobTitle:      view.JobTitle,
		Company:       view.Company,
	})
}

func (h *HTTPHandler) GenerateCoverLetter(c *gin.Context) {
	var req pairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, newAPIError(http.StatusBadRequest, "invalid request body", err.Error()))
		return
	}
	candidate, job := req.Candidate.profile(), req.Job.posting()
	if candidate.IsZero() || job.IsZero() {
		respondError(c, errBadRequest("candidate and job are required"))
		return
	}

	letter, err := h.deps.CoverLetters.Generate(c.Request.Context(), *candidate, *job)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cover_letter": letter})
}

func (h *HTTPHandler) ListJobs(c *gin.Context) {
	jobs, err := h.deps.Store.ListJobPostings(c.Request.Context(), domain.JobFilter{
		Company: c.Query("company"),
		Skill:   c.Query("skill"),
		Query:   c.Query("q"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

type addJobRequest struct {
	Title          string   `json:"title" binding:"required,max=255"`
	Company        string   `json:"company" binding:"required,max=255"`
	RequiredSkills []string `json:"required_skills" binding:"required,min=1,dive,max=255"`
	Description    string   `json:"description" binding:"required"`
}

func (h *HTTPHandler) AddJob(c *gin.Context) {
	var req addJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			respondError(c, errValidation(validationFields(verrs)))
			return
		}
		respondError(c, newAPIError(http.StatusBadRequest, "invalid request body", err.Error()))
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "This field may not be blank."
	}
	if strings.TrimSpace(req.Company) == "" {
		fields["company"] = "This field may not be blank."
	}
	if strings.TrimSpace(req.Description) == "" {
		fields["description"] = "This field may not be blank."
	}
	if len(fields) > 0 {
		respondError(c, errValidation(fields))
		return
	}

	job := &domain.JobPosting{
		Title:          req.Title,
		Company:        req.Company,
		RequiredSkills: datatypes.JSONSlice[string](req.RequiredSkills),
		Description:    req.Description,
	}
	if err := h.deps.Store.CreateJobPosting(c.Request.Context(), job); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *HTTPHandler) DeleteJob(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.deps.Store.DeleteJobPosting(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.deps.Store.ListCandidates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

func (h *HTTPHandler) DeleteCandidate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.deps.Store.DeleteCandidate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) ListMatchResults(c *gin.Context) {
	results, err := h.deps.Store.ListMatchResults(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]domain.MatchResultView, 0, len(results))
	for _, r := range results {
		views = append(views, r.View())
	}
	c.JSON(http.StatusOK, views)
}

func (h *HTTPHandler) Health(c *gin.Context) {
	if err := h.deps.Store.Ping(c.Request.Context()); err != nil {
		respondError(c, newAPIError(http.StatusServiceUnavailable, "database unavailable", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, errBadRequest("invalid id"))
		return 0, false
	}
	return uint(id), true
}

func validationFields(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "This field is required."
		case "min":
			fields[fe.Field()] = "This list may not be empty."
		case "max":
			fields[fe.Field()] = "Ensure this field has no more than " + fe.Param() + " characters."
		default:
			fields[fe.Field()] = "Invalid value."
		}
	}
	return fields
}
