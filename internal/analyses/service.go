package analyses

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"recruit-assistant/internal/candidates"
	"recruit-assistant/internal/pipeline"
	"recruit-assistant/internal/shared/metrics"
	"recruit-assistant/internal/shared/telemetry"
)

// CandidateStore is the slice of the candidates service analyses depend on.
type CandidateStore interface {
	Get(ctx context.Context, id int64) (candidates.Candidate, error)
	SaveProfile(ctx context.Context, id int64, profile pipeline.ResumeProfile) error
}

// Service contains business logic for analyses.
type Service struct {
	Repo       Repo
	Candidates CandidateStore
	Pipeline   *pipeline.Orchestrator

	locks     recordLocks
	questions singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repo, cands CandidateStore, p *pipeline.Orchestrator) *Service {
	return &Service{Repo: repo, Candidates: cands, Pipeline: p}
}

// Process analyzes a candidate against a job description and stores the
// result as a new record. Model failures degrade the record, they never fail it.
func (s *Service) Process(ctx context.Context, candidateID int64, jobDescription string) (Record, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return Record{}, fmt.Errorf("%w: job description is required", ErrInvalidInput)
	}
	cand, err := s.Candidates.Get(ctx, candidateID)
	if err != nil {
		return Record{}, err
	}

	out := s.Pipeline.Run(ctx, pipeline.Input{
		ResumeText:     cand.ResumeContent,
		JobDescription: jobDescription,
		Profile:        cand.Profile,
	})
	if cand.Profile == nil {
		s.rememberProfile(ctx, cand.ID, out)
	}

	jd, err := s.Repo.CreateJobDescription(ctx, candidateID, jobDescription)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		CandidateID:      candidateID,
		JobDescriptionID: jd.ID,
		JobDescription:   jobDescription,
		Questions:        []string{},
	}
	rec.apply(out)
	created, err := s.Repo.Create(ctx, rec)
	if err != nil {
		if delErr := s.Repo.DeleteJobDescription(context.WithoutCancel(ctx), jd.ID); delErr != nil {
			telemetry.Warn("analyses.job_description_cleanup_failed", map[string]any{
				"job_description_id": jd.ID,
				"error":              delErr.Error(),
			})
		}
		return Record{}, err
	}
	created.Degraded = out.Degraded

	metrics.IncAnalysis("process")
	telemetry.Info("analyses.processed", map[string]any{
		"record_id":    created.ID,
		"candidate_id": candidateID,
		"match_score":  created.MatchScore,
		"degraded":     len(out.Degraded),
	})
	return created, nil
}

// Get returns a record by id.
func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	return s.Repo.GetByID(ctx, id)
}

// Latest returns the newest record for a candidate.
func (s *Service) Latest(ctx context.Context, candidateID int64) (Record, error) {
	return s.Repo.LatestForCandidate(ctx, candidateID)
}

// History returns a candidate's records newest first.
func (s *Service) History(ctx context.Context, candidateID int64) ([]Record, error) {
	if _, err := s.Candidates.Get(ctx, candidateID); err != nil {
		return nil, err
	}
	return s.Repo.ListByCandidate(ctx, candidateID)
}

// List returns every record newest first.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.Repo.List(ctx)
}

// Regenerate re-runs the pipeline for an existing record and replaces its
// derived fields in place. Interview questions and their flag are kept and
// handed to the report.
func (s *Service) Regenerate(ctx context.Context, id int64) (Record, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	rec, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	cand, err := s.Candidates.Get(ctx, rec.CandidateID)
	if err != nil {
		return Record{}, err
	}

	out := s.Pipeline.Regenerate(pipeline.WithRecord(ctx, id), pipeline.Input{
		ResumeText:     cand.ResumeContent,
		JobDescription: rec.JobDescription,
		Profile:        cand.Profile,
		Questions:      rec.Questions,
	})
	if strings.TrimSpace(cand.ResumeContent) != "" {
		s.rememberProfile(ctx, cand.ID, out)
	}

	rec.apply(out)
	updated, err := s.Repo.Replace(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	updated.Degraded = out.Degraded

	metrics.IncAnalysis("regenerate")
	telemetry.Info("analyses.regenerated", map[string]any{
		"record_id":   id,
		"match_score": updated.MatchScore,
		"degraded":    len(out.Degraded),
	})
	return updated, nil
}

// GenerateQuestions returns the interview questions of a candidate's latest
// record, generating and storing them on first use. The boolean reports
// whether they already existed. Concurrent calls for the same candidate
// share one generation.
func (s *Service) GenerateQuestions(ctx context.Context, candidateID int64) ([]string, bool, error) {
	type result struct {
		questions []string
		existed   bool
	}
	v, err, _ := s.questions.Do(strconv.FormatInt(candidateID, 10), func() (any, error) {
		qs, existed, err := s.generateQuestions(ctx, candidateID)
		return result{questions: qs, existed: existed}, err
	})
	if err != nil {
		return nil, false, err
	}
	r := v.(result)
	return append([]string(nil), r.questions...), r.existed, nil
}

func (s *Service) generateQuestions(ctx context.Context, candidateID int64) ([]string, bool, error) {
	latest, err := s.Repo.LatestForCandidate(ctx, candidateID)
	if err != nil {
		return nil, false, err
	}
	if latest.QuestionsGenerated {
		metrics.IncAnalysis("questions_cached")
		return latest.Questions, true, nil
	}

	unlock := s.locks.lock(latest.ID)
	defer unlock()

	rec, err := s.Repo.GetByID(ctx, latest.ID)
	if err != nil {
		return nil, false, err
	}
	if rec.QuestionsGenerated {
		return rec.Questions, true, nil
	}

	cand, err := s.Candidates.Get(ctx, candidateID)
	if err != nil {
		return nil, false, err
	}
	ctx = pipeline.WithRecord(ctx, rec.ID)
	var profile pipeline.ResumeProfile
	if cand.Profile != nil {
		profile = *cand.Profile
	} else {
		profile = s.Pipeline.Parse(ctx, cand.ResumeContent)
	}

	rec.Questions = s.Pipeline.GenerateQuestions(ctx, profile, rec.JobDescription, rec.Analysis())
	rec.QuestionsGenerated = true
	if _, err := s.Repo.Replace(ctx, rec); err != nil {
		return nil, false, err
	}

	metrics.IncAnalysis("questions")
	telemetry.Info("analyses.questions_generated", map[string]any{
		"record_id":    rec.ID,
		"candidate_id": candidateID,
		"count":        len(rec.Questions),
	})
	return rec.Questions, false, nil
}

// rememberProfile stores a freshly parsed resume on the candidate unless
// parsing fell back to a placeholder.
func (s *Service) rememberProfile(ctx context.Context, candidateID int64, out pipeline.Outcome) {
	for _, d := range out.Degraded {
		if d.Stage == pipeline.StageParsing {
			return
		}
	}
	if err := s.Candidates.SaveProfile(ctx, candidateID, out.Profile); err != nil && !errors.Is(err, candidates.ErrNotFound) {
		telemetry.Warn("analyses.profile_save.failed", map[string]any{
			"candidate_id": candidateID,
			"error":        err.Error(),
		})
	}
}
