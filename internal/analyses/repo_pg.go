package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"recruit-assistant/internal/pipeline"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectRecord = `
SELECT a.id, a.candidate_id, a.job_description_id, COALESCE(j.job_description, ''),
       a.match_score, a.skills_analysis, a.experience_analysis, a.education_analysis,
       a.interview_questions, a.questions_generated, a.candidate_profile,
       a.analysis_report, a.chart_data, a.created_at, a.updated_at
FROM analysis_results a
LEFT JOIN job_descriptions j ON j.id = a.job_description_id`

// CreateJobDescription inserts a job description for a candidate.
func (r *PGRepo) CreateJobDescription(ctx context.Context, candidateID int64, text string) (JobDescription, error) {
	const query = `
INSERT INTO job_descriptions (candidate_id, job_description)
VALUES ($1, $2)
RETURNING id, created_at`

	jd := JobDescription{CandidateID: candidateID, Text: text}
	if err := r.DB.QueryRowContext(ctx, query, candidateID, text).Scan(&jd.ID, &jd.CreatedAt); err != nil {
		return JobDescription{}, fmt.Errorf("insert job description: %w", err)
	}
	return jd, nil
}

// DeleteJobDescription removes a job description row.
func (r *PGRepo) DeleteJobDescription(ctx context.Context, id int64) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM job_descriptions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete job description: %w", err)
	}
	return nil
}

// Create inserts a new analysis record.
func (r *PGRepo) Create(ctx context.Context, rec Record) (Record, error) {
	const query = `
INSERT INTO analysis_results (
    candidate_id,
    job_description_id,
    match_score,
    skills_analysis,
    experience_analysis,
    education_analysis,
    interview_questions,
    questions_generated,
    candidate_profile,
    analysis_report,
    chart_data
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, created_at, updated_at`

	cols, err := encodeRecord(rec)
	if err != nil {
		return Record{}, err
	}
	args := append([]any{rec.CandidateID, rec.JobDescriptionID, rec.MatchScore}, cols.args()...)
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, fmt.Errorf("insert analysis: %w", err)
	}
	return rec, nil
}

// GetByID returns a record by id.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, selectRecord+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get analysis %d: %w", id, err)
	}
	return rec, nil
}

// LatestForCandidate returns the newest record for a candidate.
func (r *PGRepo) LatestForCandidate(ctx context.Context, candidateID int64) (Record, error) {
	query := selectRecord + ` WHERE a.candidate_id = $1 ORDER BY a.created_at DESC, a.id DESC LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, candidateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("latest analysis for candidate %d: %w", candidateID, err)
	}
	return rec, nil
}

// ListByCandidate returns a candidate's records newest first.
func (r *PGRepo) ListByCandidate(ctx context.Context, candidateID int64) ([]Record, error) {
	return r.query(ctx, selectRecord+` WHERE a.candidate_id = $1 ORDER BY a.created_at DESC, a.id DESC`, candidateID)
}

// List returns every record newest first.
func (r *PGRepo) List(ctx context.Context) ([]Record, error) {
	return r.query(ctx, selectRecord+` ORDER BY a.created_at DESC, a.id DESC`)
}

// Replace overwrites the derived fields and question state of a record.
func (r *PGRepo) Replace(ctx context.Context, rec Record) (Record, error) {
	const query = `
UPDATE analysis_results SET
    match_score = $1,
    skills_analysis = $2,
    experience_analysis = $3,
    education_analysis = $4,
    interview_questions = $5,
    questions_generated = $6,
    candidate_profile = $7,
    analysis_report = $8,
    chart_data = $9,
    updated_at = now()
WHERE id = $10
RETURNING updated_at`

	cols, err := encodeRecord(rec)
	if err != nil {
		return Record{}, err
	}
	args := append([]any{rec.MatchScore}, cols.args()...)
	args = append(args, rec.ID)
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("replace analysis %d: %w", rec.ID, err)
	}
	return rec, nil
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// recordColumns holds the JSONB-encoded columns shared by insert and update.
type recordColumns struct {
	skills     string
	experience string
	education  string
	questions  string
	generated  bool
	profile    string
	report     string
	charts     string
}

func (c recordColumns) args() []any {
	return []any{c.skills, c.experience, c.education, c.questions, c.generated, c.profile, c.report, c.charts}
}

func encodeRecord(rec Record) (recordColumns, error) {
	questions := rec.Questions
	if questions == nil {
		questions = []string{}
	}
	cols := recordColumns{generated: rec.QuestionsGenerated, report: rec.Report}
	for _, f := range []struct {
		dst  *string
		name string
		v    any
	}{
		{&cols.skills, "skills_analysis", rec.Skills},
		{&cols.experience, "experience_analysis", rec.Experience},
		{&cols.education, "education_analysis", rec.Education},
		{&cols.questions, "interview_questions", questions},
		{&cols.profile, "candidate_profile", rec.Profile},
		{&cols.charts, "chart_data", rec.Charts},
	} {
		raw, err := json.Marshal(f.v)
		if err != nil {
			return recordColumns{}, fmt.Errorf("encode %s: %w", f.name, err)
		}
		*f.dst = string(raw)
	}
	return cols, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec                           Record
		skills, experience, education []byte
		questions, profile, charts    []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.CandidateID,
		&rec.JobDescriptionID,
		&rec.JobDescription,
		&rec.MatchScore,
		&skills,
		&experience,
		&education,
		&questions,
		&rec.QuestionsGenerated,
		&profile,
		&rec.Report,
		&charts,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Record{}, err
	}

	// Stored sections were written by encodeRecord; decoding them through the
	// normalizer also repairs rows written by older builds.
	a := pipeline.Normalize(fmt.Appendf(nil, `{"skills_analysis":%s,"experience_analysis":%s,"education_analysis":%s}`,
		orEmpty(skills, "{}"), orEmpty(experience, "{}"), orEmpty(education, "{}")))
	rec.Skills = a.SkillsAnalysis
	rec.Experience = a.ExperienceAnalysis
	rec.Education = a.EducationAnalysis

	rec.Questions = []string{}
	if err := decodeColumn(questions, &rec.Questions, "interview_questions"); err != nil {
		return Record{}, err
	}
	if err := decodeColumn(profile, &rec.Profile, "candidate_profile"); err != nil {
		return Record{}, err
	}
	if err := decodeColumn(charts, &rec.Charts, "chart_data"); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func decodeColumn(raw []byte, dst any, name string) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func orEmpty(raw []byte, fallback string) []byte {
	if len(raw) == 0 {
		return []byte(fallback)
	}
	return raw
}
