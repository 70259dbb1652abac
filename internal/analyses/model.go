package analyses

import (
	"time"

	"recruit-assistant/internal/pipeline"
)

// JobDescription is the posting a candidate was analyzed against.
type JobDescription struct {
	ID          int64
	CandidateID int64
	Text        string
	CreatedAt   time.Time
}

// Record is one persisted analysis of a candidate against a job description.
type Record struct {
	ID                 int64
	CandidateID        int64
	JobDescriptionID   int64
	JobDescription     string
	MatchScore         float64
	Skills             pipeline.SkillsAnalysis
	Experience         pipeline.ExperienceAnalysis
	Education          pipeline.EducationAnalysis
	Questions          []string
	QuestionsGenerated bool
	Profile            pipeline.CandidateProfile
	Report             string
	Charts             pipeline.ChartBundle
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Degraded lists the stages that fell back during the run that produced
	// the record. It is not persisted.
	Degraded []pipeline.Degradation
}

// Analysis rebuilds the canonical analysis the record was derived from.
func (r Record) Analysis() pipeline.AnalysisResult {
	a := pipeline.EmptyAnalysisResult()
	a.MatchScore = r.MatchScore
	a.SkillsAnalysis = r.Skills
	a.ExperienceAnalysis = r.Experience
	a.EducationAnalysis = r.Education
	if r.Profile.Strengths != nil {
		a.Strengths = r.Profile.Strengths
	}
	if r.Profile.Weaknesses != nil {
		a.Weaknesses = r.Profile.Weaknesses
	}
	if r.Profile.Potential != "" {
		a.Potential = r.Profile.Potential
	}
	return a
}

// apply replaces every field derived from a pipeline run. The question set
// and its flag are left alone.
func (r *Record) apply(out pipeline.Outcome) {
	r.MatchScore = out.Analysis.MatchScore
	r.Skills = out.Analysis.SkillsAnalysis
	r.Experience = out.Analysis.ExperienceAnalysis
	r.Education = out.Analysis.EducationAnalysis
	r.Profile = pipeline.NewCandidateProfile(out.Profile, out.Analysis)
	r.Report = out.Report
	r.Charts = out.Charts
	r.Degraded = out.Degraded
	if r.Questions == nil {
		r.Questions = []string{}
	}
}
