package analyses

import (
	"time"

	"recruit-assistant/internal/pipeline"
)

// recordView is the JSON shape of a full analysis record.
type recordView struct {
	ID                 int64                       `json:"id"`
	CandidateID        int64                       `json:"candidate_id"`
	JobDescription     string                      `json:"job_description"`
	MatchScore         float64                     `json:"match_score"`
	SkillsAnalysis     pipeline.SkillsAnalysis     `json:"skills_analysis"`
	ExperienceAnalysis pipeline.ExperienceAnalysis `json:"experience_analysis"`
	EducationAnalysis  pipeline.EducationAnalysis  `json:"education_analysis"`
	InterviewQuestions []string                    `json:"interview_questions"`
	QuestionsGenerated bool                        `json:"questions_generated"`
	CandidateProfile   pipeline.CandidateProfile   `json:"candidate_profile"`
	AnalysisReport     string                      `json:"analysis_report"`
	ChartData          pipeline.ChartBundle        `json:"chart_data"`
	Degraded           []pipeline.Degradation      `json:"degraded,omitempty"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

func toView(r Record) recordView {
	questions := r.Questions
	if questions == nil {
		questions = []string{}
	}
	return recordView{
		ID:                 r.ID,
		CandidateID:        r.CandidateID,
		JobDescription:     r.JobDescription,
		MatchScore:         r.MatchScore,
		SkillsAnalysis:     r.Skills,
		ExperienceAnalysis: r.Experience,
		EducationAnalysis:  r.Education,
		InterviewQuestions: questions,
		QuestionsGenerated: r.QuestionsGenerated,
		CandidateProfile:   r.Profile,
		AnalysisReport:     r.Report,
		ChartData:          r.Charts,
		Degraded:           r.Degraded,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type historyItem struct {
	ID             int64     `json:"id"`
	JobDescription string    `json:"job_description"`
	MatchScore     float64   `json:"match_score"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const jobDescriptionPreviewRunes = 100

// previewJobDescription truncates long descriptions to 100 runes plus "...".
func previewJobDescription(text string) string {
	runes := []rune(text)
	if len(runes) <= jobDescriptionPreviewRunes {
		return text
	}
	return string(runes[:jobDescriptionPreviewRunes]) + "..."
}

func candidateName(p pipeline.CandidateProfile) string {
	if p.Name == "" {
		return pipeline.UnknownName
	}
	return p.Name
}
