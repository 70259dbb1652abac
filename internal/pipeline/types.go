package pipeline

import (
	"encoding/json"
	"fmt"
)

// ResumeProfile holds the candidate facts extracted from raw resume text.
type ResumeProfile struct {
	Name           string            `json:"name"`
	ContactInfo    map[string]string `json:"contact_info"`
	Summary        string            `json:"summary"`
	Skills         []string          `json:"skills"`
	Experience     []WorkExperience  `json:"experience"`
	Education      []EducationEntry  `json:"education"`
	Projects       []string          `json:"projects"`
	Certifications []string          `json:"certifications"`
}

// WorkExperience is one entry of a candidate's employment history.
type WorkExperience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Industry    string `json:"industry,omitempty"`
}

// EducationEntry is one degree held by the candidate.
type EducationEntry struct {
	Degree string `json:"degree"`
	Major  string `json:"major"`
	School string `json:"school"`
	Year   string `json:"year"`
}

// AnalysisResult is the canonical match analysis. Every field is always
// populated; decoding JSON into it runs Normalize.
type AnalysisResult struct {
	MatchScore         float64            `json:"match_score"`
	SkillsAnalysis     SkillsAnalysis     `json:"skills_analysis"`
	ExperienceAnalysis ExperienceAnalysis `json:"experience_analysis"`
	EducationAnalysis  EducationAnalysis  `json:"education_analysis"`
	Strengths          []string           `json:"strengths"`
	Weaknesses         []string           `json:"weaknesses"`
	Potential          string             `json:"potential"`

	// Extra keeps unknown top-level keys so they survive a round trip.
	Extra map[string]json.RawMessage `json:"-"`
}

// SkillsAnalysis compares required and held skills.
type SkillsAnalysis struct {
	RequiredSkills  []string   `json:"required_skills"`
	CandidateSkills []string   `json:"candidate_skills"`
	MatchedSkills   []string   `json:"matched_skills"`
	MissingSkills   []string   `json:"missing_skills"`
	SkillScores     ScoreTable `json:"skill_scores"`
}

// ExperienceAnalysis summarizes work history. Years are fractional.
type ExperienceAnalysis struct {
	TotalExperience     float64  `json:"total_experience"`
	RelevantExperience  float64  `json:"relevant_experience"`
	CompanyCount        int      `json:"company_count"`
	PositionProgression []string `json:"position_progression"`
	IndustryExperience  []string `json:"industry_experience"`
}

// EducationAnalysis scores the candidate's education.
type EducationAnalysis struct {
	DegreeLevel    string  `json:"degree_level"`
	Major          string  `json:"major"`
	School         string  `json:"school"`
	GraduationYear *int    `json:"graduation_year"`
	EducationScore float64 `json:"education_score"`
}

type analysisResultJSON AnalysisResult

// MarshalJSON emits the canonical fields followed by any preserved extras.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(analysisResultJSON(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}
	merged := make(map[string]json.RawMessage, len(r.Extra)+len(canonicalKeys))
	for k, v := range r.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, fmt.Errorf("merge extras: %w", err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes leniently: any JSON value yields a fully populated result.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	*r = Normalize(data)
	return nil
}

// Series is an ordered list of (category, value) pairs.
type Series struct {
	Categories []string  `json:"categories"`
	Values     []float64 `json:"values"`
}

// PieSlice is one slice of a pie chart.
type PieSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ChartBundle is the presentation data derived from an AnalysisResult.
type ChartBundle struct {
	SkillRadar         Series     `json:"skill_radar"`
	ExperienceBar      Series     `json:"experience_bar"`
	EducationPie       []PieSlice `json:"education_pie"`
	SkillComparison    Series     `json:"skill_comparison"`
	ComprehensiveRadar Series     `json:"comprehensive_radar"`
	MatchScore         float64    `json:"match_score"`
}

// CandidateProfile is the condensed candidate view stored with an analysis.
type CandidateProfile struct {
	Name        string            `json:"name"`
	ContactInfo map[string]string `json:"contact_info"`
	Summary     string            `json:"summary"`
	Strengths   []string          `json:"strengths"`
	Weaknesses  []string          `json:"weaknesses"`
	Potential   string            `json:"potential"`
}

// NewCandidateProfile combines parsed resume facts with the analysis verdict.
func NewCandidateProfile(p ResumeProfile, a AnalysisResult) CandidateProfile {
	contact := p.ContactInfo
	if contact == nil {
		contact = map[string]string{}
	}
	return CandidateProfile{
		Name:        p.Name,
		ContactInfo: contact,
		Summary:     p.Summary,
		Strengths:   nonNil(a.Strengths),
		Weaknesses:  nonNil(a.Weaknesses),
		Potential:   a.Potential,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
