package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"unicode/utf8"

	"recruit-assistant/internal/shared/telemetry"
)

const (
	fallbackMatchScore     = 50.0
	fallbackEducationScore = 70.0
)

var scoreMentionPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)分`)

// Synthesize builds a rule-based AnalysisResult without the model. It never
// fails: an unexpected fault yields FloorAnalysisResult.
//
// The numeric placeholders (skill score = 60 + 2 x name length, 1.5 years per
// job) are stand-ins for display, not competency measurements.
func Synthesize(profile ResumeProfile, jobDescription string) (result AnalysisResult) {
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("pipeline.synthesize_panic", map[string]any{"error": fmt.Sprint(rec)})
			result = FloorAnalysisResult()
		}
	}()
	return synthesize(DefaultCatalogue(), profile, jobDescription)
}

func synthesize(cat *Catalogue, profile ResumeProfile, jobDescription string) AnalysisResult {
	out := EmptyAnalysisResult()
	out.MatchScore = scoreMention(profile)

	skills := nonNil(profile.Skills)
	out.SkillsAnalysis.RequiredSkills = cat.Match(jobDescription, MaxRequiredSkills)
	out.SkillsAnalysis.CandidateSkills = head(skills, 10)
	out.SkillsAnalysis.MatchedSkills = head(skills, 5)
	for _, s := range head(skills, 5) {
		out.SkillsAnalysis.SkillScores = out.SkillsAnalysis.SkillScores.set(s, lengthScore(s, 60, 2))
	}

	jobs := profile.Experience
	out.ExperienceAnalysis.TotalExperience = round1(1.5 * float64(len(jobs)))
	out.ExperienceAnalysis.RelevantExperience = round1(1.2 * float64(len(jobs)))
	out.ExperienceAnalysis.CompanyCount = len(distinct(jobs, func(e WorkExperience) string { return e.Company }))
	for i, e := range jobs {
		if i == 3 {
			break
		}
		pos := e.Position
		if pos == "" {
			pos = "未知职位"
		}
		out.ExperienceAnalysis.PositionProgression = append(out.ExperienceAnalysis.PositionProgression, pos)
	}
	out.ExperienceAnalysis.IndustryExperience = distinct(jobs, func(e WorkExperience) string { return e.Industry })

	edu := &out.EducationAnalysis
	edu.DegreeLevel = UnknownName
	edu.Major = "未知专业"
	edu.School = "未知学校"
	edu.EducationScore = fallbackEducationScore
	if len(profile.Education) > 0 {
		first := profile.Education[0]
		edu.DegreeLevel = orDefault(first.Degree, "本科")
		edu.Major = orDefault(first.Major, edu.Major)
		edu.School = orDefault(first.School, edu.School)
		if year, err := json.Marshal(first.Year); err == nil {
			edu.GraduationYear = coerceYear(year)
		}
		if score, ok := degreeScore(first.Degree); ok {
			edu.EducationScore = score
		}
	}

	hasJobs := len(jobs) > 0
	out.Strengths = []string{
		pick(hasJobs, "具备相关工作经验", "有学习能力"),
		pick(len(skills) > 3, "掌握多种技能", "有基础技能"),
		pick(len(profile.Education) > 0, "教育背景良好", "有发展潜力"),
	}
	out.Weaknesses = []string{
		pick(len(skills) < 3, "缺少特定技能经验", "经验相对有限"),
		pick(!hasJobs, "需要进一步培训", "技能深度待提升"),
	}
	out.Potential = "候选人具备基础条件，通过适当培训可以胜任工作"
	return out
}

// scoreMention looks for an explicit "NN分" in the profile text.
func scoreMention(profile ResumeProfile) float64 {
	data, err := json.Marshal(profile)
	if err != nil {
		return fallbackMatchScore
	}
	m := scoreMentionPattern.FindSubmatch(data)
	if m == nil {
		return fallbackMatchScore
	}
	return clampScore(firstNumber(string(m[1]), scorePattern))
}

// lengthScore is min(100, base + per x rune count of name).
func lengthScore(name string, base, per float64) float64 {
	return clampScore(base + per*float64(utf8.RuneCountInString(name)))
}

func head(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func distinct(jobs []WorkExperience, key func(WorkExperience) string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, j := range jobs {
		k := key(j)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
