package pipeline

import "strings"

// UnknownName is used when the candidate's name could not be parsed.
const UnknownName = "未知"

// EmptyAnalysisResult is the canonical zero result: every field present,
// every collection empty and never nil.
func EmptyAnalysisResult() AnalysisResult {
	return AnalysisResult{
		SkillsAnalysis:     emptySkills(),
		ExperienceAnalysis: emptyExperience(),
		EducationAnalysis:  emptyEducation(),
		Strengths:          []string{},
		Weaknesses:         []string{},
		Potential:          DefaultPotential,
	}
}

// FloorAnalysisResult is the static last-resort result used when even the
// heuristic fallback cannot run.
func FloorAnalysisResult() AnalysisResult {
	r := EmptyAnalysisResult()
	r.MatchScore = 50.0
	r.EducationAnalysis.DegreeLevel = UnknownName
	r.EducationAnalysis.Major = UnknownName
	r.EducationAnalysis.School = UnknownName
	r.EducationAnalysis.EducationScore = 60.0
	r.Strengths = []string{"有学习能力"}
	r.Weaknesses = []string{"需要进一步了解"}
	r.Potential = "需要进一步评估"
	return r
}

func emptySkills() SkillsAnalysis {
	return SkillsAnalysis{
		RequiredSkills:  []string{},
		CandidateSkills: []string{},
		MatchedSkills:   []string{},
		MissingSkills:   []string{},
		SkillScores:     ScoreTable{},
	}
}

func emptyExperience() ExperienceAnalysis {
	return ExperienceAnalysis{
		PositionProgression: []string{},
		IndustryExperience:  []string{},
	}
}

func emptyEducation() EducationAnalysis {
	return EducationAnalysis{}
}

// EmptyResumeProfile has every collection allocated.
func EmptyResumeProfile() ResumeProfile {
	return ResumeProfile{
		ContactInfo:    map[string]string{},
		Skills:         []string{},
		Experience:     []WorkExperience{},
		Education:      []EducationEntry{},
		Projects:       []string{},
		Certifications: []string{},
	}
}

// PlaceholderProfile stands in for a resume the model could not parse.
// The summary carries the head of the raw text so later stages have something to read.
func PlaceholderProfile(resumeText string) ResumeProfile {
	p := EmptyResumeProfile()
	p.Name = UnknownName
	text := strings.TrimSpace(resumeText)
	if text == "" {
		return p
	}
	runes := []rune(text)
	if len(runes) > 200 {
		p.Summary = string(runes[:200]) + "..."
	} else {
		p.Summary = text
	}
	return p
}

// QuestionCount is the size of every interview question set.
const QuestionCount = 10

// DefaultQuestions returns the generic interview questions used to pad or
// replace model output.
func DefaultQuestions() []string {
	return []string{
		"请介绍一下您最擅长的技术栈？",
		"描述一个您解决过的技术难题？",
		"您在团队项目中通常扮演什么角色？",
		"您如何学习新的技术？",
		"您的职业规划是什么？",
		"描述一个您主导的项目？",
		"您如何处理工作中的压力？",
		"您认为自己的优势是什么？",
		"您希望从这份工作中获得什么？",
		"您还有什么问题要问我们？",
	}
}

// degreeScore maps a degree level to an education score.
func degreeScore(level string) (float64, bool) {
	l := strings.ToLower(level)
	switch {
	case strings.Contains(l, "博士") || strings.Contains(l, "phd") || strings.Contains(l, "doctor"):
		return 95, true
	case strings.Contains(l, "硕士") || strings.Contains(l, "master"):
		return 85, true
	case strings.Contains(l, "本科") || strings.Contains(l, "bachelor") || strings.Contains(l, "学士"):
		return 75, true
	case strings.Contains(l, "专科") || strings.Contains(l, "大专") || strings.Contains(l, "associate"):
		return 60, true
	default:
		return 50, false
	}
}
