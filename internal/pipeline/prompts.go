package pipeline

import (
	_ "embed"
	"encoding/json"
	"strings"

	"recruit-assistant/internal/llm"
)

var (
	//go:embed prompts/parse_resume.txt
	parsePrompt string
	//go:embed prompts/comprehensive_analysis.txt
	analysisPrompt string
	//go:embed prompts/analysis_report.txt
	reportPrompt string
	//go:embed prompts/interview_questions.txt
	questionsPrompt string
)

const (
	systemPromptJSON   = "你是专业的AI招聘助手。只返回有效的JSON，不要输出其他文字。"
	systemPromptReport = "你是专业的AI招聘助手，擅长撰写结构清晰的Markdown候选人分析报告。"
)

// Sampling temperatures per task.
const (
	parseTemperature     = 0.7
	analysisTemperature  = 0.3
	reportTemperature    = 0.8
	questionsTemperature = 0.7
)

func parseMessages(resumeText string) []llm.Message {
	text := resumeText
	if strings.TrimSpace(text) == "" {
		text = "N/A"
	}
	return []llm.Message{
		llm.System(systemPromptJSON),
		llm.User(fill(parsePrompt, "{{RESUME_TEXT}}", text)),
	}
}

func analysisMessages(profile ResumeProfile, jobDescription string) []llm.Message {
	return []llm.Message{
		llm.System(systemPromptJSON),
		llm.User(fill(analysisPrompt,
			"{{RESUME_JSON}}", indentJSON(profile),
			"{{JOB_DESCRIPTION}}", jobDescriptionOrNA(jobDescription),
		)),
	}
}

func questionsMessages(profile ResumeProfile, jobDescription string, analysis AnalysisResult) []llm.Message {
	return []llm.Message{
		llm.System(systemPromptJSON),
		llm.User(fill(questionsPrompt,
			"{{RESUME_JSON}}", indentJSON(profile),
			"{{JOB_DESCRIPTION}}", jobDescriptionOrNA(jobDescription),
			"{{ANALYSIS_JSON}}", indentJSON(analysis),
		)),
	}
}

func reportMessages(profile ResumeProfile, jobDescription string, analysis AnalysisResult, questions []string) []llm.Message {
	return []llm.Message{
		llm.System(systemPromptReport),
		llm.User(fill(reportPrompt,
			"{{RESUME_JSON}}", indentJSON(profile),
			"{{JOB_DESCRIPTION}}", jobDescriptionOrNA(jobDescription),
			"{{ANALYSIS_JSON}}", indentJSON(analysis),
			"{{QUESTIONS_JSON}}", indentJSON(nonNil(questions)),
		)),
	}
}

// fill substitutes placeholders in a single pass so inserted text is never rescanned.
func fill(template string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(template)
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func jobDescriptionOrNA(jd string) string {
	if strings.TrimSpace(jd) == "" {
		return "N/A"
	}
	return jd
}
