package mock

import (
	"context"
	"fmt"
	"sync/atomic"

	"recruit-assistant/internal/llm"
)

const parseResponse = `简历解析结果如下：
{
  "name": "张三",
  "contact_info": {"phone": "13800138000", "email": "zhangsan@example.com", "address": "北京市朝阳区"},
  "summary": "三年后端开发经验，熟悉微服务与支付系统。",
  "education": {"degree": "本科", "major": "计算机科学与技术", "school": "北京理工大学", "graduation_year": 2022},
  "work_experience": [
    {"company": "腾讯科技", "position": "后端开发工程师", "duration": "2022-至今", "description": "负责微信支付系统后端开发，使用Python、Java开发微服务架构"}
  ],
  "skills": ["Python", "Java", "JavaScript", "Django", "Spring Boot", "MySQL", "Redis"],
  "projects": [{"name": "电商平台后端系统", "description": "使用Python Django开发RESTful API"}]
}`

const analysisResponse = "```json\n" + `{
  "match_score": 85.0,
  "skills_analysis": {
    "required_skills": ["Python", "Django", "微服务", "MySQL", "Redis"],
    "candidate_skills": ["Python", "Java", "JavaScript", "Django", "Spring Boot", "MySQL", "Redis"],
    "matched_skills": ["Python", "Django", "MySQL", "Redis"],
    "missing_skills": ["微服务"],
    "skill_scores": {"Python": 90.0, "Django": 85.0, "MySQL": 80.0, "Redis": 75.0, "微服务": 60.0}
  },
  "experience_analysis": {
    "total_experience": 3.5,
    "relevant_experience": 2.8,
    "company_count": 2,
    "position_progression": "初级开发 -> 高级开发",
    "industry_experience": "互联网、电商"
  },
  "education_analysis": {
    "degree_level": "本科",
    "major": "计算机科学与技术",
    "school": "某某大学",
    "graduation_year": 2020,
    "education_score": 85.0
  },
  "strengths": ["技术基础扎实，熟悉Python开发", "有实际项目经验", "学习能力强", "团队合作意识好"],
  "weaknesses": ["微服务架构经验不足", "大型系统设计经验有限"],
  "potential": "候选人具备良好的技术基础和学习能力，通过培训可以快速适应岗位要求，有较大的发展潜力。"
}` + "\n```"

const questionsResponse = `["请介绍一下您最擅长的技术栈？",
"描述一个您解决过的技术难题？",
"您在团队项目中通常扮演什么角色？",
"您如何学习新的技术？",
"您的职业规划是什么？",
"描述一个您主导的项目？",
"您如何处理工作中的压力？",
"您认为自己的优势是什么？",
"您希望从这份工作中获得什么？",
"您还有什么问题要问我们？"]`

const reportResponse = `# 候选人分析报告

## 匹配度分析
- **总体匹配度**: 85%
- **技能匹配**: 候选人在Python、Django、MySQL、Redis等核心技能方面表现优秀
- **教育背景**: 计算机科学与技术本科，符合要求

## 潜在关注点
1. **微服务经验**: 在微服务架构方面经验相对较少

## 推荐评级: A级候选人
`

// Client is a deterministic Completer returning canned output per task.
// It is selected by USE_MOCK_AI and used by tests.
type Client struct {
	calls atomic.Int64
}

// New returns a mock client.
func New() *Client { return &Client{} }

// Calls reports how many completions were served.
func (c *Client) Calls() int64 { return c.calls.Load() }

// Complete returns the canned response for the task carried by ctx.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, temperature float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &llm.TransportError{Task: llm.TaskFromContext(ctx), Err: err}
	}
	c.calls.Add(1)
	switch task := llm.TaskFromContext(ctx); task {
	case llm.TaskParseResume:
		return parseResponse, nil
	case llm.TaskAnalyze:
		return analysisResponse, nil
	case llm.TaskQuestions:
		return questionsResponse, nil
	case llm.TaskReport:
		return reportResponse, nil
	default:
		return "", fmt.Errorf("mock client: no canned response for task %q", task)
	}
}

var _ llm.Completer = (*Client)(nil)
