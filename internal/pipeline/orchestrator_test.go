package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruit-assistant/internal/llm"
	"recruit-assistant/internal/llm/mock"
	"recruit-assistant/internal/shared/telemetry"
)

const parsedProfile = `{"name": "王五", "skills": ["Go", "Redis"], "work_experience": [{"company": "甲公司", "position": "工程师"}], "education": {"degree": "硕士", "school": "某大学"}}`

func TestRunProseWrappedAnalysis(t *testing.T) {
	c := newScripted(map[string]reply{
		llm.TaskParseResume: {text: parsedProfile},
		llm.TaskAnalyze:     {text: `Here is the result: {"match_score": 92, "strengths": ["Go"]} Hope this helps.`},
		llm.TaskReport:      {text: "  # 报告  "},
	})
	out := New(c).Run(context.Background(), Input{ResumeText: "resume", JobDescription: "Go 开发"})

	assert.Equal(t, 92.0, out.Analysis.MatchScore)
	assert.Equal(t, []string{"Go"}, out.Analysis.Strengths)
	assert.Equal(t, DefaultPotential, out.Analysis.Potential)
	assert.Equal(t, "王五", out.Profile.Name)
	assert.Equal(t, "# 报告", out.Report)
	assert.Equal(t, 92.0, out.Charts.MatchScore)
	assert.Empty(t, out.Degraded)
}

func TestRunAnalysisWithoutJSONFallsBack(t *testing.T) {
	c := newScripted(map[string]reply{
		llm.TaskParseResume: {text: parsedProfile},
		llm.TaskAnalyze:     {text: "I'm sorry, I cannot help with that."},
		llm.TaskReport:      {text: "report"},
	})
	out := New(c).Run(context.Background(), Input{ResumeText: "resume", JobDescription: "需要 Redis 经验"})

	profile, _ := NormalizeProfile([]byte(parsedProfile))
	assert.Equal(t, Synthesize(profile, "需要 Redis 经验"), out.Analysis)
	assert.Equal(t, []Degradation{{Stage: StageAnalyzing, Reason: ReasonExtractionFailed}}, out.Degraded)
	assert.Equal(t, "report", out.Report)
}

func TestRunAnalysisTransportFailures(t *testing.T) {
	cases := map[string]struct {
		err    error
		reason string
	}{
		"timeout":   {err: &llm.TransportError{Task: llm.TaskAnalyze, Timeout: true}, reason: ReasonTimeout},
		"deadline":  {err: fmt.Errorf("call: %w", context.DeadlineExceeded), reason: ReasonTimeout},
		"transport": {err: &llm.TransportError{Task: llm.TaskAnalyze, StatusCode: 502}, reason: ReasonTransport},
		"other":     {err: errors.New("boom"), reason: ReasonError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newScripted(map[string]reply{
				llm.TaskParseResume: {text: parsedProfile},
				llm.TaskAnalyze:     {err: tc.err},
				llm.TaskReport:      {text: "report"},
			})
			out := New(c).Run(context.Background(), Input{ResumeText: "resume"})

			assert.Equal(t, 1, c.callCount(llm.TaskAnalyze))
			assert.Equal(t, []Degradation{{Stage: StageAnalyzing, Reason: tc.reason}}, out.Degraded)
			assert.Equal(t, 50.0, out.Analysis.MatchScore)
			assert.Equal(t, []string{"Go", "Redis"}, out.Analysis.SkillsAnalysis.CandidateSkills)
		})
	}
}

func TestRunParseFailureUsesPlaceholder(t *testing.T) {
	c := newScripted(map[string]reply{
		llm.TaskParseResume: {text: "no json here"},
		llm.TaskAnalyze:     {text: `{"match_score": 60}`},
		llm.TaskReport:      {text: "report"},
	})
	out := New(c).Run(context.Background(), Input{ResumeText: "张三 简历"})

	assert.Equal(t, UnknownName, out.Profile.Name)
	assert.Equal(t, "张三 简历", out.Profile.Summary)
	assert.Equal(t, 60.0, out.Analysis.MatchScore)
	assert.Equal(t, []Degradation{{Stage: StageParsing, Reason: ReasonExtractionFailed}}, out.Degraded)
}

func TestRunSkipsParsingWhenProfileGiven(t *testing.T) {
	c := newScripted(map[string]reply{
		llm.TaskAnalyze: {text: `{"match_score": 70}`},
		llm.TaskReport:  {text: "report"},
	})
	p := ResumeProfile{Name: "赵六", Skills: []string{"Go"}}
	out := New(c).Run(context.Background(), Input{ResumeText: "ignored", Profile: &p})

	assert.Zero(t, c.callCount(llm.TaskParseResume))
	assert.Equal(t, "赵六", out.Profile.Name)
	assert.Empty(t, out.Degraded)
}

func TestRunChartPanicDoesNotBlockReport(t *testing.T) {
	c := newScripted(map[string]reply{
		llm.TaskParseResume: {text: parsedProfile},
		llm.TaskAnalyze:     {text: `{"match_score": 80}`},
		llm.TaskReport:      {text: "report"},
	})
	o := New(c)
	o.project = func(AnalysisResult) ChartBundle { panic("bad chart") }

	out := o.Run(context.Background(), Input{ResumeText: "resume"})

	assert.Equal(t, DefaultChartBundle(), out.Charts)
	assert.Equal(t, "report", out.Report)
	assert.Equal(t, 80.0, out.Analysis.MatchScore)
	assert.Equal(t, []Degradation{{Stage: StageChart, Reason: ReasonPanic}}, out.Degraded)
}

func TestRunReportFailureDoesNotBlockCharts(t *testing.T) {
	cases := map[string]struct {
		r      reply
		reason string
	}{
		"panic": {r: reply{panic: true}, reason: ReasonPanic},
		"error": {r: reply{err: &llm.TransportError{StatusCode: 500}}, reason: ReasonTransport},
		"empty": {r: reply{text: "  \n "}, reason: ReasonEmptyOutput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newScripted(map[string]reply{
				llm.TaskParseResume: {text: parsedProfile},
				llm.TaskAnalyze:     {text: `{"match_score": 80}`},
				llm.TaskReport:      tc.r,
			})
			out := New(c).Run(context.Background(), Input{ResumeText: "resume"})

			assert.Equal(t, "", out.Report)
			assert.Equal(t, Project(out.Analysis), out.Charts)
			assert.Equal(t, []Degradation{{Stage: StageReport, Reason: tc.reason}}, out.Degraded)
		})
	}
}

func TestRunProjectingRunsChartAndReportConcurrently(t *testing.T) {
	release := make(chan struct{})
	c := newScripted(map[string]reply{
		llm.TaskParseResume: {text: parsedProfile},
		llm.TaskAnalyze:     {text: `{"match_score": 80}`},
		llm.TaskReport:      {text: "report", wait: release},
	})
	o := New(c)
	o.project = func(a AnalysisResult) ChartBundle {
		close(release)
		return Project(a)
	}

	done := make(chan Outcome, 1)
	go func() { done <- o.Run(context.Background(), Input{ResumeText: "resume"}) }()

	select {
	case out := <-done:
		assert.Equal(t, "report", out.Report)
		assert.Empty(t, out.Degraded)
	case <-time.After(5 * time.Second):
		t.Fatal("report never observed the chart stage running")
	}
}

func TestRunWorkerCountDoesNotChangeOutcome(t *testing.T) {
	script := map[string]reply{
		llm.TaskParseResume: {text: parsedProfile},
		llm.TaskAnalyze:     {text: `{"match_score": 75, "skills_analysis": {"skill_scores": {"Go": 88}}}`},
		llm.TaskReport:      {text: "report"},
	}
	one := New(newScripted(script))
	one.Workers = 1
	two := New(newScripted(script))

	in := Input{ResumeText: "resume", JobDescription: "jd"}
	assert.Equal(t, one.Run(context.Background(), in), two.Run(context.Background(), in))
}

func TestRunTemperatures(t *testing.T) {
	c := newScripted(map[string]reply{
		llm.TaskParseResume: {text: parsedProfile},
		llm.TaskAnalyze:     {text: `{}`},
		llm.TaskReport:      {text: "report"},
		llm.TaskQuestions:   {text: `["q"]`},
	})
	o := New(c)
	out := o.Run(context.Background(), Input{ResumeText: "resume"})
	o.GenerateQuestions(context.Background(), out.Profile, "", out.Analysis)

	assert.Equal(t, map[string]float64{
		llm.TaskParseResume: 0.7,
		llm.TaskAnalyze:     0.3,
		llm.TaskReport:      0.8,
		llm.TaskQuestions:   0.7,
	}, c.temps)
}

func TestRunWithoutClientDegradesEveryModelStage(t *testing.T) {
	out := New(nil).Run(context.Background(), Input{ResumeText: "简历"})

	assert.Equal(t, UnknownName, out.Profile.Name)
	assert.Equal(t, 50.0, out.Analysis.MatchScore)
	assert.Equal(t, "", out.Report)
	assert.Len(t, out.Degraded, 3)
}

func TestRunWithMockClient(t *testing.T) {
	c := mock.New()
	out := New(c).Run(context.Background(), Input{ResumeText: "resume", JobDescription: "Python 后端"})

	assert.Equal(t, int64(3), c.Calls())
	assert.Empty(t, out.Degraded)
	assert.Equal(t, "张三", out.Profile.Name)
	require.Len(t, out.Profile.Education, 1)
	assert.Equal(t, "北京理工大学", out.Profile.Education[0].School)
	assert.Equal(t, 85.0, out.Analysis.MatchScore)
	assert.Equal(t, []string{"初级开发 -> 高级开发"}, out.Analysis.ExperienceAnalysis.PositionProgression)
	assert.Equal(t, []string{"互联网、电商"}, out.Analysis.ExperienceAnalysis.IndustryExperience)
	assert.Equal(t, []string{"Python", "Django", "MySQL", "Redis", "微服务"}, out.Charts.SkillRadar.Categories)
	assert.Contains(t, out.Report, "候选人分析报告")
}

func TestRegenerateReparsesWhenTextAvailable(t *testing.T) {
	c := newScripted(map[string]reply{
		llm.TaskParseResume: {text: parsedProfile},
		llm.TaskAnalyze:     {text: `{"match_score": 66}`},
		llm.TaskReport:      {text: "report"},
	})
	stale := ResumeProfile{Name: "旧名字"}
	out := New(c).Regenerate(context.Background(), Input{ResumeText: "resume", Profile: &stale})
	assert.Equal(t, 1, c.callCount(llm.TaskParseResume))
	assert.Equal(t, "王五", out.Profile.Name)

	out = New(c).Regenerate(context.Background(), Input{Profile: &stale})
	assert.Equal(t, 1, c.callCount(llm.TaskParseResume))
	assert.Equal(t, "旧名字", out.Profile.Name)
}

func TestGenerateQuestions(t *testing.T) {
	many := `[` + `"q1","q2","q3","q4","q5","q6","q7","q8","q9","q10","q11","q12"` + `]`
	cases := map[string]struct {
		r    reply
		want func() []string
	}{
		"padded": {
			r: reply{text: "问题如下：[\"你好？\", \"你好？\", \"  \", \"为什么？\"]"},
			want: func() []string {
				return append([]string{"你好？", "为什么？"}, DefaultQuestions()[:8]...)
			},
		},
		"truncated": {
			r: reply{text: many},
			want: func() []string {
				return []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8", "q9", "q10"}
			},
		},
		"objects": {
			r: reply{text: `[{"question": "x"}, {"title": "y"}]`},
			want: func() []string {
				return append([]string{"y"}, DefaultQuestions()[:9]...)
			},
		},
		"no array":  {r: reply{text: "没有问题"}, want: DefaultQuestions},
		"empty":     {r: reply{text: "[]"}, want: DefaultQuestions},
		"transport": {r: reply{err: &llm.TransportError{StatusCode: 503}}, want: DefaultQuestions},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newScripted(map[string]reply{llm.TaskQuestions: tc.r})
			got := New(c).GenerateQuestions(context.Background(), EmptyResumeProfile(), "", EmptyAnalysisResult())
			assert.Len(t, got, QuestionCount)
			assert.Equal(t, tc.want(), got)
		})
	}
}

func TestGenerateQuestionsLogsTransition(t *testing.T) {
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	c := newScripted(map[string]reply{llm.TaskQuestions: {text: `["q1"]`}})
	ctx := WithRecord(context.Background(), 7)
	New(c).GenerateQuestions(ctx, EmptyResumeProfile(), "", EmptyAnalysisResult())

	logs := buf.String()
	assert.Contains(t, logs, `"msg":"pipeline.transition"`)
	assert.Contains(t, logs, `"status":"questions_generated"`)
	assert.Contains(t, logs, `"record_id":7`)
}

func TestCompleteQuestionsIncludesDefaultsOnce(t *testing.T) {
	got := CompleteQuestions([]string{DefaultQuestions()[0], "新问题"})
	assert.Len(t, got, QuestionCount)
	assert.Equal(t, DefaultQuestions()[0], got[0])
	assert.Equal(t, "新问题", got[1])
	assert.Equal(t, DefaultQuestions()[1:9], got[2:])
}

func TestWithRecord(t *testing.T) {
	ctx := WithRecord(context.Background(), 42)
	id, ok := recordFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = recordFromContext(context.Background())
	assert.False(t, ok)
}
