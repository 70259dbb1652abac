package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"recruit-assistant/internal/llm"
	"recruit-assistant/internal/shared/metrics"
	"recruit-assistant/internal/shared/telemetry"
)

// Stage names used in logs and metrics.
const (
	StageParsing    = "parsing"
	StageAnalyzing  = "analyzing"
	StageProjecting = "projecting"
	StageChart      = "chart"
	StageReport     = "report"
	StageQuestions  = "questions"
)

// Status is the lifecycle position of an analysis.
type Status string

const (
	StatusParsing            Status = "parsing"
	StatusAnalyzing          Status = "analyzing"
	StatusProjecting         Status = "projecting"
	StatusComplete           Status = "complete"
	StatusQuestionsGenerated Status = "questions_generated"
)

// Degradation reasons.
const (
	ReasonTimeout          = "timeout"
	ReasonTransport        = "transport"
	ReasonExtractionFailed = "extraction_failed"
	ReasonEmptyOutput      = "empty_output"
	ReasonPanic            = "panic"
	ReasonError            = "error"
)

const defaultWorkers = 2

// Degradation records a stage that fell back to its local default.
type Degradation struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// Input drives one pipeline run. When Profile is set the parsing stage is
// skipped. Questions, if any, are handed to the report.
type Input struct {
	ResumeText     string
	JobDescription string
	Profile        *ResumeProfile
	Questions      []string
}

// Outcome is everything one run derives.
type Outcome struct {
	Profile  ResumeProfile  `json:"profile"`
	Analysis AnalysisResult `json:"analysis"`
	Charts   ChartBundle    `json:"charts"`
	Report   string         `json:"report"`
	Degraded []Degradation  `json:"degraded,omitempty"`
}

// Orchestrator sequences model calls from raw resume text to a complete
// analysis. Every stage absorbs model failures and degrades to a local result.
type Orchestrator struct {
	LLM llm.Completer
	// Workers bounds the projecting stage's pool; 2 when zero.
	Workers int

	project func(AnalysisResult) ChartBundle
	now     func() time.Time
}

// New returns an orchestrator bound to a model client.
func New(c llm.Completer) *Orchestrator {
	return &Orchestrator{LLM: c, Workers: defaultWorkers}
}

type recordKey struct{}

// WithRecord tags pipeline logs emitted under ctx with an analysis record id.
func WithRecord(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, recordKey{}, id)
}

func recordFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(recordKey{}).(int64)
	return id, ok
}

// Run executes Parsing, Analyzing and Projecting. It never fails.
func (o *Orchestrator) Run(ctx context.Context, in Input) Outcome {
	var (
		out Outcome
		mu  sync.Mutex
	)
	note := func(d *Degradation) {
		if d == nil {
			return
		}
		mu.Lock()
		out.Degraded = append(out.Degraded, *d)
		mu.Unlock()
	}

	if in.Profile != nil {
		out.Profile = *in.Profile
	} else {
		o.transition(ctx, StatusParsing)
		profile, d := o.parse(ctx, in.ResumeText)
		note(d)
		out.Profile = profile
	}

	o.transition(ctx, StatusAnalyzing)
	analysis, d := o.analyze(ctx, out.Profile, in.JobDescription)
	note(d)
	out.Analysis = analysis

	o.transition(ctx, StatusProjecting)
	start := o.clock()
	var g errgroup.Group
	g.SetLimit(o.workers())
	g.Go(func() error {
		charts, d := o.safeProject(ctx, analysis)
		note(d)
		out.Charts = charts
		return nil
	})
	g.Go(func() error {
		report, d := o.report(ctx, out.Profile, in.JobDescription, analysis, in.Questions)
		note(d)
		out.Report = report
		return nil
	})
	_ = g.Wait()
	metrics.ObserveStage(StageProjecting, o.since(start))

	o.transition(ctx, StatusComplete)
	return out
}

// Regenerate re-runs the whole pipeline. The resume is parsed again when its
// text is available; otherwise the given profile is reused.
func (o *Orchestrator) Regenerate(ctx context.Context, in Input) Outcome {
	if strings.TrimSpace(in.ResumeText) != "" {
		in.Profile = nil
	}
	return o.Run(ctx, in)
}

// Parse turns raw resume text into a profile, or a placeholder on failure.
func (o *Orchestrator) Parse(ctx context.Context, resumeText string) ResumeProfile {
	p, _ := o.parse(ctx, resumeText)
	return p
}

// Analyze produces the canonical analysis, synthesizing one when the model fails.
func (o *Orchestrator) Analyze(ctx context.Context, profile ResumeProfile, jobDescription string) AnalysisResult {
	a, _ := o.analyze(ctx, profile, jobDescription)
	return a
}

// Project derives charts, returning DefaultChartBundle if derivation panics.
func (o *Orchestrator) Project(ctx context.Context, a AnalysisResult) ChartBundle {
	c, _ := o.safeProject(ctx, a)
	return c
}

// Report asks the model for the narrative report; "" on failure.
func (o *Orchestrator) Report(ctx context.Context, profile ResumeProfile, jobDescription string, a AnalysisResult, questions []string) string {
	r, _ := o.report(ctx, profile, jobDescription, a, questions)
	return r
}

// GenerateQuestions returns exactly QuestionCount questions. Model output is
// deduplicated, truncated and padded from DefaultQuestions.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, profile ResumeProfile, jobDescription string, a AnalysisResult) []string {
	q, _ := o.questions(ctx, profile, jobDescription, a)
	o.transition(ctx, StatusQuestionsGenerated)
	return q
}

func (o *Orchestrator) parse(ctx context.Context, resumeText string) (ResumeProfile, *Degradation) {
	defer o.observe(StageParsing, o.clock())
	text, err := o.complete(ctx, llm.TaskParseResume, parseMessages(resumeText), parseTemperature)
	if err != nil {
		return PlaceholderProfile(resumeText), o.degrade(ctx, StageParsing, reasonFor(err), err)
	}
	raw, err := Extract(text, KindObject)
	if err != nil {
		return PlaceholderProfile(resumeText), o.degrade(ctx, StageParsing, ReasonExtractionFailed, err)
	}
	profile, ok := NormalizeProfile(json.RawMessage(raw))
	if !ok {
		return PlaceholderProfile(resumeText), o.degrade(ctx, StageParsing, ReasonExtractionFailed, ErrExtractionFailed)
	}
	return profile, nil
}

func (o *Orchestrator) analyze(ctx context.Context, profile ResumeProfile, jobDescription string) (AnalysisResult, *Degradation) {
	defer o.observe(StageAnalyzing, o.clock())
	text, err := o.complete(ctx, llm.TaskAnalyze, analysisMessages(profile, jobDescription), analysisTemperature)
	if err != nil {
		return Synthesize(profile, jobDescription), o.degrade(ctx, StageAnalyzing, reasonFor(err), err)
	}
	raw, err := Extract(text, KindObject)
	if err != nil {
		return Synthesize(profile, jobDescription), o.degrade(ctx, StageAnalyzing, ReasonExtractionFailed, err)
	}
	return Normalize(json.RawMessage(raw)), nil
}

func (o *Orchestrator) safeProject(ctx context.Context, a AnalysisResult) (charts ChartBundle, d *Degradation) {
	defer o.observe(StageChart, o.clock())
	defer func() {
		if rec := recover(); rec != nil {
			charts = DefaultChartBundle()
			d = o.degrade(ctx, StageChart, ReasonPanic, fmt.Errorf("%v", rec))
		}
	}()
	project := o.project
	if project == nil {
		project = Project
	}
	return project(a), nil
}

func (o *Orchestrator) report(ctx context.Context, profile ResumeProfile, jobDescription string, a AnalysisResult, questions []string) (report string, d *Degradation) {
	defer o.observe(StageReport, o.clock())
	defer func() {
		if rec := recover(); rec != nil {
			report = ""
			d = o.degrade(ctx, StageReport, ReasonPanic, fmt.Errorf("%v", rec))
		}
	}()
	text, err := o.complete(ctx, llm.TaskReport, reportMessages(profile, jobDescription, a, questions), reportTemperature)
	if err != nil {
		return "", o.degrade(ctx, StageReport, reasonFor(err), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", o.degrade(ctx, StageReport, ReasonEmptyOutput, errors.New("empty report"))
	}
	return text, nil
}

func (o *Orchestrator) questions(ctx context.Context, profile ResumeProfile, jobDescription string, a AnalysisResult) ([]string, *Degradation) {
	defer o.observe(StageQuestions, o.clock())
	text, err := o.complete(ctx, llm.TaskQuestions, questionsMessages(profile, jobDescription, a), questionsTemperature)
	if err != nil {
		return DefaultQuestions(), o.degrade(ctx, StageQuestions, reasonFor(err), err)
	}
	raw, err := Extract(text, KindArray)
	if err != nil {
		return DefaultQuestions(), o.degrade(ctx, StageQuestions, ReasonExtractionFailed, err)
	}
	got := coerceStrings(json.RawMessage(raw))
	if len(got) == 0 {
		return DefaultQuestions(), o.degrade(ctx, StageQuestions, ReasonEmptyOutput, errors.New("no questions in model output"))
	}
	return CompleteQuestions(got), nil
}

// CompleteQuestions dedupes qs and fits it to exactly QuestionCount entries,
// padding from DefaultQuestions.
func CompleteQuestions(qs []string) []string {
	out := make([]string, 0, QuestionCount)
	seen := make(map[string]struct{}, QuestionCount)
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" || len(out) == QuestionCount {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	for _, q := range qs {
		add(q)
	}
	for _, q := range DefaultQuestions() {
		add(q)
	}
	return out
}

func (o *Orchestrator) complete(ctx context.Context, task string, messages []llm.Message, temperature float64) (string, error) {
	if o.LLM == nil {
		return "", llm.ErrNotConfigured
	}
	return o.LLM.Complete(llm.WithTask(ctx, task), messages, temperature)
}

func (o *Orchestrator) degrade(ctx context.Context, stage, reason string, err error) *Degradation {
	metrics.IncFallback(stage, reason)
	fields := map[string]any{
		"stage":  stage,
		"reason": reason,
		"error":  err,
	}
	withContextFields(ctx, fields)
	telemetry.Warn("pipeline.degraded", fields)
	return &Degradation{Stage: stage, Reason: reason}
}

func (o *Orchestrator) transition(ctx context.Context, s Status) {
	fields := map[string]any{"status": string(s)}
	withContextFields(ctx, fields)
	telemetry.Debug("pipeline.transition", fields)
}

func withContextFields(ctx context.Context, fields map[string]any) {
	if id, ok := recordFromContext(ctx); ok {
		fields["record_id"] = id
	}
	if rid := telemetry.RequestID(ctx); rid != "" {
		fields["request_id"] = rid
	}
}

func (o *Orchestrator) observe(stage string, start time.Time) {
	metrics.ObserveStage(stage, o.since(start))
}

func (o *Orchestrator) workers() int {
	if o.Workers <= 0 {
		return defaultWorkers
	}
	return o.Workers
}

func (o *Orchestrator) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

func (o *Orchestrator) since(start time.Time) time.Duration {
	return o.clock().Sub(start)
}

func reasonFor(err error) string {
	switch {
	case llm.IsTimeout(err):
		return ReasonTimeout
	case errors.Is(err, ErrExtractionFailed):
		return ReasonExtractionFailed
	}
	var te *llm.TransportError
	if errors.As(err, &te) {
		return ReasonTransport
	}
	return ReasonError
}
