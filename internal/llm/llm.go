package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"recruit-assistant/internal/shared/metrics"
	"recruit-assistant/internal/shared/telemetry"
)

// Message roles understood by chat-completions providers.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Task names label model invocations in logs and metrics.
const (
	TaskParseResume   = "parse_resume"
	TaskAnalyze       = "comprehensive_analysis"
	TaskReport        = "analysis_report"
	TaskQuestions     = "interview_questions"
	taskUnspecified   = "unspecified"
	outcomeOK         = "ok"
	outcomeTimeout    = "timeout"
	outcomeTransport  = "transport_error"
	outcomeOtherError = "error"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Completer is the single capability the pipeline needs from a model provider.
// Implementations do not retry; callers decide how to degrade.
type Completer interface {
	Complete(ctx context.Context, messages []Message, temperature float64) (string, error)
}

// ErrNotConfigured is returned when a real provider is selected without credentials.
var ErrNotConfigured = errors.New("llm provider not configured")

// TransportError reports a failed model invocation: network failure, timeout or non-2xx status.
type TransportError struct {
	Task       string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("llm %s: request timeout: %v", e.Task, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("llm %s: status %d: %v", e.Task, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("llm %s: %v", e.Task, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a model call that ran out of time.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) && te.Timeout {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type taskKey struct{}

// WithTask returns a context labelling model calls made under it.
func WithTask(ctx context.Context, task string) context.Context {
	return context.WithValue(ctx, taskKey{}, task)
}

// TaskFromContext returns the task label set by WithTask.
func TaskFromContext(ctx context.Context) string {
	if task, ok := ctx.Value(taskKey{}).(string); ok && task != "" {
		return task
	}
	return taskUnspecified
}

// Instrumented wraps a Completer with per-task logging and metrics.
type Instrumented struct {
	Next     Completer
	Provider string
}

// Complete forwards to Next and records the outcome.
func (i Instrumented) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	task := TaskFromContext(ctx)
	start := time.Now()
	out, err := i.Next.Complete(ctx, messages, temperature)
	elapsed := time.Since(start)

	outcome := classify(err)
	metrics.ObserveLLM(task, outcome, elapsed)
	fields := map[string]any{
		"task":        task,
		"provider":    i.Provider,
		"outcome":     outcome,
		"duration_ms": elapsed.Milliseconds(),
		"temperature": temperature,
	}
	if rid := telemetry.RequestID(ctx); rid != "" {
		fields["request_id"] = rid
	}
	if err != nil {
		fields["error"] = err
		telemetry.Warn("llm.call_failed", fields)
		return "", err
	}
	fields["response_chars"] = len([]rune(out))
	telemetry.Debug("llm.call", fields)
	return out, nil
}

func classify(err error) string {
	if err == nil {
		return outcomeOK
	}
	if IsTimeout(err) {
		return outcomeTimeout
	}
	var te *TransportError
	if errors.As(err, &te) {
		return outcomeTransport
	}
	return outcomeOtherError
}
