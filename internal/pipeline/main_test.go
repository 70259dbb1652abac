package pipeline

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"

	"recruit-assistant/internal/llm"
	"recruit-assistant/internal/shared/telemetry"
)

func TestMain(m *testing.M) {
	restore := telemetry.SetOutput(io.Discard)
	code := m.Run()
	restore()
	os.Exit(code)
}

type reply struct {
	text  string
	err   error
	panic bool
	wait  <-chan struct{}
}

// scriptedLLM answers per task and records calls.
type scriptedLLM struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   map[string]int
	temps   map[string]float64
}

func newScripted(replies map[string]reply) *scriptedLLM {
	return &scriptedLLM{replies: replies, calls: map[string]int{}, temps: map[string]float64{}}
}

func (s *scriptedLLM) Complete(ctx context.Context, messages []llm.Message, temperature float64) (string, error) {
	task := llm.TaskFromContext(ctx)
	s.mu.Lock()
	s.calls[task]++
	s.temps[task] = temperature
	r, ok := s.replies[task]
	s.mu.Unlock()
	if !ok {
		return "", &llm.TransportError{Task: task, StatusCode: 500}
	}
	if r.wait != nil {
		select {
		case <-r.wait:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if r.panic {
		panic("scripted panic")
	}
	return r.text, r.err
}

func (s *scriptedLLM) callCount(task string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[task]
}
