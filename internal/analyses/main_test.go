package analyses

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"recruit-assistant/internal/candidates"
	"recruit-assistant/internal/llm"
	"recruit-assistant/internal/llm/mock"
	"recruit-assistant/internal/pipeline"
	"recruit-assistant/internal/shared/telemetry"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	restore := telemetry.SetOutput(io.Discard)
	code := m.Run()
	restore()
	os.Exit(code)
}

// countingLLM serves the mock client's canned output, counts calls per task
// and can fail or hold chosen tasks.
type countingLLM struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
	hold  map[string]<-chan struct{}
	next  *mock.Client
}

func newCountingLLM() *countingLLM {
	return &countingLLM{
		calls: map[string]int{},
		fail:  map[string]error{},
		hold:  map[string]<-chan struct{}{},
		next:  mock.New(),
	}
}

func (c *countingLLM) Complete(ctx context.Context, messages []llm.Message, temperature float64) (string, error) {
	task := llm.TaskFromContext(ctx)
	c.mu.Lock()
	c.calls[task]++
	err := c.fail[task]
	gate := c.hold[task]
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return "", err
	}
	return c.next.Complete(ctx, messages, temperature)
}

func (c *countingLLM) count(task string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[task]
}

// fakeCandidates is an in-memory CandidateStore.
type fakeCandidates struct {
	mu    sync.Mutex
	byID  map[int64]candidates.Candidate
	saves int
}

func newFakeCandidates(cs ...candidates.Candidate) *fakeCandidates {
	f := &fakeCandidates{byID: map[int64]candidates.Candidate{}}
	for _, c := range cs {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCandidates) Get(_ context.Context, id int64) (candidates.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return candidates.Candidate{}, candidates.ErrNotFound
	}
	return c, nil
}

func (f *fakeCandidates) SaveProfile(_ context.Context, id int64, p pipeline.ResumeProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return candidates.ErrNotFound
	}
	c.Profile = &p
	f.byID[id] = c
	f.saves++
	return nil
}

func newTestService(cs ...candidates.Candidate) (*Service, *countingLLM, *fakeCandidates) {
	model := newCountingLLM()
	cands := newFakeCandidates(cs...)
	return NewService(NewMemoryRepo(), cands, pipeline.New(model)), model, cands
}

var resumeCandidate = candidates.Candidate{ID: 1, FileName: "张三.pdf", ResumeContent: "张三 Python Django 后端 三年"}
