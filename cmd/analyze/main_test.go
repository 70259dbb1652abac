package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruit-assistant/internal/shared/config"
	"recruit-assistant/internal/shared/telemetry"
)

func TestRunWithMockClient(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.txt")
	jd := filepath.Join(dir, "jd.txt")
	out := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(resume, []byte("张三\nPython Django 三年后端经验"), 0o644))
	require.NoError(t, os.WriteFile(jd, []byte("  Python 后端工程师\n"), 0o644))

	var stdout bytes.Buffer
	err := run(context.Background(), config.Config{}, options{resumePath: resume, jdPath: jd, outPath: out, mock: true}, &stdout)
	require.NoError(t, err)

	var got struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
		Analysis struct {
			MatchScore float64 `json:"match_score"`
		} `json:"analysis"`
		InterviewQuestions []string `json:"interview_questions"`
		Degraded           []any    `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "张三", got.Profile.Name)
	assert.Equal(t, 85.0, got.Analysis.MatchScore)
	assert.Len(t, got.InterviewQuestions, 10)
	assert.Empty(t, got.Degraded)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, stdout.Bytes(), written)
}

func TestRunRequiresResume(t *testing.T) {
	err := run(context.Background(), config.Config{}, options{mock: true}, io.Discard)
	assert.EqualError(t, err, "resume path is required")

	err = run(context.Background(), config.Config{}, options{resumePath: filepath.Join(t.TempDir(), "missing.pdf"), mock: true}, io.Discard)
	assert.ErrorContains(t, err, "read resume")
}
