package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruit-assistant/internal/llm"
)

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(Options{APIKey: "secret-key", BaseURL: url, Model: "glm-4.5", MaxTokens: 1234, Timeout: timeout})
	require.NoError(t, err)
	return c
}

func TestCompleteSendsBearerTokenAndPayload(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"1","choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}],"usage":{"total_tokens":7}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	ctx := llm.WithTask(context.Background(), llm.TaskAnalyze)
	out, err := c.Complete(ctx, []llm.Message{llm.System("sys"), llm.User("hello")}, 0.3)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "glm-4.5", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, 1234, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, llm.RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
}

func TestCompleteNon2xxIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.Complete(llm.WithTask(context.Background(), llm.TaskReport), nil, 0.8)
	var te *llm.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	assert.Equal(t, llm.TaskReport, te.Task)
	assert.Contains(t, err.Error(), "upstream down")
	assert.False(t, llm.IsTimeout(err))
}

func TestCompleteNon2xxKeepsValidUTF8(t *testing.T) {
	body := strings.Repeat("服务暂不可用", 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.Complete(context.Background(), nil, 0.7)
	require.Error(t, err)
	assert.True(t, utf8.ValidString(err.Error()), "error message is not valid UTF-8")
	assert.Contains(t, err.Error(), "服务暂不可用")
}

func TestTruncateCutsOnRuneBoundary(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "short", n: 10, want: "short"},
		{in: "abcdef", n: 3, want: "abc..."},
		{in: "简历分析", n: 4, want: "简..."},
		{in: "简历分析", n: 6, want: "简历..."},
		{in: "简历分析", n: 2, want: "..."},
	}
	for _, tc := range tests {
		got := truncate(tc.in, tc.n)
		assert.Equal(t, tc.want, got, "truncate(%q, %d)", tc.in, tc.n)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestCompleteRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"`))
		_, _ = w.Write([]byte(strings.Repeat("a", maxResponseBody)))
		_, _ = w.Write([]byte(`"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	_, err := c.Complete(context.Background(), nil, 0.7)
	var te *llm.TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.ErrorContains(t, err, "exceeds")
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv.URL, 50*time.Millisecond)
	_, err := c.Complete(context.Background(), nil, 0.7)
	require.Error(t, err)
	assert.True(t, llm.IsTimeout(err), "got %v", err)
}

func TestCompleteMissingChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.Complete(context.Background(), nil, 0.7)
	assert.ErrorContains(t, err, "missing choices")
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Options{Model: "glm-4.5", BaseURL: "http://x"})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}
