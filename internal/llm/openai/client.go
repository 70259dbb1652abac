package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"

	"recruit-assistant/internal/llm"
	"recruit-assistant/internal/shared/telemetry"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultMaxTokens = 4000
	maxErrorBody     = 512
	maxResponseBody  = 4 << 20
)

// Options configures a chat-completions client.
type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// Base is the underlying transport; http.DefaultTransport when nil.
	Base http.RoundTripper
}

// Client implements llm.Completer against an OpenAI-compatible chat-completions endpoint.
type Client struct {
	endpoint   string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewClient constructs a new chat-completions client. The API key is sent as a
// bearer token by an oauth2 transport.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("api key is required: %w", llm.ErrNotConfigured)
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("model is required: %w", llm.ErrNotConfigured)
	}
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("base url is required: %w", llm.ErrNotConfigured)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(opts.APIKey), TokenType: "Bearer"})
	return &Client{
		endpoint:  strings.TrimSpace(opts.BaseURL),
		model:     strings.TrimSpace(opts.Model),
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: src, Base: base},
		},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends one chat-completions request and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, temperature float64) (string, error) {
	task := llm.TaskFromContext(ctx)
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout")
		return "", &llm.TransportError{Task: task, Timeout: timeout, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return "", &llm.TransportError{Task: task, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxResponseBody {
		return "", &llm.TransportError{Task: task, StatusCode: resp.StatusCode, Err: fmt.Errorf("response body exceeds %d bytes", maxResponseBody)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &llm.TransportError{Task: task, StatusCode: resp.StatusCode, Err: errors.New(truncate(string(body), maxErrorBody))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &llm.TransportError{Task: task, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode chat response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &llm.TransportError{Task: task, StatusCode: resp.StatusCode, Err: fmt.Errorf("provider error: %s (%s)", parsed.Error.Message, parsed.Error.Type)}
	}
	if len(parsed.Choices) == 0 {
		return "", &llm.TransportError{Task: task, StatusCode: resp.StatusCode, Err: errors.New("response missing choices")}
	}
	logUsage(task, c.model, parsed)

	return parsed.Choices[0].Message.Content, nil
}

func logUsage(task, model string, parsed chatResponse) {
	fields := map[string]any{
		"task":  task,
		"model": model,
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Debug("llm.usage", fields)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

var _ llm.Completer = (*Client)(nil)
