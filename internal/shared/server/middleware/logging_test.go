package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruit-assistant/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.GET("/api/process/:id", func(c *gin.Context) {
		c.Set("candidateId", int64(3))
		c.Set("analysisId", int64(9))
		c.Set("pipelineStatus", "complete")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/process/9", nil)
	req.Header.Set("X-Request-Id", "req-42")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &payload))

	for _, key := range []string{"request_id", "candidate_id", "analysis_id", "duration_ms", "status", "route", "pipeline_status"} {
		assert.Contains(t, payload, key)
	}
	assert.Equal(t, "req-42", payload["request_id"])
	assert.Equal(t, "/api/process/:id", payload["route"])
	assert.EqualValues(t, 9, payload["analysis_id"])
	assert.Equal(t, "complete", payload["pipeline_status"])
	assert.Equal(t, "req-42", resp.Header().Get("X-Request-Id"))
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	id := resp.Header().Get("X-Request-Id")
	assert.Len(t, id, 36)
	assert.Equal(t, id, resp.Body.String())
}
