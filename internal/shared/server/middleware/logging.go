package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"recruit-assistant/internal/shared/telemetry"
)

// Logging emits a structured log per request. Handlers may attach
// candidateId, analysisId and pipelineStatus to the gin context.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		candidateID, _ := c.Get("candidateId")
		analysisID, _ := c.Get("analysisId")
		pipelineStatus := c.GetString("pipelineStatus")

		telemetry.Info("request.complete", map[string]any{
			"request_id":      RequestIDFromContext(c),
			"method":          c.Request.Method,
			"path":            c.Request.URL.Path,
			"route":           c.FullPath(),
			"status":          c.Writer.Status(),
			"duration_ms":     float64(latency.Microseconds()) / 1000.0,
			"candidate_id":    candidateID,
			"analysis_id":     analysisID,
			"pipeline_status": pipelineStatus,
			"client_ip":       c.ClientIP(),
			"user_agent":      c.Request.UserAgent(),
		})
	}
}
