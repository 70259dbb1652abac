package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"recruit-assistant/internal/shared/server/respond"
	"recruit-assistant/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 INTERNAL_ERROR. When the handler
// already started writing, the connection is only aborted.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			candidateID, _ := c.Get("candidateId")
			analysisID, _ := c.Get("analysisId")
			telemetry.Error("http.panic", map[string]any{
				"request_id":   RequestIDFromContext(c),
				"error":        rec,
				"stack":        string(debug.Stack()),
				"path":         c.Request.URL.Path,
				"method":       c.Request.Method,
				"candidate_id": candidateID,
				"analysis_id":  analysisID,
			})
			c.Set("pipelineStatus", "panicked")
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Unexpected server error", nil)
		}()
		c.Next()
	}
}
