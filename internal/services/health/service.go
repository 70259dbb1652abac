package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB     Pinger
	AIMode string
}

// NewService constructs a new health service. db may be nil when the
// process runs on in-memory repositories.
func NewService(db Pinger, aiMode string) *Service {
	return &Service{DB: db, AIMode: aiMode}
}

// Status reports overall health and the state of each dependency.
func (s *Service) Status(ctx context.Context) (map[string]string, bool) {
	out := map[string]string{
		"status":   "healthy",
		"database": "memory",
		"ai_mode":  s.AIMode,
	}
	if s.DB == nil {
		return out, true
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		out["status"] = "degraded"
		out["database"] = "unavailable"
		return out, false
	}
	out["database"] = "ok"
	return out, true
}

// Handler serves Status, answering 503 when a dependency is down.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := s.Status(c.Request.Context())
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
