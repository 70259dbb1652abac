package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-assistant/internal/shared/metrics"
	"recruit-assistant/internal/shared/server/middleware"
)

// rateLimitGroupProcess covers the POST routes that call the language model.
const rateLimitGroupProcess = "PROCESS"

// Registrar is implemented by feature handlers.
type Registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries everything NewRouter wires into the engine.
type RouterDeps struct {
	CORSAllowOrigin []string
	ProcessPerMin   int
	MaxUploadBytes  int64
	Health          gin.HandlerFunc
	Routes          []Registrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	if deps.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = deps.MaxUploadBytes
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Metrics(),
		middleware.Recovery(),
		middleware.CORS(deps.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateLimitGroup,
			Rules: map[string]middleware.RateLimitRule{
				rateLimitGroupProcess: middleware.PerMinute(deps.ProcessPerMin),
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	if deps.Health != nil {
		api.GET("/health", deps.Health)
	} else {
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})
	}
	for _, reg := range deps.Routes {
		reg.RegisterRoutes(api)
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	if strings.HasPrefix(c.FullPath(), "/api/process") {
		return rateLimitGroupProcess
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
