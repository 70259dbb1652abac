package candidates

import (
	"io"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"recruit-assistant/internal/shared/telemetry"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	restore := telemetry.SetOutput(io.Discard)
	code := m.Run()
	restore()
	os.Exit(code)
}
