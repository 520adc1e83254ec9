package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-backend/internal/chat"
	"rag-backend/internal/projects"
	"rag-backend/internal/shared/config"
	"rag-backend/internal/shared/metrics"
	"rag-backend/internal/shared/server/middleware"
	"rag-backend/internal/shared/server/respond"
	"rag-backend/internal/voice"
)

// RouterDeps carries the wired handlers the router needs.
type RouterDeps struct {
	Config          config.Config
	ProjectsHandler *projects.Handler
	ChatHandler     *chat.Handler
	VoiceHandler    *voice.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
// Chat and health live at the root so existing clients keep working; the
// administration and voice surfaces live under /api/v1.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{
			"status":  "ok",
			"model":   deps.Config.OpenAIModel,
			"db_path": deps.Config.DBPath,
		})
	})
	r.GET("/metrics", metrics.Handler())

	root := r.Group("")
	deps.ChatHandler.RegisterRoutes(root)

	api := r.Group("/api/v1")
	deps.ProjectsHandler.RegisterRoutes(api)
	if deps.VoiceHandler != nil {
		deps.VoiceHandler.RegisterRoutes(api)
	}

	return r
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
