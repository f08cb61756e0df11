package routes

import (
	"notepin/notepin/config"
	"notepin/notepin/database"
	"notepin/notepin/middleware"
	"notepin/notepin/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the services the HTTP API is built from.
type Dependencies struct {
	Config           config.Config
	DB               *database.Database
	NoteService      services.NoteServiceInterface
	TrashService     services.TrashServiceInterface
	WebSocketService services.WebSocketServiceInterface
}

// NewRouter wires middleware and every route group onto a fresh engine.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.CORSMiddleware(deps.Config.AllowedOrigins),
		middleware.MetricsMiddleware(),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	SetupHealthRoutes(router, deps.DB)
	if !deps.Config.IsProduction() {
		SetupDebugRoutes(router, deps.DB)
	}

	api := router.Group("/api/v1")
	RegisterNoteRoutes(api, deps.DB, deps.NoteService)
	RegisterTrashRoutes(api, deps.DB, deps.TrashService)
	if deps.WebSocketService != nil {
		RegisterWebSocketRoutes(api, deps.WebSocketService)
	}

	return router
}
