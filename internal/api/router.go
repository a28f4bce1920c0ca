package api

import (
	"github.com/gin-gonic/gin"
	"github.com/umut/reelsense/internal/api/handler"
	"github.com/umut/reelsense/internal/api/middleware"
)

// RouterDeps carries the collaborators the HTTP surface needs.
type RouterDeps struct {
	Engine  handler.Recommender
	Users   handler.UserWriter
	Content handler.ContentCounter
	CORS    middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes.
func SetupRouter(deps RouterDeps, mode string) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(deps.CORS))

	healthHandler := handler.NewHealthHandler()
	recommendHandler := handler.NewRecommendHandler(deps.Engine)
	libraryHandler := handler.NewLibraryHandler(deps.Users)
	statsHandler := handler.NewStatsHandler(deps.Content)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/recommendations", recommendHandler.Recommendations)
		v1.GET("/discovery", recommendHandler.Discovery)

		v1.PUT("/users/:id/library", libraryHandler.UpdateLibrary)

		v1.GET("/stats", statsHandler.Stats)
	}

	return r
}
