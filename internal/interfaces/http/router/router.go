package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appanalysis "github.com/hesabdari/backend/internal/application/analysis"
	"github.com/hesabdari/backend/internal/infrastructure/cache"
	"github.com/hesabdari/backend/internal/infrastructure/logger"
	"github.com/hesabdari/backend/internal/interfaces/http/dto"
	"github.com/hesabdari/backend/internal/interfaces/http/handler"
	"github.com/hesabdari/backend/internal/interfaces/http/middleware"
)

// Config holds the router dependencies
type Config struct {
	Service          *appanalysis.Service
	Cache            *cache.Manager
	Logger           *zap.Logger
	CORSAllowOrigins []string
}

// New builds the gin engine with all routes registered
func New(cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Secure())
	engine.Use(logger.GinMiddleware(log))

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSAllowOrigins
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "route not found"))
	})

	analysisHandler := handler.NewAnalysisHandler(cfg.Service, log)
	datasetHandler := handler.NewDatasetHandler(cfg.Service, log)
	systemHandler := handler.NewSystemHandler(cfg.Service, cfg.Cache)

	api := engine.Group("/api")
	{
		api.GET("/health", systemHandler.Health)
		api.GET("/summary", systemHandler.Summary)
		api.GET("/analysis/:source/:kind", analysisHandler.Analyze)
		api.POST("/datasets/:source", datasetHandler.Reload)
		api.POST("/cache/invalidate/:source", datasetHandler.Invalidate)
	}

	return engine
}
