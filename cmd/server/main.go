package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appanalysis "github.com/hesabdari/backend/internal/application/analysis"
	"github.com/hesabdari/backend/internal/domain/analysis"
	"github.com/hesabdari/backend/internal/infrastructure/cache"
	"github.com/hesabdari/backend/internal/infrastructure/config"
	"github.com/hesabdari/backend/internal/infrastructure/logger"
	"github.com/hesabdari/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting analysis backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Cache backends. Redis is optional; the local store always exists
	// so a Redis outage degrades to in-process caching, never to errors.
	managerOpts := []cache.ManagerOption{
		cache.WithLocalStore(cache.NewMemoryStore()),
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithNetworkTimeout(cfg.Cache.NetworkTimeout),
		cache.WithManagerLogger(log),
	}
	if cfg.Redis.Enabled() {
		redisStore := cache.NewRedisStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cache.WithRedisLogger(log))
		managerOpts = append(managerOpts, cache.WithNetworkStore(redisStore))
		log.Info("Redis cache configured",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port))
	} else {
		log.Info("No Redis configured, using in-memory cache only")
	}
	cacheManager := cache.NewManager(managerOpts...)
	defer func() {
		if err := cacheManager.Close(); err != nil {
			log.Error("Error closing cache", zap.Error(err))
		}
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Analysis pipeline
	service := appanalysis.NewService(
		appanalysis.NewDatasetStore(),
		analysis.NewEngine(analysis.WithEngineLogger(log)),
		analysis.NewNormalizer(analysis.WithNormalizerLogger(log)),
		cacheManager,
		appanalysis.WithServiceLogger(log),
	)

	engine := router.New(router.Config{
		Service:          service,
		Cache:            cacheManager,
		Logger:           log,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
