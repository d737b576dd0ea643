package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/notes-approval-api/api/swagger"
	"github.com/noah-isme/notes-approval-api/internal/handler"
	"github.com/noah-isme/notes-approval-api/internal/middleware"
	"github.com/noah-isme/notes-approval-api/internal/repository"
	"github.com/noah-isme/notes-approval-api/internal/service"
	"github.com/noah-isme/notes-approval-api/pkg/cache"
	"github.com/noah-isme/notes-approval-api/pkg/config"
	"github.com/noah-isme/notes-approval-api/pkg/database"
	"github.com/noah-isme/notes-approval-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/notes-approval-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/notes-approval-api/pkg/middleware/requestid"
)

// @title Notes Approval API
// @version 1.0.0
// @description Scored evaluation notes with a direction approval workflow
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	notifier := service.NewNotifier(redisClient, service.NotifierConfig{
		Channel:    cfg.Notifier.Channel,
		Workers:    cfg.Notifier.Workers,
		BufferSize: cfg.Notifier.BufferSize,
		MaxRetries: cfg.Notifier.MaxRetries,
	}, logr)
	notifier.Start(context.Background())
	defer notifier.Stop()

	noteStore := repository.NewNoteStore(db)
	weightings := repository.NewWeightingRepository(db)
	noteSvc := service.NewNoteService(noteStore, weightings, notifier, metricsSvc, nil, logr)
	noteHandler := handler.NewNoteHandler(noteSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Actor(cfg.Actor.TokenSecret))
	{
		api.POST("/notes", noteHandler.Create)
		api.GET("/notes/pending", noteHandler.ListPending)
		api.GET("/notes/:id", noteHandler.Get)
		api.PUT("/notes/:id", noteHandler.Update)
		api.DELETE("/notes/:id", noteHandler.Delete)
		api.POST("/notes/:id/submit", noteHandler.Submit)
		api.POST("/notes/:id/resubmit", noteHandler.Resubmit)
		api.POST("/notes/:id/review", noteHandler.Review)
		api.GET("/notes/:id/history", noteHandler.History)
		api.GET("/students/:id/notes", noteHandler.ListForStudent)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
