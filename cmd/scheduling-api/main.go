package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tutorhive/scheduling-api/api/swagger"
	"github.com/tutorhive/scheduling-api/internal/handler"
	"github.com/tutorhive/scheduling-api/internal/middleware"
	"github.com/tutorhive/scheduling-api/internal/repository"
	"github.com/tutorhive/scheduling-api/internal/service"
	"github.com/tutorhive/scheduling-api/pkg/cache"
	"github.com/tutorhive/scheduling-api/pkg/config"
	"github.com/tutorhive/scheduling-api/pkg/database"
	"github.com/tutorhive/scheduling-api/pkg/logger"
	corsmiddleware "github.com/tutorhive/scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tutorhive/scheduling-api/pkg/middleware/requestid"
)

// @title TutorHive Scheduling API
// @version 1.0.0
// @description Availability scheduling engine for the tutoring marketplace
// @BasePath /
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, projections will not be cached", "error", err)
	} else {
		redisClient = client
	}

	validate := validator.New()

	ruleRepo := repository.NewAvailabilityRuleRepository(db)
	blockRepo := repository.NewUnavailableBlockRepository(db)
	occupancyRepo := repository.NewOccupancyRepository(db)
	directoryRepo := repository.NewTeacherDirectoryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)
	availabilitySvc := service.NewAvailabilityService(ruleRepo, directoryRepo, db, cacheRepo, metricsSvc, validate, logr)
	blockSvc := service.NewBlockService(blockRepo, cacheRepo, validate, logr)
	projectionSvc := service.NewProjectionService(ruleRepo, blockRepo, occupancyRepo, directoryRepo, cacheRepo, metricsSvc, logr, cfg.Scheduling)

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	blockHandler := handler.NewBlockHandler(blockSvc)
	projectionHandler := handler.NewProjectionHandler(projectionSvc, cfg.Scheduling.ExportEnabled)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "postgres": err.Error()})
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	// Projected windows are a public storefront read.
	api.GET("/teachers/:id/availability/windows", projectionHandler.Windows)

	authed := api.Group("", middleware.JWT(tokenSvc))
	{
		authed.POST("/availability", availabilityHandler.Create)
		authed.GET("/availability", availabilityHandler.List)
		authed.DELETE("/availability/:id", availabilityHandler.Delete)

		authed.POST("/unavailable-blocks", blockHandler.Create)
		authed.GET("/unavailable-blocks", blockHandler.List)
		authed.DELETE("/unavailable-blocks/:id", blockHandler.Delete)

		authed.POST("/teachers/:id/availability/validate", projectionHandler.Validate)
		authed.GET("/teachers/:id/availability/export", projectionHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
