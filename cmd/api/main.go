package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Rzouga01/learnhub-api/api/swagger"
	"github.com/Rzouga01/learnhub-api/internal/handler"
	"github.com/Rzouga01/learnhub-api/internal/middleware"
	"github.com/Rzouga01/learnhub-api/internal/models"
	"github.com/Rzouga01/learnhub-api/internal/repository"
	"github.com/Rzouga01/learnhub-api/internal/service"
	"github.com/Rzouga01/learnhub-api/pkg/cache"
	"github.com/Rzouga01/learnhub-api/pkg/config"
	"github.com/Rzouga01/learnhub-api/pkg/database"
	"github.com/Rzouga01/learnhub-api/pkg/logger"
	corsmiddleware "github.com/Rzouga01/learnhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/Rzouga01/learnhub-api/pkg/middleware/requestid"
	"github.com/Rzouga01/learnhub-api/pkg/storage"
)

// @title LearnHub API
// @version 1.0.0
// @description Training management platform: dashboards, reports and exports
// @BasePath /api
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

	cacheRepo := repository.NewCacheRepository(nil)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	userRepo := repository.NewUserRepository(db)
	trainingRepo := repository.NewTrainingRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	reportJobRepo := repository.NewReportJobRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, logr)

	authSvc := service.NewAuthService(userRepo, validator.New(), logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	reportSvc := service.NewReportService(service.ReportServiceParams{
		Enrollments: enrollmentRepo,
		Attendances: attendanceRepo,
		Trainings:   trainingRepo,
		Users:       userRepo,
		Cache:       cacheSvc,
		Metrics:     metricsSvc,
		Logger:      logr,
		CacheTTL:    cfg.Reports.CacheTTL,
	})

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Enrollments:  enrollmentRepo,
		Attendances:  attendanceRepo,
		Trainings:    trainingRepo,
		Sessions:     sessionRepo,
		Users:        userRepo,
		Cache:        cacheSvc,
		Metrics:      metricsSvc,
		Logger:       logr,
		CacheTTL:     cfg.Dashboard.CacheTTL,
		SessionHours: cfg.Dashboard.SessionHours,
		StreakWindow: cfg.Dashboard.StreakWindow,
		ActivityMax:  cfg.Dashboard.ActivityLimit,
	})

	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, cacheSvc, logr)

	exportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Jobs:       reportJobRepo,
		Reports:    reportSvc,
		Storage:    exportStorage,
		Signer:     storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		Metrics:    metricsSvc,
		Logger:     logr,
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportSvc.Start(ctx)
	defer exportSvc.Stop()

	go func() {
		ticker := time.NewTicker(cfg.Reports.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				exportSvc.CleanupExpired(ctx, cfg.Reports.SignedURLTTL)
			}
		}
	}()

	authHandler := handler.NewAuthHandler(authSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	reportHandler := handler.NewReportHandler(reportSvc, exportSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	// Downloads authenticate through the signed token itself.
	api.GET("/reports/download/:token", reportHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)

		authed.GET("/dashboard", dashboardHandler.Summary)
		authed.GET("/dashboard/activity", dashboardHandler.Activity)

		staff := authed.Group("")
		staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator, models.RoleTrainer))
		{
			staff.GET("/reports/enrollments", reportHandler.Enrollments)
			staff.GET("/reports/attendance", reportHandler.Attendance)
			staff.GET("/reports/revenue", reportHandler.Revenue)
			staff.GET("/reports/user-activity", reportHandler.UserActivity)
			staff.POST("/reports/export", reportHandler.Export)
			staff.GET("/reports/export/:id", reportHandler.ExportStatus)
			staff.GET("/enrollments", enrollmentHandler.List)
			staff.PATCH("/enrollments/:id/status", enrollmentHandler.UpdateStatus)
			staff.PATCH("/enrollments/:id/progress", enrollmentHandler.UpdateProgress)
		}

		students := authed.Group("")
		students.Use(middleware.RequireRoles(models.RoleStudent))
		{
			students.POST("/enrollments", enrollmentHandler.Apply)
		}

		admins := authed.Group("")
		admins.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admins.GET("/metrics/summary", metricsHandler.Snapshot)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
