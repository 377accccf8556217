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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/opencivic/civicflow-api/api/swagger"
	"github.com/opencivic/civicflow-api/db/migrations"
	"github.com/opencivic/civicflow-api/internal/dto"
	"github.com/opencivic/civicflow-api/internal/handler"
	internalmiddleware "github.com/opencivic/civicflow-api/internal/middleware"
	"github.com/opencivic/civicflow-api/internal/repository"
	"github.com/opencivic/civicflow-api/internal/service"
	"github.com/opencivic/civicflow-api/pkg/cache"
	"github.com/opencivic/civicflow-api/pkg/config"
	"github.com/opencivic/civicflow-api/pkg/database"
	"github.com/opencivic/civicflow-api/pkg/jobs"
	"github.com/opencivic/civicflow-api/pkg/logger"
	corsmiddleware "github.com/opencivic/civicflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/opencivic/civicflow-api/pkg/middleware/requestid"
	"github.com/opencivic/civicflow-api/pkg/storage"
)

// @title CivicFlow API
// @version 1.0.0
// @description Civic issue, delegation, and tender workflow engine
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(db.DB); err != nil {
			logr.Sugar().Fatalw("migrations failed", "error", err)
		}
	}

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, actor cache disabled", "error", err)
	} else {
		redisClient = client
		defer redisClient.Close() //nolint:errcheck
	}

	objects, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("document storage init failed", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	issueRepo := repository.NewIssueRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	tenderRepo := repository.NewTenderRepository(db)
	bidRepo := repository.NewBidRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	transitionRepo := repository.NewTransitionRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)

	metricsSvc := service.NewMetricsService()
	accessSvc := service.NewAccessService()
	directorySvc := service.NewDirectoryService(directoryRepo, redisClient, cfg.Projections.CacheTTL, logr)
	dispatcher := service.NewDispatcher(
		issueRepo, tenderRepo, assignmentRepo, notificationRepo, transitionRepo, directoryRepo, metricsSvc, logr)

	notificationSvc := service.NewNotificationService(
		notificationRepo,
		&service.LogTransport{Logger: logr},
		jobs.QueueConfig{
			Workers:    cfg.Notifications.WorkerConcurrency,
			MaxRetries: cfg.Notifications.WorkerRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
		},
		logr,
	)

	issueSvc := service.NewIssueService(db, issueRepo, transitionRepo, accessSvc, dispatcher, notificationSvc, logr)
	assignmentSvc := service.NewAssignmentService(db, issueRepo, assignmentRepo, directorySvc, accessSvc, dispatcher, logr)
	tenderSvc := service.NewTenderService(db, tenderRepo, bidRepo, issueRepo, accessSvc, dispatcher, notificationSvc,
		cfg.Policy.AutoRejectSiblingBids, logr)
	progressSvc := service.NewProgressService(db, progressRepo, tenderRepo, accessSvc, dispatcher, notificationSvc, logr)
	documentSvc := service.NewDocumentService(documentRepo, tenderRepo, objects, signer, accessSvc,
		cfg.Documents.MaxFileSizeBytes, cfg.Documents.AllowedMIMEs, logr)
	exportSvc := service.NewExportService(tenderRepo, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	validate := dto.NewValidator()
	documentHandler := handler.NewDocumentHandler(documentSvc)
	// Signed token downloads are authorized by the token itself.
	r.GET(cfg.APIPrefix+"/downloads/:token", documentHandler.Download)

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.Actor(directorySvc))
	handler.RegisterRoutes(api, handler.Handlers{
		Issues:        handler.NewIssueHandler(issueSvc, assignmentSvc, validate),
		Tenders:       handler.NewTenderHandler(tenderSvc, validate),
		Bids:          handler.NewBidHandler(tenderSvc, validate),
		Progress:      handler.NewProgressHandler(progressSvc, validate),
		Documents:     documentHandler,
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Directory:     handler.NewDirectoryHandler(directorySvc),
		Exports:       handler.NewExportHandler(exportSvc),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()
	if n, err := notificationSvc.RequeueUndelivered(ctx, 100); err != nil {
		logr.Warn("startup requeue failed", zap.Error(err))
	} else if n > 0 {
		logr.Info("requeued undelivered notifications", zap.Int("count", n))
	}
	go notificationSvc.RunRequeueLoop(ctx, time.Minute)

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
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
