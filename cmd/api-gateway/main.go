package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edutask-api/api/swagger"
	"github.com/noah-isme/edutask-api/internal/bootstrap"
	"github.com/noah-isme/edutask-api/internal/handler"
	"github.com/noah-isme/edutask-api/internal/middleware"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/repository"
	"github.com/noah-isme/edutask-api/internal/router"
	"github.com/noah-isme/edutask-api/internal/service"
	"github.com/noah-isme/edutask-api/internal/store"
	"github.com/noah-isme/edutask-api/pkg/cache"
	"github.com/noah-isme/edutask-api/pkg/config"
	"github.com/noah-isme/edutask-api/pkg/jobs"
	"github.com/noah-isme/edutask-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edutask-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edutask-api/pkg/middleware/requestid"
	"github.com/noah-isme/edutask-api/pkg/storage"
)

// @title EduTask API
// @version 1.0.0
// @description School task, submission and dashboard service
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	docRepo, db, err := bootstrap.OpenDocumentRepository(ctx, cfg, metrics)
	if err != nil {
		logr.Fatal("failed to open document store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}
	docStore := store.New(docRepo, store.Options{
		DocumentID: cfg.Store.DocumentID,
		MaxRetries: cfg.Store.MaxRetries,
		Logger:     logr.Named("store"),
		Observer:   metrics,
	})
	if cfg.SeedFile != "" {
		if _, _, err := bootstrap.Seed(ctx, docStore, cfg.SeedFile, false, logr); err != nil {
			logr.Fatal("failed to seed store", zap.String("file", cfg.SeedFile), zap.Error(err))
		}
	}

	var cacheRepo service.CacheRepository
	cacheEnabled := cfg.Cache.Enabled
	if cacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
			cacheEnabled = false
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cacheEnabled)

	validate := validator.New()
	deps := service.Deps{Store: docStore, Cache: cacheSvc, Metrics: metrics, Logger: logr}

	authSvc := service.NewAuthService(deps, validate, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "edutask-api",
	})
	userSvc := service.NewUserService(deps, validate)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Store:  docStore,
		Cache:  cacheSvc,
		Logger: logr,
		Config: service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, userSvc),
		Users:        handler.NewUserHandler(userSvc),
		Tasks:        handler.NewTaskHandler(service.NewTaskService(deps, validate)),
		Materials:    handler.NewMaterialHandler(service.NewMaterialService(deps, validate)),
		Quizzes:      handler.NewQuizHandler(service.NewQuizService(deps, validate)),
		Announcement: handler.NewAnnouncementHandler(service.NewAnnouncementService(deps, validate)),
		Fees:         handler.NewFeeHandler(service.NewFeeService(deps, validate)),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
		Metrics:      handler.NewMetricsHandler(metrics, docStore, nil),
	}

	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		reportQueue, handlers.Reports = setupReports(ctx, cfg, db, docStore, metrics, validate, logr)
		handlers.Metrics = handler.NewMetricsHandler(metrics, docStore, reportQueue)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	router.Register(r, handlers, router.Options{
		APIPrefix:   cfg.APIPrefix,
		EnableDocs:  cfg.Env != config.EnvProduction,
		Validator:   authSvc,
		AuditLogger: logr.Named("audit"),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown", zap.Error(err))
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
}

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

// setupReports wires the export pipeline and starts its worker pool. Jobs are
// kept next to the document when a SQL driver is configured.
func setupReports(ctx context.Context, cfg *config.Config, db *sqlx.DB, docs *store.Store, metrics *service.MetricsService, validate *validator.Validate, logr *zap.Logger) (*jobs.Queue, *handler.ReportHandler) {
	var jobStore reportJobStore
	if db != nil {
		sqlRepo := repository.NewReportRepository(db)
		if err := sqlRepo.EnsureSchema(ctx); err != nil {
			logr.Fatal("failed to prepare report jobs table", zap.Error(err))
		}
		jobStore = sqlRepo
	} else {
		jobStore = repository.NewMemoryReportRepository()
	}

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.String("dir", cfg.Reports.StorageDir), zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exporter := service.NewExportService(docs, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr.Named("export"), nil, nil)

	worker := service.NewReportWorker(jobStore, exporter, metrics, cfg.Reports.WorkerRetries, logr.Named("report_worker"))
	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		JobTimeout: 5 * time.Minute,
		Logger:     logr,
	})
	queue.Start(ctx)

	reportSvc := service.NewReportService(docs, jobStore, queue, exporter, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: time.Hour,
	})
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)

	return queue, handler.NewReportHandler(reportSvc, logr)
}
