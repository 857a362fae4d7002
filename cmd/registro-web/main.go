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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "github.com/cetinnova/registro-escolar/api/swagger"
	"github.com/cetinnova/registro-escolar/internal/backend"
	"github.com/cetinnova/registro-escolar/internal/handler"
	"github.com/cetinnova/registro-escolar/internal/models"
	"github.com/cetinnova/registro-escolar/internal/repository"
	"github.com/cetinnova/registro-escolar/internal/service"
	"github.com/cetinnova/registro-escolar/pkg/cache"
	"github.com/cetinnova/registro-escolar/pkg/config"
	"github.com/cetinnova/registro-escolar/pkg/database"
	"github.com/cetinnova/registro-escolar/pkg/export"
	"github.com/cetinnova/registro-escolar/pkg/logger"
	"github.com/cetinnova/registro-escolar/pkg/storage"
)

// @title Registro Escolar API
// @version 1.0.0
// @description Student registration and payment tracking gateway for the school backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type receiptArchive interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Receipt, error)
	DeleteByPaths(ctx context.Context, paths []string) (int64, error)
}

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
	validate := validator.New()
	school := backend.New(cfg.Backend, logr, metrics)
	checks := map[string]handler.ReadinessCheck{}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, lookup cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			repo := repository.NewCacheRepository(client)
			cacheRepo = repo
			checks["redis"] = repo.Ping
		}
	}
	lookups := service.NewCacheService(cacheRepo, metrics, cfg.Cache.LookupTTL, logr, cfg.Cache.Enabled)

	var archive receiptArchive
	if cfg.Database.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect receipt archive", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck
		repo := repository.NewReceiptRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			logr.Fatal("failed to prepare receipt archive", zap.Error(err))
		}
		archive = repo
		checks["database"] = pingDB(db)
	}

	files, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare receipt storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)

	receipts := service.NewReceiptService(archive, files, signer,
		export.NewReceiptRenderer(cfg.School.Name, cfg.School.Address),
		metrics, logr.Named("receipts"),
		service.ReceiptServiceConfig{APIPrefix: cfg.APIPrefix, Retention: cfg.Receipts.Retention},
	)
	receipts.StartCleanup(ctx, cfg.Receipts.CleanupInterval)

	students := service.NewStudentService(school, validate, logr.Named("students"))
	svc := services{
		auth: service.NewAuthService(school, validate, logr.Named("auth"), service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
		}),
		students: students,
		roster:   service.NewRosterExportService(students, export.NewWorkbookExporter(), export.NewCSVExporter(), logr.Named("roster")),
		payments: service.NewPaymentService(school, lookups, receipts, metrics, logr.Named("payments"), service.PaymentServiceConfig{
			SessionTTL:       cfg.Ledger.SessionTTL,
			CourseMonthlyFee: decimal.NewFromFloat(cfg.School.CourseMonthlyFee),
		}),
		courses:  service.NewCourseService(school, lookups, logr.Named("courses")),
		uniforms: service.NewUniformService(school, lookups, validate, logr.Named("uniforms")),
		receipts: receipts,
		metrics:  metrics,
		checks:   checks,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func pingDB(db *sqlx.DB) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
