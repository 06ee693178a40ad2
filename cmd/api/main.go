package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/farmtrust/livestock-api/api/swagger"
	"github.com/farmtrust/livestock-api/internal/handler"
	"github.com/farmtrust/livestock-api/internal/repository"
	"github.com/farmtrust/livestock-api/internal/service"
	"github.com/farmtrust/livestock-api/pkg/cache"
	"github.com/farmtrust/livestock-api/pkg/config"
	"github.com/farmtrust/livestock-api/pkg/database"
	"github.com/farmtrust/livestock-api/pkg/logger"
	"github.com/farmtrust/livestock-api/pkg/storage"
)

// @title Livestock Identity & Vaccination API
// @version 1.0.0
// @description Animal registry, vaccination workflow and market valuation service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, login throttling disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	userRepo := repository.NewUserRepository(db)
	animalRepo := repository.NewAnimalRepository(db)
	recordRepo := repository.NewRecordRepository(db)

	metrics := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.Auth.SingleSession,
	})
	livestockSvc := service.NewLivestockService(animalRepo, userRepo, nil, logr)
	valuationSvc := service.NewValuationService(animalRepo, recordRepo, cfg.Valuation.Currency, logr)
	vaccinationSvc := service.NewVaccinationService(recordRepo, animalRepo, nil, logr)
	projectionSvc := service.NewProjectionService(recordRepo, animalRepo, cfg.Exports.MaxRows, metrics, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		archive, err := storage.NewArchive(cfg.Exports.Dir)
		if err != nil {
			logr.Fatal("failed to prepare export archive", zap.Error(err))
		}
		signer := storage.NewTokenSigner(cfg.Exports.SignSecret, cfg.Exports.FileTTL)
		exportSvc = service.NewExportService(projectionSvc, archive, signer, service.ExportOptions{
			Workers:  cfg.Exports.Workers,
			BasePath: cfg.APIPrefix,
			FileTTL:  cfg.Exports.FileTTL,
			Logger:   logr,
		})
		exportCtx, stopExports := context.WithCancel(context.Background())
		exportSvc.Start(exportCtx)
		defer func() {
			stopExports()
			exportSvc.Stop()
		}()
	}

	loginLimiter := cache.NewRateLimiter(redisClient, "login", cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateInterval)

	router := handler.NewRouter(cfg, logr, handler.Dependencies{
		Auth:         authSvc,
		Livestock:    livestockSvc,
		Valuation:    valuationSvc,
		Vaccinations: vaccinationSvc,
		Projections:  projectionSvc,
		Exports:      exportSvc,
		Metrics:      metrics,
		LoginLimiter: loginLimiter,
		Health:       db.Ping,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
	logr.Info("server stopped")
}
