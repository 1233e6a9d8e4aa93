package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/andresuchdata/erpsync/internal/api"
	"github.com/andresuchdata/erpsync/internal/auth"
	"github.com/andresuchdata/erpsync/internal/cache"
	"github.com/andresuchdata/erpsync/internal/config"
	"github.com/andresuchdata/erpsync/internal/pipeline"
	"github.com/andresuchdata/erpsync/internal/repository"
	"github.com/andresuchdata/erpsync/internal/repository/sqlstore"
	"github.com/andresuchdata/erpsync/internal/service"
	"github.com/andresuchdata/erpsync/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.Server.Mode, cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := sqlstore.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	if err := db.Migrate(migrateCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to apply schema")
	}
	cancelMigrate()

	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Dashboard cache unavailable, serving from the database")
		dashboardCache = cache.NewNoopDashboardCache()
	}

	authService := service.NewAuthService(
		repository.NewUserRepository(db),
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		cfg.Auth.BcryptCost,
	)
	dashboardService := service.NewDashboardService(
		repository.NewDashboardRepository(db),
		repository.NewStockRepository(db),
		repository.NewSupplierRepository(db),
		repository.NewMasterDataRepository(db),
		pipeline.NewRunRepository(db),
		dashboardCache,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := api.NewRouter(&api.Services{
		Auth:      authService,
		Dashboard: dashboardService,
	}, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Registry:       registry,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("driver", string(db.Dialect())).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
