package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pesafrisma19/pbbkemang/internal/auth"
	"github.com/pesafrisma19/pbbkemang/internal/config"
	"github.com/pesafrisma19/pbbkemang/internal/database"
	"github.com/pesafrisma19/pbbkemang/internal/handlers"
	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/pesafrisma19/pbbkemang/internal/middleware"
	"github.com/pesafrisma19/pbbkemang/internal/nop"
	"github.com/pesafrisma19/pbbkemang/internal/ratelimit"
	"github.com/pesafrisma19/pbbkemang/internal/repository"
	"github.com/pesafrisma19/pbbkemang/internal/services"
	"github.com/pesafrisma19/pbbkemang/internal/session"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 2 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting PBB Kemang API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Database.Migrate {
		if err := database.Migrate(cfg.Database.DSN(), log.Named("migrate")); err != nil {
			log.Fatal("Failed to migrate database", err, nil)
		}
	}

	redisClient, err := session.NewRedisClient(ctx, cfg.Redis.URL, log)
	if err != nil {
		log.Fatal("Failed to connect to redis", err, nil)
	}
	defer redisClient.Close()

	expander, err := nop.NewExpander(cfg.Import.NOPPrefix, cfg.Import.NOPSuffix)
	if err != nil {
		log.Fatal("Invalid NOP settings", err, nil)
	}

	// Repositories
	taxpayerRepo := repository.NewTaxpayerRepository(db)
	taxObjectRepo := repository.NewTaxObjectRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Services
	books := services.NewBookCache(taxpayerRepo, services.DefaultBookMaxAge, log.Named("book"))
	taxpayerService := services.NewTaxpayerService(taxpayerRepo, books, expander, log.Named("taxpayers"))
	paymentService := services.NewPaymentService(taxObjectRepo, books, log.Named("payments"))
	importService := services.NewImportService(
		repository.NewImportStore(taxpayerRepo, taxObjectRepo),
		expander,
		cfg.Import.Workers,
		books,
		log.Named("import"),
	)
	statsService := services.NewStatsService(books)
	authService := auth.NewService(adminRepo, session.NewRedisStore(redisClient), cfg.Auth, log.Named("auth"))

	limiter := ratelimit.New(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst, ratelimit.DefaultIdleTTL)
	defer limiter.Stop()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.UseJSONFieldNames()
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	handlers.RegisterRoutes(router, handlers.Set{
		Health: handlers.NewHealthHandler(db, handlers.PingFunc(func(ctx context.Context) error {
			return session.Ping(ctx, redisClient)
		}), cfg.Server.Env),
		Auth:      handlers.NewAuthHandler(authService, cfg.Auth),
		Taxpayers: handlers.NewTaxpayerHandler(taxpayerService),
		Payments:  handlers.NewPaymentHandler(paymentService),
		Imports:   handlers.NewImportHandler(importService, cfg.Import.MaxBytes),
		Stats:     handlers.NewStatsHandler(statsService),
	},
		handlers.RequireSession(authService, cfg.Auth.SessionCookie),
		handlers.RateLimit(limiter),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
