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

	"amcmath/internal/config"
	"amcmath/internal/database"
	"amcmath/internal/handlers"
	"amcmath/internal/logger"
	"amcmath/internal/repository"
	"amcmath/internal/security"
	"amcmath/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	startup := handlers.NewStartupStatus(
		handlers.StepDatabase,
		handlers.StepMigrations,
		handlers.StepServices,
		handlers.StepCatalog,
	)

	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	startup.CompleteStep(handlers.StepDatabase)
	log.Info("database connection established", "type", db.GetDialect().DriverName())

	// Repositories
	catalogRepo := repository.NewCatalogRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	// Services
	progressService := service.NewProgressService(catalogRepo, attemptRepo, log)
	problemService := service.NewProblemService(catalogRepo, attemptRepo, log)
	catalogService := service.NewCatalogService(db, catalogRepo, log)

	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	attemptLimiter := security.NewRateLimiter(cfg.AttemptRateLimit, cfg.AttemptRateWindow)
	defer attemptLimiter.Stop()

	router := &handlers.Router{
		Middleware: handlers.NewMiddleware(tokens, log),
		Health:     handlers.NewHealthHandler(db, startup, log),
		Paths:      handlers.NewPathsHandler(progressService, log),
		Problems:   handlers.NewProblemHandler(problemService, log),
		Attempts:   attemptLimiter,
		Startup:    startup,
		Origins:    cfg.FrontendOrigins,
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup.SetCurrentStep(handlers.StepMigrations)
	applied, err := db.RunMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	startup.CompleteStep(handlers.StepMigrations)
	log.Info("migrations completed", "applied", applied)
	startup.CompleteStep(handlers.StepServices)

	startup.SetCurrentStep(handlers.StepCatalog)
	seedCatalog(ctx, log, catalogService, cfg.CatalogPath)
	startup.CompleteStep(handlers.StepCatalog)

	startup.MarkReady()
	log.Info("server ready")

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// seedCatalog refreshes the catalog from path when the file exists. Failures
// leave the stored catalog in place.
func seedCatalog(ctx context.Context, log *logger.Logger, catalog *service.CatalogService, path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		log.Warn("catalog file not found, skipping seed", "path", path)
		return
	}
	if _, err := catalog.SeedFromFile(ctx, path); err != nil {
		log.Error("failed to seed catalog", "path", path, "error", err)
	}
}
