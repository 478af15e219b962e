package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/interactions/internal/repositories"
	"github.com/anonto42/nano-midea/interactions/internal/router"
	"github.com/anonto42/nano-midea/interactions/internal/services"
	"github.com/anonto42/nano-midea/interactions/pkg/config"
	"github.com/anonto42/nano-midea/interactions/pkg/idgen"
	"github.com/anonto42/nano-midea/interactions/pkg/logger"
	"github.com/anonto42/nano-midea/interactions/pkg/metrics"
	"github.com/anonto42/nano-midea/interactions/validators"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	// Initialize database connections
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	store, err := openStore(cfg, db)
	if err != nil {
		log.WithError(err).Fatal("Failed to prepare store")
	}
	svc := services.New(store, idgen.New(), log, services.OptionsFromConfig(cfg))

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e, log)
	router.SetupRoutes(e, svc, cfg.JWTSecret, log)

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "driver": cfg.StoreDriver, "env": cfg.Env}).Info("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Metrics server shutdown failed")
	}
	log.Info("Server exited")
}

// openStore prepares the schema for the configured driver and returns its
// repositories.
func openStore(cfg *config.Config, db *config.DB) (*repositories.Store, error) {
	if db.Mongo != nil {
		mdb := db.Mongo.Database(cfg.MongoDatabase)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := repositories.EnsureMongoIndexes(ctx, mdb); err != nil {
			return nil, err
		}
		return repositories.NewMongoStore(mdb), nil
	}
	if err := repositories.AutoMigrate(db.Postgres); err != nil {
		return nil, err
	}
	return repositories.NewPostgresStore(db.Postgres), nil
}
