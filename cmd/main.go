package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/adapters/mongo"
	"github.com/echocanvas/echocanvas/server/adapters/store"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
	"github.com/echocanvas/echocanvas/server/internal/api"
	"github.com/echocanvas/echocanvas/server/internal/catalog"
	"github.com/echocanvas/echocanvas/server/internal/config"
	"github.com/echocanvas/echocanvas/server/internal/telemetry"
	"github.com/echocanvas/echocanvas/server/internal/websocket"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load local .env if present, then configuration from the environment
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found", zap.Error(err))
	}
	cfg := config.Load()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Injected telemetry collectors, shared by every connection
	metrics := telemetry.NewRecorder(cfg.MetricsFile, logger)
	costs := telemetry.NewPriceTracker()

	// Session history: MongoDB when configured, in-memory otherwise
	var sessions repositories.SessionRepository = store.NewMemorySessionRepository()
	if cfg.MongoURI != "" {
		db, err := mongo.Connect(context.Background(), cfg.MongoURI)
		if err != nil {
			logger.Warn("MongoDB unavailable, using in-memory session history", zap.Error(err))
		} else {
			sessions = mongo.NewSessionRepository(db)
			logger.Info("Session history backed by MongoDB")
		}
	}

	cat := &catalog.Catalog{Metrics: metrics, Costs: costs, Logger: logger}

	// Initialize WebSocket hub; each connection gets its own file store
	hub := websocket.NewHub(cat, cfg, metrics, costs, sessions, func() repositories.SessionStore {
		return store.NewFileStore(cfg.SessionsDir, logger)
	}, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, hub, cfg, metrics, costs, sessions, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
