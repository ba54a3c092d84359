// Package api wires the HTTP surface: health, the websocket endpoint and a
// small read-only REST companion for exports and session history.
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/adapters/store"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
	"github.com/echocanvas/echocanvas/server/internal/config"
	"github.com/echocanvas/echocanvas/server/internal/websocket"
)

// InitRoutes initializes all API routes.
func InitRoutes(
	e *echo.Echo,
	hub *websocket.Hub,
	cfg *config.Config,
	metrics repositories.MetricsRecorder,
	costs repositories.CostTracker,
	sessions repositories.SessionRepository,
	logger *zap.Logger,
) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "echocanvas-server",
			"clients": hub.ClientCount(),
		})
	})

	// WebSocket endpoint, one pipeline per connection
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c, logger)
	})

	// Model catalogs for the client's settings panel
	e.GET("/api/models", func(c echo.Context) error {
		return c.JSON(http.StatusOK, ModelsResponse{
			Audio:    config.AudioModels,
			Question: config.QuestionModels,
			Image:    config.ImageModels,
		})
	})

	// Telemetry snapshot, same data the websocket get_metrics message returns
	e.GET("/api/metrics", func(c echo.Context) error {
		return c.JSON(http.StatusOK, MetricsResponse{
			Latency: metrics.Averages(),
			Cost:    costs.Stats(),
		})
	})

	e.GET("/api/sessions", func(c echo.Context) error {
		return listSessions(c, sessions, logger)
	})

	e.GET("/api/export", func(c echo.Context) error {
		return exportSession(c, cfg.SessionsDir, logger)
	})
}

func listSessions(c echo.Context, sessions repositories.SessionRepository, logger *zap.Logger) error {
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_limit",
				Message: "limit must be a positive integer",
			})
		}
		limit = n
	}

	records, err := sessions.List(c.Request().Context(), limit)
	if err != nil {
		logger.Error("Failed to list sessions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list sessions",
		})
	}
	return c.JSON(http.StatusOK, SessionsResponse{Sessions: records})
}

// exportSession zips a session directory by name and streams the archive
// back as an attachment.
func exportSession(c echo.Context, sessionsDir string, logger *zap.Logger) error {
	name := c.QueryParam("session")
	if name == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_session",
			Message: "session query parameter is required",
		})
	}

	path, err := store.ArchiveSession(sessionsDir, name)
	if err != nil {
		logger.Warn("Failed to export session", zap.String("session", name), zap.Error(err))
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "export_failed",
			Message: "Session not found or could not be archived",
		})
	}
	return c.Attachment(path, name+".zip")
}
