package api

import (
	"github.com/echocanvas/echocanvas/server/domain/entities"
	"github.com/echocanvas/echocanvas/server/domain/repositories"
)

// ErrorResponse is the uniform error body of the REST endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ModelsResponse lists the selectable models per pipeline stage.
type ModelsResponse struct {
	Audio    map[string]string `json:"audio"`
	Question map[string]string `json:"question"`
	Image    map[string]string `json:"image"`
}

// MetricsResponse is the REST telemetry snapshot.
type MetricsResponse struct {
	Latency map[string]float64     `json:"latency"`
	Cost    repositories.CostStats `json:"cost"`
}

// SessionsResponse wraps the session history listing.
type SessionsResponse struct {
	Sessions []entities.SessionRecord `json:"sessions"`
}
