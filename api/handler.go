// Package api provides HTTP handlers for the coaching service.
package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/coach/coach"
	"github.com/xiaot623/gogo/coach/config"
)

// Handler handles HTTP requests.
type Handler struct {
	registry *coach.Registry
	config   *config.Config
	upgrader websocket.Upgrader
}

// NewHandler creates a new handler.
func NewHandler(registry *coach.Registry, cfg *config.Config) *Handler {
	return &Handler{
		registry: registry,
		config:   cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Users
	e.GET("/v1/coach", h.ListUsers)
	e.DELETE("/v1/coach/:user_id", h.ResetUser)

	// Coaching turns
	e.POST("/v1/coach/:user_id/ask", h.Ask)
	e.GET("/v1/coach/:user_id/ws", h.CoachWebSocket)

	// Profile and history
	e.POST("/v1/coach/:user_id/outcomes", h.RecordOutcome)
	e.GET("/v1/coach/:user_id/profile", h.GetProfile)
	e.GET("/v1/coach/:user_id/history", h.GetHistory)

	e.POST("/v1/insights", h.Insights)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, ErrorResponse{Error: msg})
}
