package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/coach/coach"
	"github.com/xiaot623/gogo/coach/domain"
)

// AskRequest is the body of a coaching turn request.
type AskRequest struct {
	Context   domain.ConversationContext `json:"context"`
	UserInput string                     `json:"user_input"`
}

// Ask streams one coaching turn as server-sent events.
// POST /v1/coach/:user_id/ask
func (h *Handler) Ask(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")

	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if _, err := domain.ParseSessionType(string(req.Context.SessionType)); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	o := h.registry.Get(ctx, userID)
	if o.InFlight() {
		return errorJSON(c, http.StatusConflict, coach.ErrTurnInProgress.Error())
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	w := c.Response()
	for chunk := range o.AskCoach(ctx, req.Context, req.UserInput) {
		data, err := json.Marshal(chunk)
		if err != nil {
			slog.Error("failed to marshal chunk", "user_id", userID, "error", err)
			return nil
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			slog.Warn("client went away mid-turn", "user_id", userID, "error", err)
			return nil
		}
		w.Flush()
	}

	fmt.Fprintf(w, "data: [DONE]\n\n")
	w.Flush()
	return nil
}

// OutcomeRequest reports how a focus session ended.
type OutcomeRequest struct {
	Completed    bool             `json:"completed"`
	Distractions []string         `json:"distractions"`
	TimeOfDay    domain.TimeOfDay `json:"time_of_day"`
}

// RecordOutcome folds a finished session into the user's profile.
// POST /v1/coach/:user_id/outcomes
func (h *Handler) RecordOutcome(c echo.Context) error {
	ctx := c.Request().Context()

	var req OutcomeRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.TimeOfDay != "" && !req.TimeOfDay.Valid() {
		return errorJSON(c, http.StatusBadRequest, fmt.Sprintf("invalid time_of_day: %q", req.TimeOfDay))
	}

	o := h.registry.Get(ctx, c.Param("user_id"))
	p, err := o.RecordOutcome(ctx, req.Completed, req.Distractions, req.TimeOfDay)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "failed to record outcome")
	}
	return c.JSON(http.StatusOK, p)
}

// GetProfile returns the user's profile.
// GET /v1/coach/:user_id/profile
func (h *Handler) GetProfile(c echo.Context) error {
	o := h.registry.Get(c.Request().Context(), c.Param("user_id"))
	return c.JSON(http.StatusOK, o.Profile())
}

// GetHistory returns the most recent conversation log entries.
// GET /v1/coach/:user_id/history?limit=
func (h *Handler) GetHistory(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 10
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil || limit < 0 {
		return errorJSON(c, http.StatusBadRequest, "invalid limit")
	}

	o := h.registry.Get(ctx, c.Param("user_id"))
	entries, err := o.History(ctx, limit)
	if err != nil {
		slog.Error("failed to load history", "user_id", o.UserID(), "error", err)
		return errorJSON(c, http.StatusInternalServerError, "failed to load history")
	}
	if entries == nil {
		entries = []domain.ConversationLogEntry{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"entries": entries,
	})
}

// InsightsRequest carries the sessions to analyse.
type InsightsRequest struct {
	Sessions []domain.SessionRecord `json:"sessions"`
}

// Insights derives insights from historical sessions.
// POST /v1/insights
func (h *Handler) Insights(c echo.Context) error {
	var req InsightsRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	out := h.registry.Insights().Insights(c.Request().Context(), req.Sessions)
	if out == nil {
		out = []string{}
	}
	return c.JSON(http.StatusOK, map[string][]string{
		"insights": out,
	})
}

// ListUsers lists users with stored coaching data.
// GET /v1/coach
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.registry.Users(c.Request().Context())
	if err != nil {
		slog.Error("failed to list users", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "failed to list users")
	}
	return c.JSON(http.StatusOK, map[string][]string{
		"users": users,
	})
}

// ResetUser erases a user's profile and conversation history.
// DELETE /v1/coach/:user_id
func (h *Handler) ResetUser(c echo.Context) error {
	userID := c.Param("user_id")
	if err := h.registry.Reset(c.Request().Context(), userID); err != nil {
		if errors.Is(err, coach.ErrTurnInProgress) {
			return errorJSON(c, http.StatusConflict, err.Error())
		}
		slog.Error("failed to reset user", "user_id", userID, "error", err)
		return errorJSON(c, http.StatusInternalServerError, "failed to reset user")
	}
	return c.NoContent(http.StatusNoContent)
}
