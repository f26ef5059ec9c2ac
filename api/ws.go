package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/coach/coach"
	"github.com/xiaot623/gogo/coach/domain"
	"github.com/xiaot623/gogo/coach/protocol"
)

// CoachWebSocket serves coaching turns over a websocket. Turns on one
// connection run one after another.
// GET /v1/coach/:user_id/ws
func (h *Handler) CoachWebSocket(c echo.Context) error {
	userID := c.Param("user_id")
	ctx := c.Request().Context()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("failed to upgrade websocket", "user_id", userID, "error", err)
		return err
	}
	defer conn.Close()

	conn.SetReadLimit(h.config.WSMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.config.WSReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.config.WSReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(conn, done)

	o := h.registry.Get(ctx, userID)
	slog.Info("websocket connected", "user_id", userID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "user_id", userID, "error", err)
			}
			return nil
		}

		if err := h.handleMessage(ctx, conn, o, data); err != nil {
			slog.Warn("websocket write failed", "user_id", userID, "error", err)
			return nil
		}
		conn.SetReadDeadline(time.Now().Add(h.config.WSReadTimeout))
	}
}

// pingLoop keeps the connection alive until done is closed.
func (h *Handler) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.config.WSPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(h.config.WSWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// handleMessage serves one client message. It returns an error only when the
// connection can no longer be written to.
func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, o *coach.Orchestrator, data []byte) error {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return h.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid JSON message")
	}
	if base.Type != protocol.TypeAsk {
		return h.sendError(conn, base.RequestID, protocol.ErrorCodeInvalidMessage, "unknown message type: "+base.Type)
	}

	var msg protocol.AskMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return h.sendError(conn, base.RequestID, protocol.ErrorCodeInvalidMessage, "invalid ask message")
	}
	if _, err := domain.ParseSessionType(string(msg.Context.SessionType)); err != nil {
		return h.sendError(conn, msg.RequestID, protocol.ErrorCodeInvalidMessage, err.Error())
	}
	if o.InFlight() {
		return h.sendError(conn, msg.RequestID, protocol.ErrorCodeTurnInProgress, coach.ErrTurnInProgress.Error())
	}

	for chunk := range o.AskCoach(ctx, msg.Context, msg.UserInput) {
		var out any
		if chunk.IsComplete {
			out = protocol.DoneMessage{
				BaseMessage: protocol.NewBase(protocol.TypeDone, msg.RequestID),
				Response:    *chunk.FullResponse,
			}
		} else {
			out = protocol.DeltaMessage{
				BaseMessage: protocol.NewBase(protocol.TypeDelta, msg.RequestID),
				Text:        chunk.Chunk,
			}
		}
		if err := h.writeJSON(conn, out); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) sendError(conn *websocket.Conn, requestID, code, message string) error {
	return h.writeJSON(conn, protocol.ErrorMessage{
		BaseMessage: protocol.NewBase(protocol.TypeError, requestID),
		Code:        code,
		Message:     message,
	})
}

func (h *Handler) writeJSON(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(h.config.WSWriteTimeout))
	return conn.WriteJSON(v)
}
