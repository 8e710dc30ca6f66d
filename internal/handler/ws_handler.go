package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/veritest/veritest-backend/internal/middleware"
	"github.com/veritest/veritest-backend/internal/service"
	ws "github.com/veritest/veritest-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the live session channel. The channel doubles as the
// presence signal: connecting starts the session clock, disconnecting
// pauses it.
type WSHandler struct {
	sessionService *service.SessionService
	registry       *ws.Registry
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, registry *ws.Registry, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		registry:       registry,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream?token=
// Upgrades to WebSocket and drives the session clock by presence.
// Close codes: 4400 malformed session id, 4404 unknown session,
// 4409 a live channel already exists, 1011 unexpected server fault.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		ws.CloseWithCode(conn, ws.CloseBadSessionID, "malformed session id")
		return
	}

	wsLog := h.log.With().
		Int("student_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()

	if !h.registry.Acquire(sessionID) {
		wsLog.Warn().Msg("Duplicate channel rejected")
		ws.CloseWithCode(conn, ws.CloseDuplicateChannel, "channel already established")
		return
	}
	defer h.registry.Release(sessionID)

	// Connecting is the run-start transition.
	_, err = h.sessionService.RunStart(c.Request.Context(), sessionID, claims.UserID, claims.IsOperator())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound),
			errors.Is(err, service.ErrAttemptNotFound),
			errors.Is(err, service.ErrNotOwner):
			ws.CloseWithCode(conn, ws.CloseSessionNotFound, "session not found")
		case errors.Is(err, service.ErrSessionFinalized):
			ws.CloseWithCode(conn, websocket.ClosePolicyViolation, "session finalized")
		default:
			wsLog.Error().Err(err).Msg("Run start failed")
			ws.CloseWithCode(conn, websocket.CloseInternalServerErr, "internal error")
		}
		return
	}

	remaining, err := h.sessionService.RemainingTime(c.Request.Context(), sessionID, claims.UserID, claims.IsOperator())
	if err != nil {
		wsLog.Error().Err(err).Msg("Remaining time lookup failed")
		ws.CloseWithCode(conn, websocket.CloseInternalServerErr, "internal error")
		return
	}

	wsLog.Info().Msg("Channel established")

	if err := ws.WriteTyped(conn, ws.ConnectedResponse{
		Event:            ws.EventConnected,
		RemainingSeconds: remaining,
	}); err != nil {
		wsLog.Warn().Err(err).Msg("Connected event write failed")
	}

	// Disconnecting, however it happens, is the run-pause transition.
	// RunPause tolerates sessions finalized while the channel was open.
	defer func() {
		if _, err := h.sessionService.RunPause(context.Background(), sessionID); err != nil {
			if !errors.Is(err, service.ErrSessionFinalized) {
				wsLog.Error().Err(err).Msg("Run pause on disconnect failed")
			}
		}
		wsLog.Info().Msg("Channel closed")
	}()

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			h.handlePing(conn, wsLog, sessionID, claims)
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// handlePing answers with the current clock reading.
func (h *WSHandler) handlePing(conn *websocket.Conn, wsLog zerolog.Logger, sessionID uuid.UUID, claims *service.Claims) {
	remaining, err := h.sessionService.RemainingTime(context.Background(), sessionID, claims.UserID, claims.IsOperator())
	if err != nil {
		wsLog.Error().Err(err).Msg("Remaining time lookup failed")
		ws.WriteError(conn, "internal error")
		return
	}

	if err := ws.WriteTyped(conn, ws.PongResponse{
		Event:            ws.EventPong,
		RemainingSeconds: remaining,
	}); err != nil {
		wsLog.Warn().Err(err).Msg("Pong write failed")
	}
}
