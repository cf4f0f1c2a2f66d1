package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/lenterailmu/ujian-backend/internal/config"
	"github.com/lenterailmu/ujian-backend/internal/middleware"
	"github.com/lenterailmu/ujian-backend/internal/model"
	"github.com/lenterailmu/ujian-backend/internal/service"
	ws "github.com/lenterailmu/ujian-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow list permits all origins (development mode).
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

// WSHandler streams a live exam session: batched autosave, finish with
// immediate grading, and the authoritative countdown.
type WSHandler struct {
	rdb            *redis.Client
	sessionService *service.SessionService
	scoringService *service.ScoringService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, sessionService *service.SessionService, scoringService *service.ScoringService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		sessionService: sessionService,
		scoringService: scoringService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream
// Upgrades to WebSocket. Autosaves go through the same ledger path as the
// HTTP endpoint, so a reconnecting client always reads back what it saved.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	// Ownership and liveness checked before the upgrade so a rejected client
	// gets a proper HTTP status.
	session, err := h.sessionService.GetSession(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if session.Status != model.SessionStatusActive {
		c.JSON(http.StatusConflict, gin.H{"error": "session is not active"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")

	h.cacheEndTime(context.Background(), session)

	for {
		raw, err := ws.ReadRaw(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		// Peek at the action first, then parse the full typed request.
		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			ws.WriteError(conn, "INVALID_PAYLOAD", "malformed message")
			continue
		}

		switch envelope.Action {
		case ws.ActionAutosave:
			var msg ws.AutosaveRequest
			if err := json.Unmarshal(raw, &msg); err != nil {
				ws.WriteError(conn, "INVALID_PAYLOAD", "malformed autosave")
				continue
			}
			h.handleAutosave(conn, wsLog, sessionID, claims.UserID, &msg)
		case ws.ActionFinish:
			var msg ws.FinishRequest
			if err := json.Unmarshal(raw, &msg); err != nil {
				ws.WriteError(conn, "INVALID_PAYLOAD", "malformed finish")
				continue
			}
			if done := h.handleFinish(conn, wsLog, sessionID, claims.UserID); done {
				return
			}
		case ws.ActionPing:
			h.handlePing(conn, sessionID)
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			ws.WriteError(conn, "UNKNOWN_ACTION", "unknown action: "+string(envelope.Action))
		}
	}
}

// handleAutosave persists the batch through the ledger. A write past end_time
// is rejected exactly like the HTTP path.
func (h *WSHandler) handleAutosave(conn *websocket.Conn, wsLog zerolog.Logger, sessionID uuid.UUID, studentID int, msg *ws.AutosaveRequest) {
	if len(msg.Answers) == 0 {
		ws.WriteError(conn, "INVALID_PAYLOAD", "answers are required")
		return
	}

	inputs := make([]model.AnswerInput, 0, len(msg.Answers))
	for _, a := range msg.Answers {
		inputs = append(inputs, model.AnswerInput{Slot: a.Slot, Value: a.Value})
	}

	if err := h.sessionService.SubmitAnswers(context.Background(), sessionID, studentID, inputs); err != nil {
		switch err {
		case service.ErrTimeUp:
			ws.WriteError(conn, "TIME_UP", "session time is up")
		case service.ErrSessionCompleted:
			ws.WriteError(conn, "SESSION_COMPLETED", "session is completed")
		case service.ErrInvalidSlot:
			ws.WriteError(conn, "INVALID_SLOT", "slot does not belong to this exam")
		default:
			wsLog.Error().Err(err).Msg("Autosave failed")
			ws.WriteError(conn, "INTERNAL_ERROR", "save failed")
		}
		return
	}

	ws.WriteTyped(conn, ws.AutosaveResponse{
		Event:  ws.EventSuccess,
		Status: "saved",
		Saved:  len(inputs),
	})
}

// handleFinish completes the session and pushes the score. Returns true when
// the stream should close.
func (h *WSHandler) handleFinish(conn *websocket.Conn, wsLog zerolog.Logger, sessionID uuid.UUID, studentID int) bool {
	ctx := context.Background()

	session, err := h.sessionService.Finish(ctx, sessionID, studentID)
	if err != nil {
		if err == service.ErrTimeUp {
			ws.WriteError(conn, "TIME_UP", "session time is up")
			return true
		}
		wsLog.Error().Err(err).Msg("Finish failed")
		ws.WriteError(conn, "INTERNAL_ERROR", "finish failed")
		return false
	}

	score, err := h.scoringService.ScoreSession(ctx, session)
	if err != nil {
		wsLog.Error().Err(err).Msg("Scoring failed")
		ws.WriteError(conn, "INTERNAL_ERROR", "grading failed")
		return true
	}

	wsLog.Info().
		Float64("percentage", score.Percentage).
		Int("correct", score.Correct).
		Int("total", score.TotalSlots).
		Msg("Session finished and graded")

	ws.WriteTyped(conn, ws.FinishedResponse{
		Event:  ws.EventFinished,
		Status: "completed",
		Score:  score.Percentage,
	})
	return true
}

// handlePing answers with the authoritative remaining time. The end time is
// read from Redis and self-heals from Postgres on a miss.
func (h *WSHandler) handlePing(conn *websocket.Conn, sessionID uuid.UUID) {
	ctx := context.Background()

	endTime, ok := h.cachedEndTime(ctx, sessionID)
	if !ok {
		ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		return
	}

	remaining := int64(time.Until(endTime).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	ws.WriteTyped(conn, ws.TickResponse{
		Event:     ws.EventTick,
		Remaining: remaining,
	})
}

func (h *WSHandler) cacheEndTime(ctx context.Context, session *model.Session) {
	key := config.CacheKey.SessionEndTimeKey(session.ID.String())
	ttl := time.Until(session.EndTime) + time.Hour
	if err := h.rdb.Set(ctx, key, session.EndTime.Unix(), ttl).Err(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to cache session end time")
	}
}

func (h *WSHandler) cachedEndTime(ctx context.Context, sessionID uuid.UUID) (time.Time, bool) {
	key := config.CacheKey.SessionEndTimeKey(sessionID.String())
	raw, err := h.rdb.Get(ctx, key).Result()
	if err == nil {
		if unix, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			return time.Unix(unix, 0), true
		}
	}

	// Miss or corrupt entry: fall back to Postgres and repopulate.
	session, err := h.sessionService.GetSessionAnyOwner(ctx, sessionID)
	if err != nil {
		return time.Time{}, false
	}
	h.cacheEndTime(ctx, session)
	return session.EndTime, true
}
