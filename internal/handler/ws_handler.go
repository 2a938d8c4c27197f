package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jaehyeon1716/survey-sub000/internal/config"
	"github.com/jaehyeon1716/survey-sub000/internal/middleware"
	"github.com/jaehyeon1716/survey-sub000/internal/service"
	ws "github.com/jaehyeon1716/survey-sub000/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
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

// WSHandler streams live submission events to admin monitors.
type WSHandler struct {
	rdb           *redis.Client
	surveyService *service.SurveyService
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, surveyService *service.SurveyService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:           rdb,
		surveyService: surveyService,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// MonitorSurvey godoc
// WS /ws/v1/admin/surveys/:survey_id/monitor
// Upgrades to WebSocket and forwards each completed submission as it lands.
func (h *WSHandler) MonitorSurvey(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey ID"})
		return
	}

	if _, err := h.surveyService.Get(c.Request.Context(), surveyID); err != nil {
		if errors.Is(err, service.ErrSurveyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
			return
		}
		h.log.Error().Err(err).Msg("Monitor survey lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Int("admin_id", claims.AdminID).
		Str("survey_id", surveyID.String()).
		Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.SurveyMonitorChannel(surveyID.String()))
	defer pubsub.Close()

	wsLog.Info().Msg("Monitor connected")

	go h.forwardEvents(ctx, pubsub, conn, wsLog)

	// Read loop: serves pings and detects the close.
	for {
		var msg ws.RequestEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Monitor disconnected")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			_ = conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// forwardEvents pumps submission events from the Redis channel to the socket.
func (h *WSHandler) forwardEvents(ctx context.Context, pubsub *redis.PubSub, conn *ws.Conn, wsLog zerolog.Logger) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event service.SubmissionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				wsLog.Warn().Err(err).Msg("Malformed monitor event")
				continue
			}
			out := ws.SubmissionMessage{
				Event:       ws.EventSubmission,
				SurveyID:    event.SurveyID,
				Hospital:    event.Hospital,
				Participant: event.Participant,
				SubmittedAt: event.SubmittedAt,
			}
			if err := conn.WriteTyped(out); err != nil {
				wsLog.Debug().Err(err).Msg("Monitor write failed")
				return
			}
		}
	}
}
