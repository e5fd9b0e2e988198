package handlers

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stoalearn/stoa-backend/internal/http/response"
	"github.com/stoalearn/stoa-backend/internal/platform/apierr"
	"github.com/stoalearn/stoa-backend/internal/platform/ctxutil"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/realtime"
	"github.com/stoalearn/stoa-backend/internal/services"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.SSEHub

	mu      sync.RWMutex
	clients map[uuid.UUID]*realtime.SSEClient // key: SessionID (UserToken.ID)
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		Log:     log,
		Hub:     hub,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// GET /sse/stream
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondServiceError(c, apierr.Unauthorized(errNotAuthenticated))
		return
	}
	userID := rd.UserID
	sessionID := rd.SessionID
	if sessionID == uuid.Nil {
		response.RespondServiceError(c, apierr.Unauthorized(errMissingSession))
		return
	}
	h.Log.Info("SSEStream open", "user_id", userID.String(), "session_id", sessionID.String())

	h.mu.Lock()
	// If this session already has a client, close it and replace.
	if existing, ok := h.clients[sessionID]; ok {
		h.Hub.CloseClient(existing)
		delete(h.clients, sessionID)
	}
	client := h.Hub.NewSSEClient(userID)
	h.clients[sessionID] = client
	h.mu.Unlock()

	// Every session joins the user's own channel plus the shared curriculum
	// channel, so graph edits reach students without an explicit subscribe.
	h.Hub.AddChannel(client, userID.String())
	h.Hub.AddChannel(client, realtime.SSEChannelCurriculum)

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	// Cleanup after disconnect
	h.mu.Lock()
	delete(h.clients, sessionID)
	h.mu.Unlock()
	h.Hub.CloseClient(client)
}

// POST /sse/subscribe
func (h *RealtimeHandler) SSESubscribe(c *gin.Context) {
	client, channel, err := h.sessionClientAndChannel(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.Hub.AddChannel(client, channel)
	response.RespondOK(c, gin.H{"message": "subscribed", "channel": channel})
}

// POST /sse/unsubscribe
func (h *RealtimeHandler) SSEUnsubscribe(c *gin.Context) {
	client, channel, err := h.sessionClientAndChannel(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.Hub.RemoveChannel(client, channel)
	response.RespondOK(c, gin.H{"message": "unsubscribed", "channel": channel})
}

var errMissingSession = errors.New("missing session id")

func (h *RealtimeHandler) sessionClientAndChannel(c *gin.Context) (*realtime.SSEClient, string, error) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, "", apierr.Unauthorized(errNotAuthenticated)
	}
	if rd.SessionID == uuid.Nil {
		return nil, "", apierr.Unauthorized(errMissingSession)
	}

	var req struct {
		Channel string `json:"channel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Channel == "" {
		return nil, "", apierr.BadRequest("invalid_channel", errors.New("invalid channel"))
	}

	h.mu.RLock()
	client, exists := h.clients[rd.SessionID]
	h.mu.RUnlock()
	if !exists {
		return nil, "", apierr.Conflict("no_active_stream",
			errors.New("no active SSE connection for this session"))
	}
	return client, req.Channel, nil
}

// flushRealtime emits the messages services queued on the request
// context during a successful operation. Called only after the service call
// returns nil, so rolled-back writes never emit events.
func flushRealtime(c *gin.Context, emitter services.SSEEmitter) {
	if emitter == nil {
		return
	}
	ssd := ctxutil.GetSSEData(c.Request.Context())
	if ssd == nil || len(ssd.Messages) == 0 {
		return
	}
	for _, msg := range ssd.Messages {
		emitter.Emit(c.Request.Context(), msg)
	}
	ssd.Messages = ssd.Messages[:0]
}
