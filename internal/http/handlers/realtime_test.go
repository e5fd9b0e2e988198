package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/realtime"
)

func newTestHub(t *testing.T) (*logger.Logger, *realtime.SSEHub) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return log, realtime.NewSSEHub(log)
}

func TestRealtimeHandlerSubscribeRequiresCaller(t *testing.T) {
	t.Parallel()

	log, hub := newTestHub(t)
	r := newTestEngine()
	h := NewRealtimeHandler(log, hub)
	r.POST("/sse/subscribe", h.SSESubscribe)

	rec := performJSON(t, r, http.MethodPost, "/sse/subscribe", map[string]any{"channel": "curriculum"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
	if got := errorCode(t, rec); got != "unauthorized" {
		t.Fatalf("unexpected code: got=%q want=%q", got, "unauthorized")
	}
}

func TestRealtimeHandlerSubscribeWithoutStream(t *testing.T) {
	t.Parallel()

	log, hub := newTestHub(t)
	r := newTestEngine()
	r.Use(asUser(uuid.New(), uuid.New(), types.RoleStudent))
	h := NewRealtimeHandler(log, hub)
	r.POST("/sse/subscribe", h.SSESubscribe)

	rec := performJSON(t, r, http.MethodPost, "/sse/subscribe", map[string]any{"channel": "curriculum"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusConflict)
	}
	if got := errorCode(t, rec); got != "no_active_stream" {
		t.Fatalf("unexpected code: got=%q want=%q", got, "no_active_stream")
	}
}

func TestRealtimeHandlerSubscribeRejectsEmptyChannel(t *testing.T) {
	t.Parallel()

	log, hub := newTestHub(t)
	r := newTestEngine()
	r.Use(asUser(uuid.New(), uuid.New(), types.RoleStudent))
	h := NewRealtimeHandler(log, hub)
	r.POST("/sse/subscribe", h.SSESubscribe)

	rec := performJSON(t, r, http.MethodPost, "/sse/subscribe", map[string]any{"channel": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if got := errorCode(t, rec); got != "invalid_channel" {
		t.Fatalf("unexpected code: got=%q want=%q", got, "invalid_channel")
	}
}
