package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
	"github.com/stoalearn/stoa-backend/internal/realtime"
	"github.com/stoalearn/stoa-backend/internal/services"
)

func TestPrerequisiteHandlerAddEmitsQueuedMessages(t *testing.T) {
	t.Parallel()

	lectureID := uuid.New()
	prereqID := uuid.New()
	prereq := &fakePrerequisiteService{
		addFn: func(ctx context.Context, input services.AddPrerequisiteInput) (*services.PrerequisiteEdgeView, error) {
			if input.LectureID != lectureID || input.PrerequisiteLectureID != prereqID {
				t.Fatalf("unexpected ids: got=(%s,%s) want=(%s,%s)",
					input.LectureID, input.PrerequisiteLectureID, lectureID, prereqID)
			}
			queueSSE(ctx, realtime.SSEMessage{
				Channel: realtime.SSEChannelCurriculum,
				Event:   realtime.SSEEventPrerequisiteChanged,
			})
			return &services.PrerequisiteEdgeView{Edge: &types.LecturePrerequisite{ID: uuid.New()}}, nil
		},
	}

	emitter := &recordingEmitter{}
	r := newTestEngine()
	r.Use(asUser(uuid.New(), uuid.New(), types.RoleAdmin))
	h := NewPrerequisiteHandler(prereq, emitter)
	r.POST("/prerequisites", h.AddPrerequisite)

	rec := performJSON(t, r, http.MethodPost, "/prerequisites", map[string]any{
		"lecture_id":              lectureID.String(),
		"prerequisite_lecture_id": prereqID.String(),
		"is_required":             true,
		"importance_level":        4,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	msgs := emitter.messages()
	if len(msgs) != 1 {
		t.Fatalf("unexpected emitted message count: got=%d want=%d", len(msgs), 1)
	}
	if msgs[0].Channel != realtime.SSEChannelCurriculum || msgs[0].Event != realtime.SSEEventPrerequisiteChanged {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
}

func TestPrerequisiteHandlerAddMapsCycleToConflict(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	prereq := &fakePrerequisiteService{
		addFn: func(ctx context.Context, input services.AddPrerequisiteInput) (*services.PrerequisiteEdgeView, error) {
			queueSSE(ctx, realtime.SSEMessage{Channel: realtime.SSEChannelCurriculum})
			return nil, &apperr.CircularDependencyError{
				Op:   "AddPrerequisite",
				Path: []uuid.UUID{a, c, b, a},
			}
		},
	}

	emitter := &recordingEmitter{}
	r := newTestEngine()
	r.Use(asUser(uuid.New(), uuid.New(), types.RoleAdmin))
	h := NewPrerequisiteHandler(prereq, emitter)
	r.POST("/prerequisites", h.AddPrerequisite)

	rec := performJSON(t, r, http.MethodPost, "/prerequisites", map[string]any{
		"lecture_id":              a.String(),
		"prerequisite_lecture_id": c.String(),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusConflict)
	}
	body := decodeBody(t, rec)
	env := body["error"].(map[string]any)
	if env["code"] != "circular_dependency" {
		t.Fatalf("unexpected code: got=%v want=%q", env["code"], "circular_dependency")
	}
	details := env["details"].(map[string]any)
	path, ok := details["path"].([]any)
	if !ok || len(path) != 4 {
		t.Fatalf("expected 4-node cycle path, got %v", details)
	}
	if path[0] != path[len(path)-1] {
		t.Fatalf("cycle path should start and end at the same id: %v", path)
	}
	// Nothing may reach clients from a rejected write.
	if got := len(emitter.messages()); got != 0 {
		t.Fatalf("expected no emitted messages on failure, got %d", got)
	}
}

func TestPrerequisiteHandlerAddPassesMalformedIDsToService(t *testing.T) {
	t.Parallel()

	var got services.AddPrerequisiteInput
	prereq := &fakePrerequisiteService{
		addFn: func(ctx context.Context, input services.AddPrerequisiteInput) (*services.PrerequisiteEdgeView, error) {
			got = input
			return nil, &apperr.ValidationError{Op: "AddPrerequisite", Fields: map[string]string{
				"lecture_id":              "required",
				"prerequisite_lecture_id": "required",
			}}
		},
	}

	r := newTestEngine()
	r.Use(asUser(uuid.New(), uuid.New(), types.RoleAdmin))
	h := NewPrerequisiteHandler(prereq, &recordingEmitter{})
	r.POST("/prerequisites", h.AddPrerequisite)

	rec := performJSON(t, r, http.MethodPost, "/prerequisites", map[string]any{
		"lecture_id":              "garbage",
		"prerequisite_lecture_id": "also-garbage",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if got.LectureID != uuid.Nil || got.PrerequisiteLectureID != uuid.Nil {
		t.Fatalf("malformed uuids should reach the service as Nil, got %+v", got)
	}
}

func TestPrerequisiteHandlerReadinessUsesCaller(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	lectureID := uuid.New()
	prereq := &fakePrerequisiteService{
		checkFn: func(ctx context.Context, gotUser, gotLecture uuid.UUID) (services.ReadinessResult, error) {
			if gotUser != userID {
				t.Fatalf("unexpected user: got=%s want=%s", gotUser, userID)
			}
			if gotLecture != lectureID {
				t.Fatalf("unexpected lecture: got=%s want=%s", gotLecture, lectureID)
			}
			return services.ReadinessResult{Satisfied: true, ReadinessScore: 100}, nil
		},
	}

	r := newTestEngine()
	r.Use(asUser(userID, uuid.New(), types.RoleStudent))
	h := NewPrerequisiteHandler(prereq, &recordingEmitter{})
	r.GET("/lectures/:id/readiness", h.CheckReadiness)

	rec := performJSON(t, r, http.MethodGet, "/lectures/"+lectureID.String()+"/readiness", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := decodeBody(t, rec)
	readiness := body["readiness"].(map[string]any)
	if readiness["satisfied"] != true {
		t.Fatalf("expected satisfied readiness, got %v", readiness)
	}
	if readiness["readiness_score"] != float64(100) {
		t.Fatalf("unexpected score: got=%v want=%v", readiness["readiness_score"], 100)
	}
}

func TestPrerequisiteHandlerReadinessRequiresCaller(t *testing.T) {
	t.Parallel()

	r := newTestEngine()
	h := NewPrerequisiteHandler(&fakePrerequisiteService{}, &recordingEmitter{})
	r.GET("/lectures/:id/readiness", h.CheckReadiness)

	rec := performJSON(t, r, http.MethodGet, "/lectures/"+uuid.NewString()+"/readiness", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
}

func TestPrerequisiteHandlerAvailabilityQueryOptions(t *testing.T) {
	t.Parallel()

	var gotOpts services.AvailabilityOptions
	prereq := &fakePrerequisiteService{
		availableFn: func(ctx context.Context, userID uuid.UUID, opts services.AvailabilityOptions) ([]*services.LectureAvailability, error) {
			gotOpts = opts
			return []*services.LectureAvailability{}, nil
		},
	}

	r := newTestEngine()
	r.Use(asUser(uuid.New(), uuid.New(), types.RoleStudent))
	h := NewPrerequisiteHandler(prereq, &recordingEmitter{})
	r.GET("/lectures/availability", h.ListAvailability)

	rec := performJSON(t, r, http.MethodGet, "/lectures/availability?category=Logic&include_in_progress=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	if gotOpts.Category != "Logic" || !gotOpts.IncludeInProgress {
		t.Fatalf("unexpected options: %+v", gotOpts)
	}
}

func TestPrerequisiteHandlerSuggestionsParseLimit(t *testing.T) {
	t.Parallel()

	var gotOpts services.SuggestionOptions
	prereq := &fakePrerequisiteService{
		suggestFn: func(ctx context.Context, userID uuid.UUID, opts services.SuggestionOptions) ([]*services.LectureAvailability, error) {
			gotOpts = opts
			return []*services.LectureAvailability{}, nil
		},
	}

	r := newTestEngine()
	r.Use(asUser(uuid.New(), uuid.New(), types.RoleStudent))
	h := NewPrerequisiteHandler(prereq, &recordingEmitter{})
	r.GET("/lectures/suggestions", h.SuggestNextLectures)

	rec := performJSON(t, r, http.MethodGet, "/lectures/suggestions?limit=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	if gotOpts.Limit != 3 {
		t.Fatalf("unexpected limit: got=%d want=%d", gotOpts.Limit, 3)
	}
}

func TestPrerequisiteHandlerRemoveEmitsAfterSuccess(t *testing.T) {
	t.Parallel()

	edgeID := uuid.New()
	prereq := &fakePrerequisiteService{
		removeFn: func(ctx context.Context, got uuid.UUID) error {
			if got != edgeID {
				t.Fatalf("unexpected edge id: got=%s want=%s", got, edgeID)
			}
			queueSSE(ctx, realtime.SSEMessage{
				Channel: realtime.SSEChannelCurriculum,
				Event:   realtime.SSEEventPrerequisiteChanged,
			})
			return nil
		},
	}

	emitter := &recordingEmitter{}
	r := newTestEngine()
	r.Use(asUser(uuid.New(), uuid.New(), types.RoleAdmin))
	h := NewPrerequisiteHandler(prereq, emitter)
	r.DELETE("/prerequisites/:id", h.RemovePrerequisite)

	rec := performJSON(t, r, http.MethodDelete, "/prerequisites/"+edgeID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	if got := len(emitter.messages()); got != 1 {
		t.Fatalf("unexpected emitted message count: got=%d want=%d", got, 1)
	}
}
