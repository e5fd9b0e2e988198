package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
	"github.com/stoalearn/stoa-backend/internal/services"
)

func TestLectureHandlerCreate(t *testing.T) {
	t.Parallel()

	lec := &fakeLectureService{
		createFn: func(ctx context.Context, input services.CreateLectureInput) (*types.Lecture, error) {
			if input.Title != "Introduction to Logic" {
				t.Fatalf("unexpected title: got=%q want=%q", input.Title, "Introduction to Logic")
			}
			if input.Category != "Logic" {
				t.Fatalf("unexpected category: got=%q want=%q", input.Category, "Logic")
			}
			return &types.Lecture{ID: uuid.New(), Title: input.Title, Category: input.Category}, nil
		},
	}

	r := newTestEngine()
	h := NewLectureHandler(lec)
	r.POST("/lectures", h.CreateLecture)

	rec := performJSON(t, r, http.MethodPost, "/lectures", map[string]any{
		"title":            "Introduction to Logic",
		"category":         "Logic",
		"order_index":      1,
		"duration_minutes": 45,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if _, ok := body["lecture"]; !ok {
		t.Fatalf("expected lecture in body, got %v", body)
	}
}

func TestLectureHandlerCreateMapsValidation(t *testing.T) {
	t.Parallel()

	lec := &fakeLectureService{
		createFn: func(ctx context.Context, input services.CreateLectureInput) (*types.Lecture, error) {
			return nil, &apperr.ValidationError{Op: "CreateLecture", Fields: map[string]string{
				"title":    "required",
				"category": "required",
			}}
		},
	}

	r := newTestEngine()
	h := NewLectureHandler(lec)
	r.POST("/lectures", h.CreateLecture)

	rec := performJSON(t, r, http.MethodPost, "/lectures", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	body := decodeBody(t, rec)
	env := body["error"].(map[string]any)
	if env["code"] != "validation_failed" {
		t.Fatalf("unexpected code: got=%v want=%q", env["code"], "validation_failed")
	}
	details, ok := env["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected field details, got %v", env)
	}
	fields := details["fields"].(map[string]any)
	if fields["title"] != "required" || fields["category"] != "required" {
		t.Fatalf("expected every violated field reported, got %v", fields)
	}
}

func TestLectureHandlerGetRejectsBadID(t *testing.T) {
	t.Parallel()

	r := newTestEngine()
	h := NewLectureHandler(&fakeLectureService{})
	r.GET("/lectures/:id", h.GetLecture)

	rec := performJSON(t, r, http.MethodGet, "/lectures/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if code := errorCode(t, rec); code != "invalid_id" {
		t.Fatalf("unexpected error code: got=%q want=%q", code, "invalid_id")
	}
}

func TestLectureHandlerGetMapsNotFound(t *testing.T) {
	t.Parallel()

	missing := uuid.New()
	lec := &fakeLectureService{
		getFn: func(ctx context.Context, id uuid.UUID) (*types.Lecture, error) {
			return nil, &apperr.NotFoundError{Resource: "lecture", ID: id}
		},
	}

	r := newTestEngine()
	h := NewLectureHandler(lec)
	r.GET("/lectures/:id", h.GetLecture)

	rec := performJSON(t, r, http.MethodGet, "/lectures/"+missing.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNotFound)
	}
	if code := errorCode(t, rec); code != "not_found" {
		t.Fatalf("unexpected error code: got=%q want=%q", code, "not_found")
	}
}

func TestLectureHandlerListPassesCategoryFilter(t *testing.T) {
	t.Parallel()

	var gotCategory string
	lec := &fakeLectureService{
		listFn: func(ctx context.Context, category string) ([]*types.Lecture, error) {
			gotCategory = category
			return []*types.Lecture{}, nil
		},
	}

	r := newTestEngine()
	h := NewLectureHandler(lec)
	r.GET("/lectures", h.ListLectures)

	rec := performJSON(t, r, http.MethodGet, "/lectures?category=Ethics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	if gotCategory != "Ethics" {
		t.Fatalf("unexpected category filter: got=%q want=%q", gotCategory, "Ethics")
	}
}

func TestLectureHandlerDelete(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	var deleted uuid.UUID
	lec := &fakeLectureService{
		deleteFn: func(ctx context.Context, got uuid.UUID) error {
			deleted = got
			return nil
		},
	}

	r := newTestEngine()
	h := NewLectureHandler(lec)
	r.DELETE("/lectures/:id", h.DeleteLecture)

	rec := performJSON(t, r, http.MethodDelete, "/lectures/"+id.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	if deleted != id {
		t.Fatalf("unexpected id passed to service: got=%s want=%s", deleted, id)
	}
}
