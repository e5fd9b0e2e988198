package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
)

func TestUserHandlerGetMe(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	user := &fakeUserService{
		getMeFn: func(ctx context.Context) (*types.User, error) {
			return &types.User{ID: userID, Email: "zeno@stoalearn.com", FirstName: "Zeno", Role: types.RoleStudent}, nil
		},
	}

	r := newTestEngine()
	r.Use(asUser(userID, uuid.New(), types.RoleStudent))
	h := NewUserHandler(user)
	r.GET("/me", h.GetMe)

	rec := performJSON(t, r, http.MethodGet, "/me", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := decodeBody(t, rec)
	me := body["me"].(map[string]any)
	if me["email"] != "zeno@stoalearn.com" {
		t.Fatalf("unexpected email: got=%v", me["email"])
	}
	if _, leaked := me["password"]; leaked {
		t.Fatalf("password must never appear in responses: %v", me)
	}
}

func TestUserHandlerGetMeMapsUnauthorized(t *testing.T) {
	t.Parallel()

	user := &fakeUserService{
		getMeFn: func(ctx context.Context) (*types.User, error) {
			return nil, apperr.ErrUnauthorized
		},
	}

	r := newTestEngine()
	h := NewUserHandler(user)
	r.GET("/me", h.GetMe)

	rec := performJSON(t, r, http.MethodGet, "/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
	if got := errorCode(t, rec); got != "unauthorized" {
		t.Fatalf("unexpected code: got=%q want=%q", got, "unauthorized")
	}
}

func TestUserHandlerChangeName(t *testing.T) {
	t.Parallel()

	user := &fakeUserService{
		updateNameFn: func(ctx context.Context, firstName, lastName string) (*types.User, error) {
			if firstName != "Marcus" || lastName != "Aurelius" {
				t.Fatalf("unexpected name: got=(%q,%q)", firstName, lastName)
			}
			return &types.User{ID: uuid.New(), FirstName: firstName, LastName: lastName}, nil
		},
	}

	r := newTestEngine()
	r.Use(asUser(uuid.New(), uuid.New(), types.RoleStudent))
	h := NewUserHandler(user)
	r.PATCH("/user/name", h.ChangeName)

	rec := performJSON(t, r, http.MethodPatch, "/user/name", map[string]any{
		"first_name": "Marcus",
		"last_name":  "Aurelius",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	u := body["user"].(map[string]any)
	if u["first_name"] != "Marcus" || u["last_name"] != "Aurelius" {
		t.Fatalf("unexpected user in body: %v", u)
	}
}
