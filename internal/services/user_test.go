package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
	"github.com/stoalearn/stoa-backend/internal/platform/ctxutil"
)

func TestGetMe(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(&fakeTxRunner{}, &fakeUserRepo{store: store}, testLogger(t))
	u := &types.User{ID: uuid.New(), Email: "seneca@stoa.edu", FirstName: "Lucius", LastName: "Seneca", Role: types.RoleStudent}
	store.users[u.ID] = u

	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID})
	got, err := svc.GetMe(ctx)
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if got.Email != "seneca@stoa.edu" {
		t.Fatalf("email: want=seneca@stoa.edu got=%s", got.Email)
	}

	if _, err := svc.GetMe(context.Background()); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("no identity: want ErrUnauthorized, got %v", err)
	}

	gone := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: uuid.New()})
	_, err = svc.GetMe(gone)
	var nfErr *apperr.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("deleted user: want NotFoundError, got %v", err)
	}
}

func TestUpdateName(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(&fakeTxRunner{}, &fakeUserRepo{store: store}, testLogger(t))
	u := &types.User{ID: uuid.New(), Email: "seneca@stoa.edu", FirstName: "Lucius", LastName: "Seneca"}
	store.users[u.ID] = u
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID})

	got, err := svc.UpdateName(ctx, "  Lucius Annaeus  ", "Seneca")
	if err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	if got.FirstName != "Lucius Annaeus" {
		t.Fatalf("first name: want=%q got=%q", "Lucius Annaeus", got.FirstName)
	}
	if store.users[u.ID].FirstName != "Lucius Annaeus" {
		t.Fatalf("name not persisted: %+v", store.users[u.ID])
	}

	_, err = svc.UpdateName(ctx, "", "Seneca")
	var vErr *apperr.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("blank name: want ValidationError, got %v", err)
	}
	if _, err := svc.UpdateName(context.Background(), "A", "B"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("no identity: want ErrUnauthorized, got %v", err)
	}
}
