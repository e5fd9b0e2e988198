package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/stoalearn/stoa-backend/internal/data/repos/testutil"
	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserRepo(db, testutil.Logger(t))

	u := &types.User{
		ID:        uuid.New(),
		Email:     "userrepo@example.com",
		Password:  "hashed",
		FirstName: "Repo",
		LastName:  "Tester",
		Role:      types.RoleStudent,
	}
	if _, err := repo.Create(dbc, []*types.User{u}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := repo.GetByIDs(dbc, []uuid.UUID{u.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].Email != u.Email {
		t.Fatalf("GetByIDs email = %q, want %q", rows[0].Email, u.Email)
	}

	if rows, err := repo.GetByEmails(dbc, []string{u.Email}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByEmails: err=%v len=%d", err, len(rows))
	}

	exists, err := repo.EmailExists(dbc, "  UserRepo@Example.com ")
	if err != nil || !exists {
		t.Fatalf("EmailExists(known) = %v, %v, want true", exists, err)
	}
	exists, err = repo.EmailExists(dbc, "nobody@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists(unknown) = %v, %v, want false", exists, err)
	}
	exists, err = repo.EmailExists(dbc, "   ")
	if err != nil || exists {
		t.Fatalf("EmailExists(blank) = %v, %v, want false", exists, err)
	}

	if err := repo.UpdateName(dbc, u.ID, "Gaius", "Musonius"); err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	if err := repo.UpdateRole(dbc, u.ID, types.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}

	rows, err = repo.GetByIDs(dbc, []uuid.UUID{u.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload: err=%v len=%d", err, len(rows))
	}
	if rows[0].FirstName != "Gaius" || rows[0].LastName != "Musonius" {
		t.Fatalf("name after update = %q %q", rows[0].FirstName, rows[0].LastName)
	}
	if rows[0].Role != types.RoleAdmin {
		t.Fatalf("role after update = %q, want %q", rows[0].Role, types.RoleAdmin)
	}

	// Nil IDs are ignored rather than matched against every row.
	if err := repo.UpdateName(dbc, uuid.Nil, "x", "y"); err != nil {
		t.Fatalf("UpdateName(nil id): %v", err)
	}
}
