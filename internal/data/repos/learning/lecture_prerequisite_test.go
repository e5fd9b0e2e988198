package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/stoalearn/stoa-backend/internal/data/repos/testutil"
	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
)

func TestLecturePrerequisiteRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewLecturePrerequisiteRepo(db, testutil.Logger(t))

	a := testutil.SeedLecture(t, ctx, tx, "Logic", "PrereqRepoTest", 1)
	b := testutil.SeedLecture(t, ctx, tx, "Physics", "PrereqRepoTest", 2)
	c := testutil.SeedLecture(t, ctx, tx, "Ethics", "PrereqRepoTest", 3)

	e1 := &types.LecturePrerequisite{
		ID:                    uuid.New(),
		LectureID:             b.ID,
		PrerequisiteLectureID: a.ID,
		IsRequired:            true,
		ImportanceLevel:       3,
	}
	if _, err := repo.Create(dbc, []*types.LecturePrerequisite{e1}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	e2 := testutil.SeedPrerequisite(t, ctx, tx, c.ID, b.ID, false, 4)

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{e1.ID, e2.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByLectureIDs(dbc, []uuid.UUID{b.ID}); err != nil || len(rows) != 1 || rows[0].ID != e1.ID {
		t.Fatalf("GetByLectureIDs: err=%v rows=%+v", err, rows)
	}
	if rows, err := repo.GetByPrerequisiteLectureIDs(dbc, []uuid.UUID{b.ID}); err != nil || len(rows) != 1 || rows[0].ID != e2.ID {
		t.Fatalf("GetByPrerequisiteLectureIDs: err=%v rows=%+v", err, rows)
	}

	got, err := repo.GetByPair(dbc, b.ID, a.ID)
	if err != nil || got == nil || got.ID != e1.ID {
		t.Fatalf("GetByPair: err=%v got=%+v", err, got)
	}
	// The pair is directional; the reverse edge does not exist.
	if got, err := repo.GetByPair(dbc, a.ID, b.ID); err != nil || got != nil {
		t.Fatalf("GetByPair(reverse) = %+v, %v, want nil, nil", got, err)
	}

	all, err := repo.ListAll(dbc)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) < 2 {
		t.Fatalf("ListAll returned %d rows, want at least 2", len(all))
	}

	// Live duplicate pairs are rejected by the partial unique index.
	dup := &types.LecturePrerequisite{
		ID:                    uuid.New(),
		LectureID:             b.ID,
		PrerequisiteLectureID: a.ID,
		IsRequired:            false,
		ImportanceLevel:       1,
	}
	if _, err := repo.Create(dbc, []*types.LecturePrerequisite{dup}); err == nil {
		t.Fatalf("Create duplicate pair succeeded, want unique violation")
	}
	// A failed statement poisons the transaction, so restart it.
	tx = testutil.Tx(t, db)
	dbc = dbctx.Context{Ctx: ctx, Tx: tx}
	a = testutil.SeedLecture(t, ctx, tx, "Logic", "PrereqRepoTest2", 1)
	b = testutil.SeedLecture(t, ctx, tx, "Physics", "PrereqRepoTest2", 2)
	e1 = testutil.SeedPrerequisite(t, ctx, tx, b.ID, a.ID, true, 3)

	if err := repo.UpdateFields(dbc, e1.ID, map[string]interface{}{
		"is_required":      false,
		"importance_level": 5,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err = repo.GetByPair(dbc, b.ID, a.ID)
	if err != nil || got == nil {
		t.Fatalf("reload pair: err=%v got=%+v", err, got)
	}
	if got.IsRequired || got.ImportanceLevel != 5 {
		t.Fatalf("after UpdateFields: required=%v importance=%d", got.IsRequired, got.ImportanceLevel)
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{e1.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if got, err := repo.GetByPair(dbc, b.ID, a.ID); err != nil || got != nil {
		t.Fatalf("after SoftDeleteByIDs GetByPair = %+v, %v", got, err)
	}

	// The index only covers live rows, so the pair can be recreated.
	recreated := &types.LecturePrerequisite{
		ID:                    uuid.New(),
		LectureID:             b.ID,
		PrerequisiteLectureID: a.ID,
		IsRequired:            true,
		ImportanceLevel:       2,
	}
	if _, err := repo.Create(dbc, []*types.LecturePrerequisite{recreated}); err != nil {
		t.Fatalf("recreate pair after soft delete: %v", err)
	}

	// Deleting by lecture removes edges in both directions.
	c = testutil.SeedLecture(t, ctx, tx, "Ethics", "PrereqRepoTest2", 3)
	outgoing := testutil.SeedPrerequisite(t, ctx, tx, c.ID, b.ID, true, 3)
	if err := repo.SoftDeleteByLectureIDs(dbc, []uuid.UUID{b.ID}); err != nil {
		t.Fatalf("SoftDeleteByLectureIDs: %v", err)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{recreated.ID, outgoing.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after SoftDeleteByLectureIDs GetByIDs: err=%v len=%d", err, len(rows))
	}

	e3 := testutil.SeedPrerequisite(t, ctx, tx, c.ID, a.ID, true, 3)
	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{e3.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	var hard int64
	if err := tx.WithContext(ctx).Unscoped().
		Model(&types.LecturePrerequisite{}).
		Where("id = ?", e3.ID).
		Count(&hard).Error; err != nil {
		t.Fatalf("count unscoped: %v", err)
	}
	if hard != 0 {
		t.Fatalf("FullDeleteByIDs left %d rows", hard)
	}
}

func TestLockGraphRequiresTransaction(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewLecturePrerequisiteRepo(db, testutil.Logger(t))

	if err := repo.LockGraph(dbctx.Context{Ctx: ctx}); err == nil {
		t.Fatalf("LockGraph without transaction succeeded, want error")
	}
	if err := repo.LockGraph(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
		t.Fatalf("LockGraph in transaction: %v", err)
	}
}
