package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stoalearn/stoa-backend/internal/data/repos/testutil"
	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
)

func TestLectureRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewLectureRepo(db, testutil.Logger(t))

	l1 := &types.Lecture{
		ID:              uuid.New(),
		Title:           "Zeno and the Stoa",
		Category:        "LectureRepoTest",
		OrderIndex:      2,
		DurationMinutes: 40,
		VideoURL:        "https://videos.example.com/zeno",
		Tags:            datatypes.JSON([]byte(`["history","founders"]`)),
	}
	l2 := &types.Lecture{
		ID:         uuid.New(),
		Title:      "Logic as an Instrument",
		Category:   "LectureRepoTest",
		OrderIndex: 1,
	}
	if _, err := repo.Create(dbc, []*types.Lecture{l1, l2}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := repo.GetByIDs(dbc, []uuid.UUID{l1.ID, l2.ID})
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}

	got, err := repo.GetByTitleAndCategory(dbc, "  Zeno and the Stoa  ", "LectureRepoTest")
	if err != nil {
		t.Fatalf("GetByTitleAndCategory: %v", err)
	}
	if got == nil || got.ID != l1.ID {
		t.Fatalf("GetByTitleAndCategory = %+v, want lecture %s", got, l1.ID)
	}
	if got, err := repo.GetByTitleAndCategory(dbc, "No Such Lecture", "LectureRepoTest"); err != nil || got != nil {
		t.Fatalf("GetByTitleAndCategory(missing) = %+v, %v, want nil, nil", got, err)
	}
	if got, err := repo.GetByTitleAndCategory(dbc, "   ", "LectureRepoTest"); err != nil || got != nil {
		t.Fatalf("GetByTitleAndCategory(blank) = %+v, %v, want nil, nil", got, err)
	}

	// List orders by order_index within the category.
	listed, err := repo.List(dbc, "LectureRepoTest")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != l2.ID || listed[1].ID != l1.ID {
		t.Fatalf("List order = %v, want [%s %s]", lectureIDsOf(listed), l2.ID, l1.ID)
	}
	if listed, err := repo.List(dbc, "NoSuchCategory"); err != nil || len(listed) != 0 {
		t.Fatalf("List(unknown category): err=%v len=%d", err, len(listed))
	}

	missing := uuid.New()
	found, err := repo.ExistsByIDs(dbc, []uuid.UUID{l1.ID, missing})
	if err != nil {
		t.Fatalf("ExistsByIDs: %v", err)
	}
	if !found[l1.ID] || found[missing] {
		t.Fatalf("ExistsByIDs = %v", found)
	}

	if err := repo.UpdateFields(dbc, l1.ID, map[string]interface{}{
		"title":       "Zeno of Citium",
		"order_index": 7,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	rows, err = repo.GetByIDs(dbc, []uuid.UUID{l1.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload: err=%v len=%d", err, len(rows))
	}
	if rows[0].Title != "Zeno of Citium" || rows[0].OrderIndex != 7 {
		t.Fatalf("after UpdateFields: title=%q order=%d", rows[0].Title, rows[0].OrderIndex)
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{l1.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{l1.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after SoftDeleteByIDs GetByIDs: err=%v len=%d", err, len(rows))
	}
	if got, err := repo.GetByTitleAndCategory(dbc, "Zeno of Citium", "LectureRepoTest"); err != nil || got != nil {
		t.Fatalf("after SoftDeleteByIDs GetByTitleAndCategory = %+v, %v", got, err)
	}

	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{l2.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	var hard int64
	if err := tx.WithContext(ctx).Unscoped().
		Model(&types.Lecture{}).
		Where("id = ?", l2.ID).
		Count(&hard).Error; err != nil {
		t.Fatalf("count unscoped: %v", err)
	}
	if hard != 0 {
		t.Fatalf("FullDeleteByIDs left %d rows", hard)
	}
}

func lectureIDsOf(rows []*types.Lecture) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}
