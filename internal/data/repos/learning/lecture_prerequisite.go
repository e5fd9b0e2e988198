package learning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

type LecturePrerequisiteRepo interface {
	Create(dbc dbctx.Context, rows []*types.LecturePrerequisite) ([]*types.LecturePrerequisite, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.LecturePrerequisite, error)
	GetByLectureIDs(dbc dbctx.Context, lectureIDs []uuid.UUID) ([]*types.LecturePrerequisite, error)
	GetByPrerequisiteLectureIDs(dbc dbctx.Context, prerequisiteIDs []uuid.UUID) ([]*types.LecturePrerequisite, error)
	GetByPair(dbc dbctx.Context, lectureID, prerequisiteLectureID uuid.UUID) (*types.LecturePrerequisite, error)
	ListAll(dbc dbctx.Context) ([]*types.LecturePrerequisite, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	SoftDeleteByLectureIDs(dbc dbctx.Context, lectureIDs []uuid.UUID) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error

	LockGraph(dbc dbctx.Context) error
}

type lecturePrerequisiteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLecturePrerequisiteRepo(db *gorm.DB, baseLog *logger.Logger) LecturePrerequisiteRepo {
	return &lecturePrerequisiteRepo{db: db, log: baseLog.With("repo", "LecturePrerequisiteRepo")}
}

func (r *lecturePrerequisiteRepo) Create(dbc dbctx.Context, rows []*types.LecturePrerequisite) ([]*types.LecturePrerequisite, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.LecturePrerequisite{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *lecturePrerequisiteRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.LecturePrerequisite, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LecturePrerequisite
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lecturePrerequisiteRepo) GetByLectureIDs(dbc dbctx.Context, lectureIDs []uuid.UUID) ([]*types.LecturePrerequisite, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LecturePrerequisite
	if len(lectureIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("lecture_id IN ?", lectureIDs).
		Order("lecture_id ASC, created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lecturePrerequisiteRepo) GetByPrerequisiteLectureIDs(dbc dbctx.Context, prerequisiteIDs []uuid.UUID) ([]*types.LecturePrerequisite, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LecturePrerequisite
	if len(prerequisiteIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("prerequisite_lecture_id IN ?", prerequisiteIDs).
		Order("prerequisite_lecture_id ASC, created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lecturePrerequisiteRepo) GetByPair(dbc dbctx.Context, lectureID, prerequisiteLectureID uuid.UUID) (*types.LecturePrerequisite, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if lectureID == uuid.Nil || prerequisiteLectureID == uuid.Nil {
		return nil, nil
	}
	var out []*types.LecturePrerequisite
	if err := t.WithContext(dbc.Ctx).
		Where("lecture_id = ? AND prerequisite_lecture_id = ?", lectureID, prerequisiteLectureID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *lecturePrerequisiteRepo) ListAll(dbc dbctx.Context) ([]*types.LecturePrerequisite, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LecturePrerequisite
	if err := t.WithContext(dbc.Ctx).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lecturePrerequisiteRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.LecturePrerequisite{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *lecturePrerequisiteRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.LecturePrerequisite{}).Error
}

func (r *lecturePrerequisiteRepo) SoftDeleteByLectureIDs(dbc dbctx.Context, lectureIDs []uuid.UUID) error {
	// both directions: edges the lecture requires and edges requiring it
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(lectureIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("lecture_id IN ? OR prerequisite_lecture_id IN ?", lectureIDs, lectureIDs).
		Delete(&types.LecturePrerequisite{}).Error
}

func (r *lecturePrerequisiteRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Unscoped().Where("id IN ?", ids).Delete(&types.LecturePrerequisite{}).Error
}

// LockGraph takes the transaction-scoped advisory lock serializing writers of
// the prerequisite graph. Cycle checks that run after this lock see every
// committed edge, so two adds that would jointly close a cycle cannot both
// pass. The lock releases on commit/rollback.
func (r *lecturePrerequisiteRepo) LockGraph(dbc dbctx.Context) error {
	if dbc.Tx == nil {
		return fmt.Errorf("LockGraph requires a transaction")
	}
	return dbc.Tx.WithContext(dbc.Ctx).
		Exec(`SELECT pg_advisory_xact_lock(hashtext('lecture_prerequisite'))`).Error
}
