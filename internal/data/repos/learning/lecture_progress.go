package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

type LectureProgressRepo interface {
	GetByUserAndLecture(dbc dbctx.Context, userID, lectureID uuid.UUID) (*types.LectureProgress, error)
	GetByUserAndLectureIDs(dbc dbctx.Context, userID uuid.UUID, lectureIDs []uuid.UUID) ([]*types.LectureProgress, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.LectureProgress, error)

	Upsert(dbc dbctx.Context, row *types.LectureProgress) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	SoftDeleteByLectureIDs(dbc dbctx.Context, lectureIDs []uuid.UUID) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type lectureProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLectureProgressRepo(db *gorm.DB, baseLog *logger.Logger) LectureProgressRepo {
	return &lectureProgressRepo{db: db, log: baseLog.With("repo", "LectureProgressRepo")}
}

func (r *lectureProgressRepo) GetByUserAndLecture(dbc dbctx.Context, userID, lectureID uuid.UUID) (*types.LectureProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || lectureID == uuid.Nil {
		return nil, nil
	}
	var out []*types.LectureProgress
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND lecture_id = ?", userID, lectureID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *lectureProgressRepo) GetByUserAndLectureIDs(dbc dbctx.Context, userID uuid.UUID, lectureIDs []uuid.UUID) ([]*types.LectureProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LectureProgress
	if userID == uuid.Nil || len(lectureIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND lecture_id IN ?", userID, lectureIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lectureProgressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.LectureProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LectureProgress
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lectureProgressRepo) Upsert(dbc dbctx.Context, row *types.LectureProgress) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.LectureID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()

	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "lecture_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"last_score",
				"history",
				"last_viewed",
				"completed_at",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *lectureProgressRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.LectureProgress{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *lectureProgressRepo) SoftDeleteByLectureIDs(dbc dbctx.Context, lectureIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(lectureIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("lecture_id IN ?", lectureIDs).Delete(&types.LectureProgress{}).Error
}

func (r *lectureProgressRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Unscoped().Where("id IN ?", ids).Delete(&types.LectureProgress{}).Error
}
