package learning

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

type LectureRepo interface {
	Create(dbc dbctx.Context, rows []*types.Lecture) ([]*types.Lecture, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Lecture, error)
	GetByTitleAndCategory(dbc dbctx.Context, title, category string) (*types.Lecture, error)
	List(dbc dbctx.Context, category string) ([]*types.Lecture, error)
	ExistsByIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type lectureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLectureRepo(db *gorm.DB, baseLog *logger.Logger) LectureRepo {
	return &lectureRepo{db: db, log: baseLog.With("repo", "LectureRepo")}
}

func (r *lectureRepo) Create(dbc dbctx.Context, rows []*types.Lecture) ([]*types.Lecture, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Lecture{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *lectureRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Lecture, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Lecture
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lectureRepo) GetByTitleAndCategory(dbc dbctx.Context, title, category string) (*types.Lecture, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	title = strings.TrimSpace(title)
	category = strings.TrimSpace(category)
	if title == "" || category == "" {
		return nil, nil
	}
	var out []*types.Lecture
	if err := t.WithContext(dbc.Ctx).
		Where("title = ? AND category = ?", title, category).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *lectureRepo) List(dbc dbctx.Context, category string) ([]*types.Lecture, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Lecture{})
	if strings.TrimSpace(category) != "" {
		q = q.Where("category = ?", strings.TrimSpace(category))
	}
	var out []*types.Lecture
	if err := q.
		Order("category ASC, order_index ASC, title ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lectureRepo) ExistsByIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	found := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var present []uuid.UUID
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Lecture{}).
		Where("id IN ?", ids).
		Pluck("id", &present).Error; err != nil {
		return nil, err
	}
	for _, id := range present {
		found[id] = true
	}
	return found, nil
}

func (r *lectureRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Lecture{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *lectureRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.Lecture{}).Error
}

func (r *lectureRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Unscoped().Where("id IN ?", ids).Delete(&types.Lecture{}).Error
}
