package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

// UserTokenRepo stores session rows. One row per issued token pair; the
// opaque refresh string and the JWT access string are both lookup keys.
type UserTokenRepo interface {
	Create(dbc dbctx.Context, rows []*types.UserToken) ([]*types.UserToken, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.UserToken, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserToken, error)
	GetByAccessTokens(dbc dbctx.Context, accessTokens []string) ([]*types.UserToken, error)
	GetByRefreshTokens(dbc dbctx.Context, refreshTokens []string) ([]*types.UserToken, error)

	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	SoftDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error

	// DeleteExpired hard-deletes rows whose refresh window lapsed before
	// cutoff, including soft-deleted leftovers from logout and rotation.
	DeleteExpired(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: baseLog.With("repo", "UserTokenRepo")}
}

func (r *userTokenRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *userTokenRepo) listWhere(dbc dbctx.Context, cond string, vals interface{}) ([]*types.UserToken, error) {
	var out []*types.UserToken
	if err := r.conn(dbc).WithContext(dbc.Ctx).Where(cond, vals).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userTokenRepo) deleteWhere(dbc dbctx.Context, unscoped bool, cond string, vals interface{}) error {
	q := r.conn(dbc).WithContext(dbc.Ctx)
	if unscoped {
		q = q.Unscoped()
	}
	return q.Where(cond, vals).Delete(&types.UserToken{}).Error
}

func (r *userTokenRepo) Create(dbc dbctx.Context, rows []*types.UserToken) ([]*types.UserToken, error) {
	if len(rows) == 0 {
		return []*types.UserToken{}, nil
	}
	if err := r.conn(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *userTokenRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.UserToken, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.listWhere(dbc, "id IN ?", ids)
}

func (r *userTokenRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return r.listWhere(dbc, "user_id IN ?", userIDs)
}

func (r *userTokenRepo) GetByAccessTokens(dbc dbctx.Context, accessTokens []string) ([]*types.UserToken, error) {
	if len(accessTokens) == 0 {
		return nil, nil
	}
	return r.listWhere(dbc, "access_token IN ?", accessTokens)
}

func (r *userTokenRepo) GetByRefreshTokens(dbc dbctx.Context, refreshTokens []string) ([]*types.UserToken, error) {
	if len(refreshTokens) == 0 {
		return nil, nil
	}
	return r.listWhere(dbc, "refresh_token IN ?", refreshTokens)
}

func (r *userTokenRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.deleteWhere(dbc, false, "id IN ?", ids)
}

func (r *userTokenRepo) SoftDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.deleteWhere(dbc, false, "user_id IN ?", userIDs)
}

func (r *userTokenRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.deleteWhere(dbc, true, "id IN ?", ids)
}

func (r *userTokenRepo) DeleteExpired(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	res := r.conn(dbc).WithContext(dbc.Ctx).Unscoped().
		Where("expires_at < ?", cutoff).
		Delete(&types.UserToken{})
	return res.RowsAffected, res.Error
}
