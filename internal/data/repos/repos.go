package repos

import (
	"gorm.io/gorm"

	"github.com/stoalearn/stoa-backend/internal/data/repos/auth"
	"github.com/stoalearn/stoa-backend/internal/data/repos/learning"
	"github.com/stoalearn/stoa-backend/internal/data/repos/user"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type LectureRepo = learning.LectureRepo
type LecturePrerequisiteRepo = learning.LecturePrerequisiteRepo
type LectureProgressRepo = learning.LectureProgressRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewLectureRepo(db *gorm.DB, baseLog *logger.Logger) LectureRepo {
	return learning.NewLectureRepo(db, baseLog)
}

func NewLecturePrerequisiteRepo(db *gorm.DB, baseLog *logger.Logger) LecturePrerequisiteRepo {
	return learning.NewLecturePrerequisiteRepo(db, baseLog)
}

func NewLectureProgressRepo(db *gorm.DB, baseLog *logger.Logger) LectureProgressRepo {
	return learning.NewLectureProgressRepo(db, baseLog)
}
