package app

import (
	"gorm.io/gorm"

	"github.com/stoalearn/stoa-backend/internal/data/repos"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

type Repos struct {
	User                repos.UserRepo
	UserToken           repos.UserTokenRepo
	Lecture             repos.LectureRepo
	LecturePrerequisite repos.LecturePrerequisiteRepo
	LectureProgress     repos.LectureProgressRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:                repos.NewUserRepo(db, log),
		UserToken:           repos.NewUserTokenRepo(db, log),
		Lecture:             repos.NewLectureRepo(db, log),
		LecturePrerequisite: repos.NewLecturePrerequisiteRepo(db, log),
		LectureProgress:     repos.NewLectureProgressRepo(db, log),
	}
}
