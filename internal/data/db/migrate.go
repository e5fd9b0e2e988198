package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/stoalearn/stoa-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Core identity + auth
		// =========================
		&types.User{},
		&types.UserToken{},

		// =========================
		// Curriculum + prerequisite graph
		// =========================
		&types.Lecture{},
		&types.LecturePrerequisite{},

		// =========================
		// Student progression
		// =========================
		&types.LectureProgress{},
	)
}

func EnsureAuthIndexes(db *gorm.DB) error {
	// uuid_generate_v4 defaults depend on the extension.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_user_token_user_id ON user_token(user_id);`).Error; err != nil {
		return fmt.Errorf("create idx_user_token_user_id: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_user_token_expires_at ON user_token(expires_at);`).Error; err != nil {
		return fmt.Errorf("create idx_user_token_expires_at: %w", err)
	}
	return nil
}

func EnsureLearningIndexes(db *gorm.DB) error {
	// One live edge per ordered pair. Partial so a removed edge can be
	// re-added after soft delete. This index is also the backstop that makes
	// concurrent duplicate inserts lose with a unique violation instead of
	// silently double-writing.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_lecture_prerequisite_pair
		ON lecture_prerequisite (lecture_id, prerequisite_lecture_id)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_lecture_prerequisite_pair: %w", err)
	}

	// Reverse traversal: who depends on this lecture.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_lecture_prerequisite_prereq
		ON lecture_prerequisite (prerequisite_lecture_id)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_lecture_prerequisite_prereq: %w", err)
	}

	// Per-student progress scans for bulk readiness computation.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_lecture_progress_user_status
		ON lecture_progress (user_id, status)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_lecture_progress_user_status: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureAuthIndexes(s.db); err != nil {
		s.log.Error("Auth index migration failed", "error", err)
		return err
	}
	if err := EnsureLearningIndexes(s.db); err != nil {
		s.log.Error("Learning index migration failed", "error", err)
		return err
	}

	return nil
}
