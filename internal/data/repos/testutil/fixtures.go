package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/stoalearn/stoa-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      types.RoleStudent,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedLecture(tb testing.TB, ctx context.Context, tx *gorm.DB, title, category string, orderIndex int) *types.Lecture {
	tb.Helper()
	l := &types.Lecture{
		ID:         uuid.New(),
		Title:      title,
		Category:   category,
		OrderIndex: orderIndex,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lecture: %v", err)
	}
	return l
}

func SeedPrerequisite(tb testing.TB, ctx context.Context, tx *gorm.DB, lectureID, prerequisiteID uuid.UUID, required bool, importance int) *types.LecturePrerequisite {
	tb.Helper()
	e := &types.LecturePrerequisite{
		ID:                    uuid.New(),
		LectureID:             lectureID,
		PrerequisiteLectureID: prerequisiteID,
		IsRequired:            required,
		ImportanceLevel:       importance,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed prerequisite: %v", err)
	}
	return e
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, lectureID uuid.UUID, status types.WorkflowStatus) *types.LectureProgress {
	tb.Helper()
	p := &types.LectureProgress{
		ID:        uuid.New(),
		UserID:    userID,
		LectureID: lectureID,
		Status:    status,
	}
	if status == types.StatusMastered {
		p.CompletedAt = PtrTime(time.Now().UTC())
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrInt(v int) *int { return &v }
