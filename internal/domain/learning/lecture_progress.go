package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stoalearn/stoa-backend/internal/domain/user"
)

// WorkflowStatus is the per-student stage of one lecture. Transitions move
// strictly forward except the single regression edge from MASTERY_TESTING
// back to INITIAL_REFLECTION on a failed evaluation.
type WorkflowStatus string

const (
	StatusLocked            WorkflowStatus = "LOCKED"
	StatusReady             WorkflowStatus = "READY"
	StatusStarted           WorkflowStatus = "STARTED"
	StatusWatched           WorkflowStatus = "WATCHED"
	StatusInitialReflection WorkflowStatus = "INITIAL_REFLECTION"
	StatusMasteryTesting    WorkflowStatus = "MASTERY_TESTING"
	StatusMastered          WorkflowStatus = "MASTERED"
)

// Valid reports whether s is one of the enumerated workflow statuses.
// Anything else is an invalid-state error, never silently coerced.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case StatusLocked, StatusReady, StatusStarted, StatusWatched,
		StatusInitialReflection, StatusMasteryTesting, StatusMastered:
		return true
	default:
		return false
	}
}

// Availability classifies a lecture for one student. Derived per request,
// never persisted.
type Availability string

const (
	AvailabilityLocked     Availability = "LOCKED"
	AvailabilityAvailable  Availability = "AVAILABLE"
	AvailabilityInProgress Availability = "IN_PROGRESS"
	AvailabilityCompleted  Availability = "COMPLETED"
)

// LectureProgress tracks one student through one lecture's workflow. Created
// lazily on first interaction; (user_id, lecture_id) is unique.
type LectureProgress struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_lecture_progress_identity,priority:1" json:"user_id"`
	User      *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	LectureID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_lecture_progress_identity,priority:2;index" json:"lecture_id"`
	Lecture   *Lecture   `gorm:"constraint:OnDelete:CASCADE;foreignKey:LectureID;references:ID" json:"lecture,omitempty"`

	Status WorkflowStatus `gorm:"column:status;type:text;not null;default:'LOCKED'" json:"status"`

	// LastScore holds the most recent mastery evaluation score, set only by
	// transitions out of MASTERY_TESTING.
	LastScore *int           `gorm:"column:last_score" json:"last_score,omitempty"`
	History   datatypes.JSON `gorm:"type:jsonb;column:history" json:"history,omitempty"`

	LastViewed  *time.Time `gorm:"column:last_viewed" json:"last_viewed,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LectureProgress) TableName() string { return "lecture_progress" }

// ProgressTransition is one appended History entry.
type ProgressTransition struct {
	From  WorkflowStatus `json:"from"`
	To    WorkflowStatus `json:"to"`
	At    time.Time      `json:"at"`
	Score *int           `json:"score,omitempty"`
}
