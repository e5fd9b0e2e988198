package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ImportanceLevelMin     = 1
	ImportanceLevelMax     = 5
	ImportanceLevelDefault = 3
)

// LecturePrerequisite is a directed edge: LectureID requires (or recommends)
// PrerequisiteLectureID. The ordered pair is immutable once created and is
// kept unique among live rows by a partial index; only IsRequired and
// ImportanceLevel may be patched. The graph must stay acyclic, enforced at
// insert time.
type LecturePrerequisite struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	LectureID             uuid.UUID `gorm:"type:uuid;not null;index" json:"lecture_id"`
	Lecture               *Lecture  `gorm:"constraint:OnDelete:CASCADE;foreignKey:LectureID;references:ID" json:"lecture,omitempty"`
	PrerequisiteLectureID uuid.UUID `gorm:"type:uuid;not null;index" json:"prerequisite_lecture_id"`
	PrerequisiteLecture   *Lecture  `gorm:"constraint:OnDelete:CASCADE;foreignKey:PrerequisiteLectureID;references:ID" json:"prerequisite_lecture,omitempty"`

	IsRequired      bool `gorm:"not null;default:true;column:is_required" json:"is_required"`
	ImportanceLevel int  `gorm:"not null;default:3;column:importance_level" json:"importance_level"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LecturePrerequisite) TableName() string { return "lecture_prerequisite" }
