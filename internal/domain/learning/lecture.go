package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lecture is one unit of curated content. Category groups lectures and
// OrderIndex ranks them within the category; the pair drives suggestion
// tie-breaking.
type Lecture struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Title       string `gorm:"not null;column:title" json:"title"`
	Description string `gorm:"type:text;column:description" json:"description,omitempty"`
	Category    string `gorm:"not null;index:idx_lecture_category_order,priority:1;column:category" json:"category"`
	OrderIndex  int    `gorm:"not null;default:0;index:idx_lecture_category_order,priority:2;column:order_index" json:"order_index"`

	DurationMinutes int            `gorm:"not null;default:0;column:duration_minutes" json:"duration_minutes"`
	VideoURL        string         `gorm:"column:video_url" json:"video_url,omitempty"`
	Tags            datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lecture) TableName() string { return "lecture" }

// LectureSummary is the projection embedded in prerequisite edge responses.
type LectureSummary struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	OrderIndex int       `json:"order_index"`
}

func (l *Lecture) Summary() LectureSummary {
	if l == nil {
		return LectureSummary{}
	}
	return LectureSummary{
		ID:         l.ID,
		Title:      l.Title,
		Category:   l.Category,
		OrderIndex: l.OrderIndex,
	}
}
