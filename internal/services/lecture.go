package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stoalearn/stoa-backend/internal/data/graph"
	"github.com/stoalearn/stoa-backend/internal/data/repos"
	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/platform/neo4jdb"
)

// CreateLectureInput carries a new lecture. Title and Category are
// required; the rest defaults to zero values.
type CreateLectureInput struct {
	Title           string
	Description     string
	Category        string
	OrderIndex      int
	DurationMinutes int
	VideoURL        string
	Tags            []string
}

// UpdateLectureInput patches an existing lecture. Nil fields are left
// untouched.
type UpdateLectureInput struct {
	Title           *string
	Description     *string
	Category        *string
	OrderIndex      *int
	DurationMinutes *int
	VideoURL        *string
	Tags            []string
}

type LectureService interface {
	CreateLecture(ctx context.Context, input CreateLectureInput) (*types.Lecture, error)
	GetLecture(ctx context.Context, id uuid.UUID) (*types.Lecture, error)
	ListLectures(ctx context.Context, category string) ([]*types.Lecture, error)
	UpdateLecture(ctx context.Context, id uuid.UUID, patch UpdateLectureInput) (*types.Lecture, error)
	DeleteLecture(ctx context.Context, id uuid.UUID) error
}

type lectureService struct {
	log      *logger.Logger
	runner   TxRunner
	lectures repos.LectureRepo
	edges    repos.LecturePrerequisiteRepo
	graph    *neo4jdb.Client
}

func NewLectureService(
	runner TxRunner,
	lectureRepo repos.LectureRepo,
	edgeRepo repos.LecturePrerequisiteRepo,
	graphClient *neo4jdb.Client,
	baseLog *logger.Logger,
) LectureService {
	return &lectureService{
		log:      baseLog.With("service", "lecture"),
		runner:   runner,
		lectures: lectureRepo,
		edges:    edgeRepo,
		graph:    graphClient,
	}
}

func (s *lectureService) CreateLecture(ctx context.Context, input CreateLectureInput) (*types.Lecture, error) {
	const op = "CreateLecture"
	if s == nil || s.runner == nil || s.lectures == nil {
		return nil, &apperr.DatabaseError{Op: op, Err: errNotConfigured("lecture service")}
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Category = strings.TrimSpace(input.Category)
	fields := map[string]string{}
	if input.Title == "" {
		fields["title"] = "required"
	}
	if input.Category == "" {
		fields["category"] = "required"
	}
	if input.OrderIndex < 0 {
		fields["order_index"] = "must not be negative"
	}
	if input.DurationMinutes < 0 {
		fields["duration_minutes"] = "must not be negative"
	}
	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Op: op, Fields: fields}
	}

	tags, err := marshalTags(input.Tags)
	if err != nil {
		return nil, &apperr.ValidationError{Op: op, Fields: map[string]string{"tags": "must be serializable"}}
	}

	var created *types.Lecture
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		existing, err := s.lectures.GetByTitleAndCategory(dbc, input.Title, input.Category)
		if err != nil {
			return apperr.MapDB(op, err)
		}
		if existing != nil {
			return &apperr.ConflictError{Op: op, Message: "lecture with this title already exists in the category", ExistingID: existing.ID}
		}
		rows, err := s.lectures.Create(dbc, []*types.Lecture{{
			Title:           input.Title,
			Description:     input.Description,
			Category:        input.Category,
			OrderIndex:      input.OrderIndex,
			DurationMinutes: input.DurationMinutes,
			VideoURL:        input.VideoURL,
			Tags:            tags,
		}})
		if err != nil {
			return apperr.MapDB(op, err)
		}
		if len(rows) == 0 || rows[0] == nil {
			return &apperr.DatabaseError{Op: op, Err: fmt.Errorf("lecture create returned no rows")}
		}
		created = rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *lectureService) GetLecture(ctx context.Context, id uuid.UUID) (*types.Lecture, error) {
	const op = "GetLecture"
	if s == nil || s.lectures == nil {
		return nil, &apperr.DatabaseError{Op: op, Err: errNotConfigured("lecture service")}
	}
	if id == uuid.Nil {
		return nil, &apperr.ValidationError{Op: op, Fields: map[string]string{"lecture_id": "required"}}
	}
	rows, err := s.lectures.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{id})
	if err != nil {
		return nil, apperr.MapDB(op, err)
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, &apperr.NotFoundError{Resource: "lecture", ID: id}
	}
	return rows[0], nil
}

func (s *lectureService) ListLectures(ctx context.Context, category string) ([]*types.Lecture, error) {
	const op = "ListLectures"
	if s == nil || s.lectures == nil {
		return nil, &apperr.DatabaseError{Op: op, Err: errNotConfigured("lecture service")}
	}
	rows, err := s.lectures.List(dbctx.Context{Ctx: ctx}, strings.TrimSpace(category))
	if err != nil {
		return nil, apperr.MapDB(op, err)
	}
	return rows, nil
}

func (s *lectureService) UpdateLecture(ctx context.Context, id uuid.UUID, patch UpdateLectureInput) (*types.Lecture, error) {
	const op = "UpdateLecture"
	if s == nil || s.runner == nil || s.lectures == nil {
		return nil, &apperr.DatabaseError{Op: op, Err: errNotConfigured("lecture service")}
	}
	fields := map[string]string{}
	if id == uuid.Nil {
		fields["lecture_id"] = "required"
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		fields["title"] = "must not be empty"
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
		fields["category"] = "must not be empty"
	}
	if patch.OrderIndex != nil && *patch.OrderIndex < 0 {
		fields["order_index"] = "must not be negative"
	}
	if patch.DurationMinutes != nil && *patch.DurationMinutes < 0 {
		fields["duration_minutes"] = "must not be negative"
	}
	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Op: op, Fields: fields}
	}

	var updated *types.Lecture
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		rows, err := s.lectures.GetByIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return apperr.MapDB(op, err)
		}
		if len(rows) == 0 || rows[0] == nil {
			return &apperr.NotFoundError{Resource: "lecture", ID: id}
		}
		lecture := rows[0]

		updates := map[string]interface{}{}
		if patch.Title != nil {
			lecture.Title = strings.TrimSpace(*patch.Title)
			updates["title"] = lecture.Title
		}
		if patch.Description != nil {
			lecture.Description = *patch.Description
			updates["description"] = lecture.Description
		}
		if patch.Category != nil {
			lecture.Category = strings.TrimSpace(*patch.Category)
			updates["category"] = lecture.Category
		}
		if patch.OrderIndex != nil {
			lecture.OrderIndex = *patch.OrderIndex
			updates["order_index"] = lecture.OrderIndex
		}
		if patch.DurationMinutes != nil {
			lecture.DurationMinutes = *patch.DurationMinutes
			updates["duration_minutes"] = lecture.DurationMinutes
		}
		if patch.VideoURL != nil {
			lecture.VideoURL = *patch.VideoURL
			updates["video_url"] = lecture.VideoURL
		}
		if patch.Tags != nil {
			tags, err := marshalTags(patch.Tags)
			if err != nil {
				return &apperr.ValidationError{Op: op, Fields: map[string]string{"tags": "must be serializable"}}
			}
			lecture.Tags = tags
			updates["tags"] = tags
		}
		if len(updates) == 0 {
			updated = lecture
			return nil
		}
		if err := s.lectures.UpdateFields(dbc, id, updates); err != nil {
			return apperr.MapDB(op, err)
		}
		updated = lecture
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteLecture soft-deletes the lecture and every prerequisite edge
// touching it, in either direction. Progress rows stay behind as
// history; listings skip them once the lecture is gone.
func (s *lectureService) DeleteLecture(ctx context.Context, id uuid.UUID) error {
	const op = "DeleteLecture"
	if s == nil || s.runner == nil || s.lectures == nil || s.edges == nil {
		return &apperr.DatabaseError{Op: op, Err: errNotConfigured("lecture service")}
	}
	if id == uuid.Nil {
		return &apperr.ValidationError{Op: op, Fields: map[string]string{"lecture_id": "required"}}
	}
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		rows, err := s.lectures.GetByIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return apperr.MapDB(op, err)
		}
		if len(rows) == 0 || rows[0] == nil {
			return &apperr.NotFoundError{Resource: "lecture", ID: id}
		}
		if err := s.edges.SoftDeleteByLectureIDs(dbc, []uuid.UUID{id}); err != nil {
			return apperr.MapDB(op, err)
		}
		if err := s.lectures.SoftDeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
			return apperr.MapDB(op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if gerr := graph.DeleteLectureNodes(ctx, s.graph, s.log, []uuid.UUID{id}); gerr != nil {
		s.log.Warn("graph mirror node delete failed", "lecture_id", id, "error", gerr)
	}
	return nil
}

func marshalTags(tags []string) (datatypes.JSON, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
