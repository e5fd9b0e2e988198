package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/stoalearn/stoa-backend/internal/data/repos"
	"github.com/stoalearn/stoa-backend/internal/observability"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

// Curriculum seed file layout. Lectures are grouped by category and
// edges refer to lectures by (category, title) so the file needs no
// ids.
type curriculumFile struct {
	Version    int                  `yaml:"version"`
	Categories []curriculumCategory `yaml:"categories"`
	Edges      []curriculumEdge     `yaml:"prerequisites"`
}

type curriculumCategory struct {
	Name     string              `yaml:"name"`
	Lectures []curriculumLecture `yaml:"lectures"`
}

type curriculumLecture struct {
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description"`
	Order           int      `yaml:"order"`
	DurationMinutes int      `yaml:"duration_minutes"`
	VideoURL        string   `yaml:"video_url"`
	Tags            []string `yaml:"tags"`
}

type curriculumEdge struct {
	Lecture    curriculumRef `yaml:"lecture"`
	Requires   curriculumRef `yaml:"requires"`
	Required   *bool         `yaml:"required"`
	Importance *float64      `yaml:"importance"`
}

type curriculumRef struct {
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
}

// SeedReport summarizes one seeding run. Item-level failures land in
// Errors without aborting the rest of the file.
type SeedReport struct {
	LecturesCreated  int      `json:"lectures_created"`
	LecturesExisting int      `json:"lectures_existing"`
	EdgesCreated     int      `json:"edges_created"`
	EdgesExisting    int      `json:"edges_existing"`
	Errors           []string `json:"errors"`
}

type CurriculumService interface {
	SeedFromFile(ctx context.Context, path string) (*SeedReport, error)
}

type curriculumService struct {
	log      *logger.Logger
	lectures LectureService
	prereqs  PrerequisiteService
	repo     repos.LectureRepo
}

// NewCurriculumService seeds through the lecture and prerequisite
// services, so seeded edges pass the same cycle gate as API writes.
func NewCurriculumService(
	lectures LectureService,
	prereqs PrerequisiteService,
	lectureRepo repos.LectureRepo,
	baseLog *logger.Logger,
) CurriculumService {
	return &curriculumService{
		log:      baseLog.With("service", "curriculum"),
		lectures: lectures,
		prereqs:  prereqs,
		repo:     lectureRepo,
	}
}

func (s *curriculumService) SeedFromFile(ctx context.Context, path string) (*SeedReport, error) {
	if s == nil || s.lectures == nil || s.prereqs == nil || s.repo == nil {
		return nil, &apperr.DatabaseError{Op: "SeedFromFile", Err: errNotConfigured("curriculum service")}
	}
	start := time.Now()
	report, err := s.seedFromFile(ctx, path)
	if metrics := observability.Current(); metrics != nil {
		status := "ok"
		switch {
		case err != nil:
			status = "failed"
		case len(report.Errors) > 0:
			status = "partial"
		}
		metrics.ObserveSeedRun(status, time.Since(start))
	}
	return report, err
}

func (s *curriculumService) seedFromFile(ctx context.Context, path string) (*SeedReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum file: %w", err)
	}
	var file curriculumFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse curriculum file: %w", err)
	}
	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported curriculum file version %d", file.Version)
	}

	report := &SeedReport{Errors: []string{}}
	idByRef := map[string]uuid.UUID{}

	// 1) Lectures first, so edges can resolve both endpoints.
	for _, cat := range file.Categories {
		category := strings.TrimSpace(cat.Name)
		for _, l := range cat.Lectures {
			ref := refKey(category, l.Title)
			created, err := s.lectures.CreateLecture(ctx, CreateLectureInput{
				Title:           l.Title,
				Description:     l.Description,
				Category:        category,
				OrderIndex:      l.Order,
				DurationMinutes: l.DurationMinutes,
				VideoURL:        l.VideoURL,
				Tags:            l.Tags,
			})
			if err == nil {
				report.LecturesCreated++
				idByRef[ref] = created.ID
				continue
			}
			var conflict *apperr.ConflictError
			if errors.As(err, &conflict) {
				report.LecturesExisting++
				if conflict.ExistingID != uuid.Nil {
					idByRef[ref] = conflict.ExistingID
				}
				continue
			}
			if isSeedFatal(err) {
				return nil, err
			}
			report.Errors = append(report.Errors, fmt.Sprintf("lecture %s: %v", ref, err))
		}
	}

	// 2) Edges, tolerating duplicates and rejecting cycles per edge.
	for _, e := range file.Edges {
		lectureID, err := s.resolveRef(ctx, idByRef, e.Lecture)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("edge %s <- %s: %v", refKey(e.Lecture.Category, e.Lecture.Title), refKey(e.Requires.Category, e.Requires.Title), err))
			continue
		}
		prereqID, err := s.resolveRef(ctx, idByRef, e.Requires)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("edge %s <- %s: %v", refKey(e.Lecture.Category, e.Lecture.Title), refKey(e.Requires.Category, e.Requires.Title), err))
			continue
		}
		_, err = s.prereqs.AddPrerequisite(ctx, AddPrerequisiteInput{
			LectureID:             lectureID,
			PrerequisiteLectureID: prereqID,
			IsRequired:            e.Required,
			ImportanceLevel:       e.Importance,
		})
		if err == nil {
			report.EdgesCreated++
			continue
		}
		var conflict *apperr.ConflictError
		if errors.As(err, &conflict) {
			report.EdgesExisting++
			continue
		}
		if isSeedFatal(err) {
			return nil, err
		}
		report.Errors = append(report.Errors, fmt.Sprintf("edge %s <- %s: %v", refKey(e.Lecture.Category, e.Lecture.Title), refKey(e.Requires.Category, e.Requires.Title), err))
	}

	s.log.Info("curriculum seeded",
		"lectures_created", report.LecturesCreated,
		"lectures_existing", report.LecturesExisting,
		"edges_created", report.EdgesCreated,
		"edges_existing", report.EdgesExisting,
		"errors", len(report.Errors),
	)
	return report, nil
}

func (s *curriculumService) resolveRef(ctx context.Context, idByRef map[string]uuid.UUID, ref curriculumRef) (uuid.UUID, error) {
	key := refKey(ref.Category, ref.Title)
	if id, ok := idByRef[key]; ok && id != uuid.Nil {
		return id, nil
	}
	row, err := s.repo.GetByTitleAndCategory(dbctx.Context{Ctx: ctx}, strings.TrimSpace(ref.Title), strings.TrimSpace(ref.Category))
	if err != nil {
		return uuid.Nil, apperr.MapDB("SeedFromFile", err)
	}
	if row == nil {
		return uuid.Nil, fmt.Errorf("lecture %s not found", key)
	}
	idByRef[key] = row.ID
	return row.ID, nil
}

// isSeedFatal separates infrastructure failures, which abort the run,
// from per-item rejections, which are recorded and skipped.
func isSeedFatal(err error) bool {
	var dbErr *apperr.DatabaseError
	return errors.As(err, &dbErr)
}

func refKey(category, title string) string {
	return strings.TrimSpace(category) + "/" + strings.TrimSpace(title)
}
