package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stoalearn/stoa-backend/internal/data/graph"
	"github.com/stoalearn/stoa-backend/internal/data/repos"
	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/observability"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
	"github.com/stoalearn/stoa-backend/internal/platform/ctxutil"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/platform/neo4jdb"
	"github.com/stoalearn/stoa-backend/internal/realtime"
)

const defaultSuggestionLimit = 5

// AddPrerequisiteInput carries a new edge request. IsRequired defaults
// to true and ImportanceLevel to 3 when omitted.
type AddPrerequisiteInput struct {
	LectureID             uuid.UUID
	PrerequisiteLectureID uuid.UUID
	IsRequired            *bool
	ImportanceLevel       *float64
}

// PrerequisitePatch updates the flags of an existing edge. The lecture
// pair itself is immutable.
type PrerequisitePatch struct {
	IsRequired      *bool
	ImportanceLevel *float64
}

// PrerequisiteEdgeView joins an edge with summaries of both lectures so
// clients never need a second lookup to render it.
type PrerequisiteEdgeView struct {
	Edge                *types.LecturePrerequisite `json:"edge"`
	Lecture             types.LectureSummary       `json:"lecture"`
	PrerequisiteLecture types.LectureSummary       `json:"prerequisite_lecture"`
}

// LectureAvailability classifies one lecture for one student.
type LectureAvailability struct {
	Lecture                *types.Lecture     `json:"lecture"`
	Status                 types.Availability `json:"status"`
	IsCompleted            bool               `json:"is_completed"`
	IsInProgress           bool               `json:"is_in_progress"`
	IsAvailable            bool               `json:"is_available"`
	ReadinessScore         int                `json:"readiness_score"`
	PrerequisitesSatisfied bool               `json:"prerequisites_satisfied"`
}

// AvailabilityOptions narrows GetAvailableLecturesForStudent. The zero
// value filters out in-progress lectures; set IncludeInProgress to keep
// them.
type AvailabilityOptions struct {
	Category          string
	IncludeInProgress bool
}

// SuggestionOptions narrows SuggestNextLectures. Limit falls back to 5
// when non-positive.
type SuggestionOptions struct {
	Limit    int
	Category string
}

type PrerequisiteService interface {
	AddPrerequisite(ctx context.Context, input AddPrerequisiteInput) (*PrerequisiteEdgeView, error)
	RemovePrerequisite(ctx context.Context, edgeID uuid.UUID) error
	UpdatePrerequisite(ctx context.Context, edgeID uuid.UUID, patch PrerequisitePatch) (*PrerequisiteEdgeView, error)
	ListPrerequisites(ctx context.Context, lectureID uuid.UUID) ([]*PrerequisiteEdgeView, error)
	CheckPrerequisitesSatisfied(ctx context.Context, userID, lectureID uuid.UUID) (ReadinessResult, error)
	GetAvailableLecturesForStudent(ctx context.Context, userID uuid.UUID, opts AvailabilityOptions) ([]*LectureAvailability, error)
	SuggestNextLectures(ctx context.Context, userID uuid.UUID, opts SuggestionOptions) ([]*LectureAvailability, error)
}

type prerequisiteService struct {
	log       *logger.Logger
	runner    TxRunner
	lectures  repos.LectureRepo
	edges     repos.LecturePrerequisiteRepo
	progress  repos.LectureProgressRepo
	detector  *CycleDetector
	readiness *ReadinessCalculator
	graph     *neo4jdb.Client
}

func NewPrerequisiteService(
	runner TxRunner,
	lectureRepo repos.LectureRepo,
	edgeRepo repos.LecturePrerequisiteRepo,
	progressRepo repos.LectureProgressRepo,
	detector *CycleDetector,
	readiness *ReadinessCalculator,
	graphClient *neo4jdb.Client,
	baseLog *logger.Logger,
) PrerequisiteService {
	return &prerequisiteService{
		log:       baseLog.With("service", "prerequisite"),
		runner:    runner,
		lectures:  lectureRepo,
		edges:     edgeRepo,
		progress:  progressRepo,
		detector:  detector,
		readiness: readiness,
		graph:     graphClient,
	}
}

func (s *prerequisiteService) AddPrerequisite(ctx context.Context, input AddPrerequisiteInput) (*PrerequisiteEdgeView, error) {
	if s == nil || s.runner == nil || s.edges == nil || s.lectures == nil || s.detector == nil {
		return nil, &apperr.DatabaseError{Op: "AddPrerequisite", Err: errNotConfigured("prerequisite service")}
	}

	fields := map[string]string{}
	if input.LectureID == uuid.Nil {
		fields["lecture_id"] = "required"
	}
	if input.PrerequisiteLectureID == uuid.Nil {
		fields["prerequisite_lecture_id"] = "required"
	}
	if input.LectureID != uuid.Nil && input.LectureID == input.PrerequisiteLectureID {
		fields["prerequisite_lecture_id"] = "must differ from lecture_id"
	}
	importance := types.ImportanceLevelDefault
	if input.ImportanceLevel != nil {
		raw := *input.ImportanceLevel
		if raw < float64(types.ImportanceLevelMin) || raw > float64(types.ImportanceLevelMax) {
			fields["importance_level"] = fmt.Sprintf("must be between %d and %d", types.ImportanceLevelMin, types.ImportanceLevelMax)
		} else {
			importance = roundHalfUp(raw)
		}
	}
	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Op: "AddPrerequisite", Fields: fields}
	}
	isRequired := true
	if input.IsRequired != nil {
		isRequired = *input.IsRequired
	}

	var view *PrerequisiteEdgeView
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.edges.LockGraph(dbc); err != nil {
			return apperr.MapDB("AddPrerequisite", err)
		}
		byID, err := s.loadLectureMap(dbc, []uuid.UUID{input.LectureID, input.PrerequisiteLectureID})
		if err != nil {
			return err
		}
		if byID[input.LectureID] == nil {
			return &apperr.NotFoundError{Resource: "lecture", ID: input.LectureID}
		}
		if byID[input.PrerequisiteLectureID] == nil {
			return &apperr.NotFoundError{Resource: "lecture", ID: input.PrerequisiteLectureID}
		}
		existing, err := s.edges.GetByPair(dbc, input.LectureID, input.PrerequisiteLectureID)
		if err != nil {
			return apperr.MapDB("AddPrerequisite", err)
		}
		if existing != nil {
			return &apperr.ConflictError{Op: "AddPrerequisite", Message: "prerequisite already exists", ExistingID: existing.ID}
		}
		check, err := s.detector.Check(dbc, input.LectureID, input.PrerequisiteLectureID)
		if err != nil {
			return err
		}
		if check.HasCycle {
			if metrics := observability.Current(); metrics != nil {
				metrics.IncCycleRejected()
			}
			return &apperr.CircularDependencyError{
				Op:          "AddPrerequisite",
				Path:        check.Path,
				Description: s.describeCycle(dbc, check.Path),
			}
		}
		rows, err := s.edges.Create(dbc, []*types.LecturePrerequisite{{
			LectureID:             input.LectureID,
			PrerequisiteLectureID: input.PrerequisiteLectureID,
			IsRequired:            isRequired,
			ImportanceLevel:       importance,
		}})
		if err != nil {
			return apperr.MapDB("AddPrerequisite", err)
		}
		if len(rows) == 0 || rows[0] == nil {
			return &apperr.DatabaseError{Op: "AddPrerequisite", Err: fmt.Errorf("edge create returned no rows")}
		}
		view = &PrerequisiteEdgeView{
			Edge:                rows[0],
			Lecture:             byID[input.LectureID].Summary(),
			PrerequisiteLecture: byID[input.PrerequisiteLectureID].Summary(),
		}
		return nil
	})
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			// Two writers raced past the duplicate check. Surface the
			// surviving row as the conflict instead of a raw error.
			dbc := dbctx.Context{Ctx: ctx}
			if existing, rerr := s.edges.GetByPair(dbc, input.LectureID, input.PrerequisiteLectureID); rerr == nil && existing != nil {
				return nil, &apperr.ConflictError{Op: "AddPrerequisite", Message: "prerequisite already exists", ExistingID: existing.ID}
			}
			return nil, &apperr.ConflictError{Op: "AddPrerequisite", Message: "prerequisite already exists"}
		}
		return nil, err
	}

	if metrics := observability.Current(); metrics != nil {
		metrics.IncPrerequisiteEdge("added")
	}
	s.mirrorEdgeUpsert(ctx, view.Edge)
	s.appendCurriculumEvent(ctx, "prerequisite_added", view.Edge)
	return view, nil
}

func (s *prerequisiteService) RemovePrerequisite(ctx context.Context, edgeID uuid.UUID) error {
	if s == nil || s.runner == nil || s.edges == nil {
		return &apperr.DatabaseError{Op: "RemovePrerequisite", Err: errNotConfigured("prerequisite service")}
	}
	if edgeID == uuid.Nil {
		return &apperr.ValidationError{Op: "RemovePrerequisite", Fields: map[string]string{"edge_id": "required"}}
	}
	var removed *types.LecturePrerequisite
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		rows, err := s.edges.GetByIDs(dbc, []uuid.UUID{edgeID})
		if err != nil {
			return apperr.MapDB("RemovePrerequisite", err)
		}
		if len(rows) == 0 || rows[0] == nil {
			return &apperr.NotFoundError{Resource: "prerequisite", ID: edgeID}
		}
		removed = rows[0]
		if err := s.edges.SoftDeleteByIDs(dbc, []uuid.UUID{edgeID}); err != nil {
			return apperr.MapDB("RemovePrerequisite", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if metrics := observability.Current(); metrics != nil {
		metrics.IncPrerequisiteEdge("removed")
	}
	if gerr := graph.DeletePrerequisiteEdges(ctx, s.graph, s.log, []*types.LecturePrerequisite{removed}); gerr != nil {
		s.log.Warn("graph mirror delete failed", "edge_id", removed.ID, "error", gerr)
	}
	s.appendCurriculumEvent(ctx, "prerequisite_removed", removed)
	return nil
}

func (s *prerequisiteService) UpdatePrerequisite(ctx context.Context, edgeID uuid.UUID, patch PrerequisitePatch) (*PrerequisiteEdgeView, error) {
	if s == nil || s.runner == nil || s.edges == nil || s.lectures == nil {
		return nil, &apperr.DatabaseError{Op: "UpdatePrerequisite", Err: errNotConfigured("prerequisite service")}
	}
	fields := map[string]string{}
	if edgeID == uuid.Nil {
		fields["edge_id"] = "required"
	}
	importance := 0
	if patch.ImportanceLevel != nil {
		raw := *patch.ImportanceLevel
		if raw < float64(types.ImportanceLevelMin) || raw > float64(types.ImportanceLevelMax) {
			fields["importance_level"] = fmt.Sprintf("must be between %d and %d", types.ImportanceLevelMin, types.ImportanceLevelMax)
		} else {
			importance = roundHalfUp(raw)
		}
	}
	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Op: "UpdatePrerequisite", Fields: fields}
	}

	var view *PrerequisiteEdgeView
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		rows, err := s.edges.GetByIDs(dbc, []uuid.UUID{edgeID})
		if err != nil {
			return apperr.MapDB("UpdatePrerequisite", err)
		}
		if len(rows) == 0 || rows[0] == nil {
			return &apperr.NotFoundError{Resource: "prerequisite", ID: edgeID}
		}
		edge := rows[0]

		// The lecture pair never changes here, so the graph stays
		// acyclic without another cycle walk.
		updates := map[string]interface{}{}
		if patch.IsRequired != nil {
			updates["is_required"] = *patch.IsRequired
			edge.IsRequired = *patch.IsRequired
		}
		if patch.ImportanceLevel != nil {
			updates["importance_level"] = importance
			edge.ImportanceLevel = importance
		}
		if len(updates) > 0 {
			if err := s.edges.UpdateFields(dbc, edge.ID, updates); err != nil {
				return apperr.MapDB("UpdatePrerequisite", err)
			}
		}

		byID, err := s.loadLectureMap(dbc, []uuid.UUID{edge.LectureID, edge.PrerequisiteLectureID})
		if err != nil {
			return err
		}
		view = &PrerequisiteEdgeView{
			Edge:                edge,
			Lecture:             byID[edge.LectureID].Summary(),
			PrerequisiteLecture: byID[edge.PrerequisiteLectureID].Summary(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if metrics := observability.Current(); metrics != nil {
		metrics.IncPrerequisiteEdge("updated")
	}
	s.mirrorEdgeUpsert(ctx, view.Edge)
	s.appendCurriculumEvent(ctx, "prerequisite_updated", view.Edge)
	return view, nil
}

func (s *prerequisiteService) ListPrerequisites(ctx context.Context, lectureID uuid.UUID) ([]*PrerequisiteEdgeView, error) {
	if s == nil || s.edges == nil || s.lectures == nil {
		return nil, &apperr.DatabaseError{Op: "ListPrerequisites", Err: errNotConfigured("prerequisite service")}
	}
	if lectureID == uuid.Nil {
		return nil, &apperr.ValidationError{Op: "ListPrerequisites", Fields: map[string]string{"lecture_id": "required"}}
	}
	dbc := dbctx.Context{Ctx: ctx}
	exists, err := s.lectures.ExistsByIDs(dbc, []uuid.UUID{lectureID})
	if err != nil {
		return nil, apperr.MapDB("ListPrerequisites", err)
	}
	if !exists[lectureID] {
		return nil, &apperr.NotFoundError{Resource: "lecture", ID: lectureID}
	}
	edges, err := s.edges.GetByLectureIDs(dbc, []uuid.UUID{lectureID})
	if err != nil {
		return nil, apperr.MapDB("ListPrerequisites", err)
	}
	ids := []uuid.UUID{lectureID}
	for _, e := range edges {
		if e != nil {
			ids = append(ids, e.PrerequisiteLectureID)
		}
	}
	byID, err := s.loadLectureMap(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*PrerequisiteEdgeView, 0, len(edges))
	for _, e := range edges {
		if e == nil {
			continue
		}
		out = append(out, &PrerequisiteEdgeView{
			Edge:                e,
			Lecture:             byID[e.LectureID].Summary(),
			PrerequisiteLecture: byID[e.PrerequisiteLectureID].Summary(),
		})
	}
	return out, nil
}

func (s *prerequisiteService) CheckPrerequisitesSatisfied(ctx context.Context, userID, lectureID uuid.UUID) (ReadinessResult, error) {
	if s == nil || s.lectures == nil || s.readiness == nil {
		return ReadinessResult{}, &apperr.DatabaseError{Op: "CheckPrerequisitesSatisfied", Err: errNotConfigured("prerequisite service")}
	}
	fields := map[string]string{}
	if userID == uuid.Nil {
		fields["user_id"] = "required"
	}
	if lectureID == uuid.Nil {
		fields["lecture_id"] = "required"
	}
	if len(fields) > 0 {
		return ReadinessResult{}, &apperr.ValidationError{Op: "CheckPrerequisitesSatisfied", Fields: fields}
	}
	dbc := dbctx.Context{Ctx: ctx}
	exists, err := s.lectures.ExistsByIDs(dbc, []uuid.UUID{lectureID})
	if err != nil {
		return ReadinessResult{}, apperr.MapDB("CheckPrerequisitesSatisfied", err)
	}
	if !exists[lectureID] {
		return ReadinessResult{}, &apperr.NotFoundError{Resource: "lecture", ID: lectureID}
	}
	res, err := s.readiness.ComputeReadiness(dbc, userID, lectureID)
	if err != nil {
		return ReadinessResult{}, err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.ObserveReadinessCheck(res.Satisfied, res.ReadinessScore)
	}
	return res, nil
}

func (s *prerequisiteService) GetAvailableLecturesForStudent(ctx context.Context, userID uuid.UUID, opts AvailabilityOptions) ([]*LectureAvailability, error) {
	if s == nil || s.lectures == nil || s.edges == nil || s.progress == nil || s.readiness == nil {
		return nil, &apperr.DatabaseError{Op: "GetAvailableLecturesForStudent", Err: errNotConfigured("prerequisite service")}
	}
	if userID == uuid.Nil {
		return nil, &apperr.ValidationError{Op: "GetAvailableLecturesForStudent", Fields: map[string]string{"user_id": "required"}}
	}

	lectures, err := s.lectures.List(dbctx.Context{Ctx: ctx}, opts.Category)
	if err != nil {
		return nil, apperr.MapDB("GetAvailableLecturesForStudent", err)
	}
	if len(lectures) == 0 {
		return []*LectureAvailability{}, nil
	}
	lectureIDs := make([]uuid.UUID, 0, len(lectures))
	for _, l := range lectures {
		if l != nil {
			lectureIDs = append(lectureIDs, l.ID)
		}
	}

	// One snapshot of edges and progress for the whole listing so every
	// lecture is judged against the same state.
	var (
		edges    []*types.LecturePrerequisite
		progRows []*types.LectureProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.edges.GetByLectureIDs(dbctx.Context{Ctx: gctx}, lectureIDs)
		if err != nil {
			return apperr.MapDB("GetAvailableLecturesForStudent", err)
		}
		edges = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.progress.ListByUser(dbctx.Context{Ctx: gctx}, userID)
		if err != nil {
			return apperr.MapDB("GetAvailableLecturesForStudent", err)
		}
		progRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	required := map[uuid.UUID][]uuid.UUID{}
	recommended := map[uuid.UUID][]uuid.UUID{}
	for _, e := range edges {
		if e == nil || e.PrerequisiteLectureID == uuid.Nil {
			continue
		}
		if e.IsRequired {
			required[e.LectureID] = append(required[e.LectureID], e.PrerequisiteLectureID)
		} else {
			recommended[e.LectureID] = append(recommended[e.LectureID], e.PrerequisiteLectureID)
		}
	}
	progressByLecture := map[uuid.UUID]*types.LectureProgress{}
	mastered := map[uuid.UUID]bool{}
	for _, row := range progRows {
		if row == nil {
			continue
		}
		progressByLecture[row.LectureID] = row
		if row.Status == types.StatusMastered {
			mastered[row.LectureID] = true
		}
	}

	out := make([]*LectureAvailability, 0, len(lectures))
	for _, l := range lectures {
		if l == nil {
			continue
		}
		isCompleted := false
		isInProgress := false
		if row := progressByLecture[l.ID]; row != nil {
			switch row.Status {
			case types.StatusMastered:
				isCompleted = true
			case types.StatusStarted, types.StatusWatched, types.StatusInitialReflection, types.StatusMasteryTesting:
				isInProgress = true
			}
		}
		if isInProgress && !opts.IncludeInProgress {
			continue
		}
		res := s.readiness.Score(required[l.ID], recommended[l.ID], mastered)
		status := types.AvailabilityLocked
		switch {
		case isCompleted:
			status = types.AvailabilityCompleted
		case isInProgress:
			status = types.AvailabilityInProgress
		case res.Satisfied:
			status = types.AvailabilityAvailable
		}
		out = append(out, &LectureAvailability{
			Lecture:                l,
			Status:                 status,
			IsCompleted:            isCompleted,
			IsInProgress:           isInProgress,
			IsAvailable:            status == types.AvailabilityAvailable,
			ReadinessScore:         res.ReadinessScore,
			PrerequisitesSatisfied: res.Satisfied,
		})
	}
	return out, nil
}

func (s *prerequisiteService) SuggestNextLectures(ctx context.Context, userID uuid.UUID, opts SuggestionOptions) ([]*LectureAvailability, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	avail, err := s.GetAvailableLecturesForStudent(ctx, userID, AvailabilityOptions{
		Category:          opts.Category,
		IncludeInProgress: true,
	})
	if err != nil {
		return nil, err
	}
	picks := make([]*LectureAvailability, 0, len(avail))
	for _, a := range avail {
		if a.Status == types.AvailabilityAvailable || a.Status == types.AvailabilityInProgress {
			picks = append(picks, a)
		}
	}
	// In-progress lectures surface first, then the most ready work,
	// with category and course order breaking ties deterministically.
	sort.SliceStable(picks, func(i, j int) bool {
		a, b := picks[i], picks[j]
		if a.IsInProgress != b.IsInProgress {
			return a.IsInProgress
		}
		if a.ReadinessScore != b.ReadinessScore {
			return a.ReadinessScore > b.ReadinessScore
		}
		if a.Lecture.Category != b.Lecture.Category {
			return a.Lecture.Category < b.Lecture.Category
		}
		if a.Lecture.OrderIndex != b.Lecture.OrderIndex {
			return a.Lecture.OrderIndex < b.Lecture.OrderIndex
		}
		return a.Lecture.ID.String() < b.Lecture.ID.String()
	})
	if len(picks) > limit {
		picks = picks[:limit]
	}
	return picks, nil
}

func (s *prerequisiteService) loadLectureMap(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]*types.Lecture, error) {
	uniq := make([]uuid.UUID, 0, len(ids))
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		uniq = append(uniq, id)
	}
	rows, err := s.lectures.GetByIDs(dbc, uniq)
	if err != nil {
		return nil, apperr.MapDB("loadLectureMap", err)
	}
	byID := make(map[uuid.UUID]*types.Lecture, len(rows))
	for _, l := range rows {
		if l != nil {
			byID[l.ID] = l
		}
	}
	return byID, nil
}

// describeCycle renders a cycle path with lecture titles where they
// resolve, falling back to raw ids.
func (s *prerequisiteService) describeCycle(dbc dbctx.Context, path []uuid.UUID) string {
	byID, err := s.loadLectureMap(dbc, path)
	if err != nil {
		byID = map[uuid.UUID]*types.Lecture{}
	}
	parts := make([]string, 0, len(path))
	for _, id := range path {
		if l := byID[id]; l != nil && l.Title != "" {
			parts = append(parts, l.Title)
		} else {
			parts = append(parts, id.String())
		}
	}
	return "adding this prerequisite would create a cycle: " + strings.Join(parts, " -> ")
}

func (s *prerequisiteService) mirrorEdgeUpsert(ctx context.Context, edge *types.LecturePrerequisite) {
	if edge == nil {
		return
	}
	byID, err := s.loadLectureMap(dbctx.Context{Ctx: ctx}, []uuid.UUID{edge.LectureID, edge.PrerequisiteLectureID})
	if err != nil {
		s.log.Warn("graph mirror lecture load failed", "edge_id", edge.ID, "error", err)
		byID = map[uuid.UUID]*types.Lecture{}
	}
	if gerr := graph.UpsertPrerequisiteEdges(ctx, s.graph, s.log, []*types.LecturePrerequisite{edge}, byID); gerr != nil {
		s.log.Warn("graph mirror upsert failed", "edge_id", edge.ID, "error", gerr)
	}
}

func (s *prerequisiteService) appendCurriculumEvent(ctx context.Context, action string, edge *types.LecturePrerequisite) {
	ssd := ctxutil.GetSSEData(ctx)
	if ssd == nil || edge == nil {
		return
	}
	ssd.AppendMessage(realtime.SSEMessage{
		Channel: realtime.SSEChannelCurriculum,
		Event:   realtime.SSEEventPrerequisiteChanged,
		Data: map[string]any{
			"action":                  action,
			"edge_id":                 edge.ID,
			"lecture_id":              edge.LectureID,
			"prerequisite_lecture_id": edge.PrerequisiteLectureID,
		},
	})
}
