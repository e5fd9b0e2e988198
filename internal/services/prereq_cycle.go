package services

import (
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stoalearn/stoa-backend/internal/data/repos"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

// PrerequisiteEdgeLoader supplies the stored prerequisite ids for one
// lecture. The production loader reads through the prerequisite repo so
// checks run inside the caller's transaction; tests swap in a map.
type PrerequisiteEdgeLoader interface {
	PrerequisiteIDs(dbc dbctx.Context, lectureID uuid.UUID) ([]uuid.UUID, error)
}

type repoEdgeLoader struct {
	edges repos.LecturePrerequisiteRepo
}

// NewRepoEdgeLoader adapts the prerequisite repo into an edge loader.
func NewRepoEdgeLoader(edges repos.LecturePrerequisiteRepo) PrerequisiteEdgeLoader {
	return &repoEdgeLoader{edges: edges}
}

func (l *repoEdgeLoader) PrerequisiteIDs(dbc dbctx.Context, lectureID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := l.edges.GetByLectureIDs(dbc, []uuid.UUID{lectureID})
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row == nil || row.PrerequisiteLectureID == uuid.Nil {
			continue
		}
		out = append(out, row.PrerequisiteLectureID)
	}
	return out, nil
}

// CycleCheck reports whether a candidate edge would close a dependency
// cycle. When HasCycle is set, Path holds the full loop starting and
// ending at the same lecture id.
type CycleCheck struct {
	HasCycle bool
	Path     []uuid.UUID
}

// CycleDetector walks the stored prerequisite graph depth first to
// decide whether a proposed edge lecture -> prerequisite would make the
// graph cyclic. A cycle exists exactly when the prerequisite already
// reaches the lecture through stored edges. Loader errors surface as
// errors, never as a clean verdict.
type CycleDetector struct {
	log   *logger.Logger
	edges PrerequisiteEdgeLoader
}

func NewCycleDetector(edges PrerequisiteEdgeLoader, baseLog *logger.Logger) *CycleDetector {
	return &CycleDetector{
		log:   baseLog.With("service", "cycle_detector"),
		edges: edges,
	}
}

// Check walks from prerequisiteID through stored prerequisite edges
// looking for lectureID. It also reports a loop already present among
// the stored edges instead of spinning on it.
func (d *CycleDetector) Check(dbc dbctx.Context, lectureID, prerequisiteID uuid.UUID) (CycleCheck, error) {
	if d == nil || d.edges == nil {
		return CycleCheck{}, &apperr.DatabaseError{Op: "CycleDetector.Check", Err: errNotConfigured("cycle detector")}
	}
	if lectureID == uuid.Nil || prerequisiteID == uuid.Nil {
		return CycleCheck{}, nil
	}

	ctx, span := otel.Tracer("prerequisites").Start(dbc.Context(), "cycle_detector.check",
		trace.WithAttributes(
			attribute.String("lecture.id", lectureID.String()),
			attribute.String("prerequisite.id", prerequisiteID.String()),
		),
	)
	defer span.End()
	dbc.Ctx = ctx

	if lectureID == prerequisiteID {
		span.SetAttributes(attribute.Bool("cycle.found", true))
		return CycleCheck{HasCycle: true, Path: []uuid.UUID{lectureID, lectureID}}, nil
	}

	// The frontier is an explicit stack of frames; prerequisite chain
	// depth never grows the call stack. visited prunes re-converging
	// branches, onPath is what distinguishes a true loop.
	type frame struct {
		id   uuid.UUID
		next []uuid.UUID
		pos  int
	}

	visited := map[uuid.UUID]bool{}
	onPath := map[uuid.UUID]bool{}
	path := []uuid.UUID{}
	stack := []frame{}
	var loop []uuid.UUID

	enter := func(id uuid.UUID) error {
		next, err := d.edges.PrerequisiteIDs(dbc, id)
		if err != nil {
			return apperr.MapDB("CycleDetector.Check", err)
		}
		visited[id] = true
		onPath[id] = true
		path = append(path, id)
		stack = append(stack, frame{id: id, next: next})
		return nil
	}

	if err := enter(prerequisiteID); err != nil {
		span.RecordError(err)
		return CycleCheck{}, err
	}

	for len(stack) > 0 && loop == nil {
		top := &stack[len(stack)-1]
		if top.pos >= len(top.next) {
			onPath[top.id] = false
			path = path[:len(path)-1]
			stack = stack[:len(stack)-1]
			continue
		}
		nxt := top.next[top.pos]
		top.pos++

		switch {
		case nxt == uuid.Nil:
		case nxt == lectureID:
			// The candidate edge would close this walk into a loop.
			loop = make([]uuid.UUID, 0, len(path)+2)
			loop = append(loop, lectureID)
			loop = append(loop, path...)
			loop = append(loop, lectureID)
		case onPath[nxt]:
			// The stored graph already contains a loop. Report it
			// rather than walking it forever.
			start := 0
			for i, id := range path {
				if id == nxt {
					start = i
					break
				}
			}
			loop = make([]uuid.UUID, 0, len(path)-start+1)
			loop = append(loop, path[start:]...)
			loop = append(loop, nxt)
		case visited[nxt]:
		default:
			if err := enter(nxt); err != nil {
				span.RecordError(err)
				return CycleCheck{}, err
			}
		}
	}
	span.SetAttributes(
		attribute.Int("lectures.visited", len(visited)),
		attribute.Bool("cycle.found", loop != nil),
	)
	if loop != nil {
		return CycleCheck{HasCycle: true, Path: loop}, nil
	}
	return CycleCheck{}, nil
}
