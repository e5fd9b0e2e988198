package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stoalearn/stoa-backend/internal/data/repos"
	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/observability"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
	"github.com/stoalearn/stoa-backend/internal/platform/ctxutil"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/realtime"
)

// masteryPassScore is the minimum mastery test score that moves a
// lecture from MASTERY_TESTING to MASTERED; anything lower regresses to
// INITIAL_REFLECTION.
const masteryPassScore = 70

// forwardNext maps each non-terminal status to the single status that
// follows it. MASTERED is terminal and has no entry.
var forwardNext = map[types.WorkflowStatus]types.WorkflowStatus{
	types.StatusLocked:            types.StatusReady,
	types.StatusReady:             types.StatusStarted,
	types.StatusStarted:           types.StatusWatched,
	types.StatusWatched:           types.StatusInitialReflection,
	types.StatusInitialReflection: types.StatusMasteryTesting,
	types.StatusMasteryTesting:    types.StatusMastered,
}

type ProgressService interface {
	GetProgress(ctx context.Context, userID, lectureID uuid.UUID) (*types.LectureProgress, error)
	ListProgress(ctx context.Context, userID uuid.UUID) ([]*types.LectureProgress, error)
	UpdateProgressStatus(ctx context.Context, userID, lectureID uuid.UUID, target types.WorkflowStatus, score *int) (*types.LectureProgress, error)
}

type progressService struct {
	log       *logger.Logger
	runner    TxRunner
	lectures  repos.LectureRepo
	edges     repos.LecturePrerequisiteRepo
	progress  repos.LectureProgressRepo
	readiness *ReadinessCalculator
}

func NewProgressService(
	runner TxRunner,
	lectureRepo repos.LectureRepo,
	edgeRepo repos.LecturePrerequisiteRepo,
	progressRepo repos.LectureProgressRepo,
	readiness *ReadinessCalculator,
	baseLog *logger.Logger,
) ProgressService {
	return &progressService{
		log:       baseLog.With("service", "progress"),
		runner:    runner,
		lectures:  lectureRepo,
		edges:     edgeRepo,
		progress:  progressRepo,
		readiness: readiness,
	}
}

// GetProgress returns the stored record, or nil when the user has never
// interacted with the lecture. A stored LOCKED record whose
// prerequisites are now satisfied is promoted to READY on the way out.
func (s *progressService) GetProgress(ctx context.Context, userID, lectureID uuid.UUID) (*types.LectureProgress, error) {
	if s == nil || s.progress == nil || s.lectures == nil || s.readiness == nil {
		return nil, &apperr.DatabaseError{Op: "GetProgress", Err: errNotConfigured("progress service")}
	}
	fields := map[string]string{}
	if userID == uuid.Nil {
		fields["user_id"] = "required"
	}
	if lectureID == uuid.Nil {
		fields["lecture_id"] = "required"
	}
	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Op: "GetProgress", Fields: fields}
	}
	dbc := dbctx.Context{Ctx: ctx}
	exists, err := s.lectures.ExistsByIDs(dbc, []uuid.UUID{lectureID})
	if err != nil {
		return nil, apperr.MapDB("GetProgress", err)
	}
	if !exists[lectureID] {
		return nil, &apperr.NotFoundError{Resource: "lecture", ID: lectureID}
	}
	row, err := s.progress.GetByUserAndLecture(dbc, userID, lectureID)
	if err != nil {
		return nil, apperr.MapDB("GetProgress", err)
	}
	if row == nil || row.Status != types.StatusLocked {
		return row, nil
	}

	res, err := s.readiness.ComputeReadiness(dbc, userID, lectureID)
	if err != nil {
		return nil, err
	}
	if !res.Satisfied {
		return row, nil
	}
	var promoted *types.LectureProgress
	err = s.runner.InTx(ctx, func(txc dbctx.Context) error {
		current, err := s.progress.GetByUserAndLecture(txc, userID, lectureID)
		if err != nil {
			return apperr.MapDB("GetProgress", err)
		}
		if current == nil || current.Status != types.StatusLocked {
			promoted = current
			return nil
		}
		current.Status = types.StatusReady
		s.appendTransitions(current, types.ProgressTransition{
			From: types.StatusLocked,
			To:   types.StatusReady,
			At:   time.Now().UTC(),
		})
		if err := s.progress.Upsert(txc, current); err != nil {
			return apperr.MapDB("GetProgress", err)
		}
		promoted = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

func (s *progressService) ListProgress(ctx context.Context, userID uuid.UUID) ([]*types.LectureProgress, error) {
	if s == nil || s.progress == nil {
		return nil, &apperr.DatabaseError{Op: "ListProgress", Err: errNotConfigured("progress service")}
	}
	if userID == uuid.Nil {
		return nil, &apperr.ValidationError{Op: "ListProgress", Fields: map[string]string{"user_id": "required"}}
	}
	rows, err := s.progress.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, apperr.MapDB("ListProgress", err)
	}
	return rows, nil
}

// UpdateProgressStatus applies one workflow transition. Statuses move
// strictly forward through the stages, with one exception: a mastery
// test score below 70 moves MASTERY_TESTING back to INITIAL_REFLECTION.
// A LOCKED record whose prerequisites are satisfied counts as READY
// before the target is judged.
func (s *progressService) UpdateProgressStatus(ctx context.Context, userID, lectureID uuid.UUID, target types.WorkflowStatus, score *int) (*types.LectureProgress, error) {
	const op = "UpdateProgressStatus"
	if s == nil || s.runner == nil || s.progress == nil || s.lectures == nil || s.readiness == nil {
		return nil, &apperr.DatabaseError{Op: op, Err: errNotConfigured("progress service")}
	}
	fields := map[string]string{}
	if userID == uuid.Nil {
		fields["user_id"] = "required"
	}
	if lectureID == uuid.Nil {
		fields["lecture_id"] = "required"
	}
	if !target.Valid() {
		fields["status"] = fmt.Sprintf("invalid status %q", string(target))
	} else if target == types.StatusLocked {
		fields["status"] = "LOCKED cannot be requested"
	}
	if score != nil && (*score < 0 || *score > 100) {
		fields["score"] = "must be between 0 and 100"
	}
	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Op: op, Fields: fields}
	}

	var (
		updated        *types.LectureProgress
		from           types.WorkflowStatus
		newlyUnlocked  []uuid.UUID
		masteredNow    bool
		transitionTime time.Time
	)
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		// 1) Load the record, inventing a LOCKED one on first touch.
		exists, err := s.lectures.ExistsByIDs(dbc, []uuid.UUID{lectureID})
		if err != nil {
			return apperr.MapDB(op, err)
		}
		if !exists[lectureID] {
			return &apperr.NotFoundError{Resource: "lecture", ID: lectureID}
		}
		row, err := s.progress.GetByUserAndLecture(dbc, userID, lectureID)
		if err != nil {
			return apperr.MapDB(op, err)
		}
		if row == nil {
			row = &types.LectureProgress{
				UserID:    userID,
				LectureID: lectureID,
				Status:    types.StatusLocked,
			}
		}

		// 2) Lazily promote LOCKED to READY when prerequisites hold.
		effective := row.Status
		promoted := false
		if effective == types.StatusLocked {
			res, err := s.readiness.ComputeReadiness(dbc, userID, lectureID)
			if err != nil {
				return err
			}
			if res.Satisfied {
				effective = types.StatusReady
				promoted = true
			}
		}

		// 3) Judge the requested transition against the effective state.
		if err := validateTransition(effective, target, score); err != nil {
			return err
		}

		// 4) Apply it, recording every hop in the history log.
		now := time.Now().UTC()
		transitionTime = now
		from = effective
		entries := make([]types.ProgressTransition, 0, 2)
		if promoted {
			entries = append(entries, types.ProgressTransition{
				From: types.StatusLocked,
				To:   types.StatusReady,
				At:   now,
			})
		}
		if target != effective {
			entries = append(entries, types.ProgressTransition{
				From:  effective,
				To:    target,
				At:    now,
				Score: score,
			})
		}
		row.Status = target
		if score != nil {
			row.LastScore = score
		}
		row.LastViewed = &now
		if target == types.StatusMastered {
			row.CompletedAt = &now
			masteredNow = true
		}
		s.appendTransitions(row, entries...)
		if err := s.progress.Upsert(dbc, row); err != nil {
			return apperr.MapDB(op, err)
		}
		updated = row

		// 5) Mastery can open downstream lectures; find them while the
		// snapshot still includes this write.
		if masteredNow {
			ids, err := s.newlyUnlockedDependents(dbc, userID, lectureID)
			if err != nil {
				return err
			}
			newlyUnlocked = ids
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if metrics := observability.Current(); metrics != nil {
		metrics.IncProgressTransition(string(from), string(target))
	}
	s.appendProgressEvents(ctx, userID, lectureID, from, target, score, transitionTime, masteredNow, newlyUnlocked)
	return updated, nil
}

// validateTransition decides whether target is reachable from current.
// Malformed requests come back as validation errors; well-formed
// requests that clash with the current state come back as conflicts.
func validateTransition(current, target types.WorkflowStatus, score *int) error {
	const op = "UpdateProgressStatus"
	if current == types.StatusMastered {
		return &apperr.ConflictError{Op: op, Message: "lecture is already mastered"}
	}
	if current == types.StatusLocked {
		if target == types.StatusReady {
			return &apperr.ConflictError{Op: op, Message: "prerequisites not satisfied"}
		}
		return &apperr.ConflictError{Op: op, Message: fmt.Sprintf("cannot transition from %s to %s", current, target)}
	}
	if target == current {
		// READY == READY happens right after a lazy promotion when the
		// client asks to materialize it; that one succeeds.
		if target == types.StatusReady {
			return nil
		}
		return &apperr.ConflictError{Op: op, Message: fmt.Sprintf("already in status %s", current)}
	}
	if current == types.StatusMasteryTesting && target == types.StatusInitialReflection {
		if score == nil {
			return &apperr.ValidationError{Op: op, Fields: map[string]string{"score": "required when leaving MASTERY_TESTING"}}
		}
		if *score >= masteryPassScore {
			return &apperr.ValidationError{Op: op, Fields: map[string]string{"score": fmt.Sprintf("a score of %d or higher advances to MASTERED", masteryPassScore)}}
		}
		return nil
	}
	if forwardNext[current] != target {
		return &apperr.ConflictError{Op: op, Message: fmt.Sprintf("cannot transition from %s to %s", current, target)}
	}
	if current == types.StatusMasteryTesting && target == types.StatusMastered {
		if score == nil {
			return &apperr.ValidationError{Op: op, Fields: map[string]string{"score": "required when leaving MASTERY_TESTING"}}
		}
		if *score < masteryPassScore {
			return &apperr.ValidationError{Op: op, Fields: map[string]string{"score": fmt.Sprintf("must be at least %d to master", masteryPassScore)}}
		}
	}
	return nil
}

// newlyUnlockedDependents finds lectures that required the just
// mastered one, are satisfied now, and where the student has not moved
// past LOCKED. Those are the lectures this mastery opened up.
func (s *progressService) newlyUnlockedDependents(dbc dbctx.Context, userID, masteredID uuid.UUID) ([]uuid.UUID, error) {
	const op = "UpdateProgressStatus"
	dependents, err := s.edges.GetByPrerequisiteLectureIDs(dbc, []uuid.UUID{masteredID})
	if err != nil {
		return nil, apperr.MapDB(op, err)
	}
	seen := map[uuid.UUID]bool{}
	out := []uuid.UUID{}
	for _, e := range dependents {
		if e == nil || !e.IsRequired || e.LectureID == uuid.Nil || seen[e.LectureID] {
			continue
		}
		seen[e.LectureID] = true
		res, err := s.readiness.ComputeReadiness(dbc, userID, e.LectureID)
		if err != nil {
			return nil, err
		}
		if !res.Satisfied {
			continue
		}
		row, err := s.progress.GetByUserAndLecture(dbc, userID, e.LectureID)
		if err != nil {
			return nil, apperr.MapDB(op, err)
		}
		if row == nil || row.Status == types.StatusLocked {
			out = append(out, e.LectureID)
		}
	}
	return out, nil
}

func (s *progressService) appendProgressEvents(
	ctx context.Context,
	userID, lectureID uuid.UUID,
	from, to types.WorkflowStatus,
	score *int,
	at time.Time,
	mastered bool,
	newlyUnlocked []uuid.UUID,
) {
	ssd := ctxutil.GetSSEData(ctx)
	if ssd == nil {
		return
	}
	channel := userID.String()
	ssd.AppendMessage(realtime.SSEMessage{
		Channel: channel,
		Event:   realtime.SSEEventProgressAdvanced,
		Data: map[string]any{
			"lecture_id": lectureID,
			"from":       from,
			"to":         to,
			"score":      score,
			"at":         at,
		},
	})
	if mastered {
		ssd.AppendMessage(realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventLectureMastered,
			Data:    map[string]any{"lecture_id": lectureID},
		})
	}
	for _, id := range newlyUnlocked {
		ssd.AppendMessage(realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventLectureUnlocked,
			Data:    map[string]any{"lecture_id": id},
		})
	}
}

// appendTransitions appends history entries to the row's JSON log. A
// corrupt log is reset rather than wedging progress updates.
func (s *progressService) appendTransitions(row *types.LectureProgress, entries ...types.ProgressTransition) {
	if row == nil || len(entries) == 0 {
		return
	}
	existing := []types.ProgressTransition{}
	if len(row.History) > 0 {
		if err := json.Unmarshal(row.History, &existing); err != nil {
			s.log.Warn("resetting corrupt progress history",
				"user_id", row.UserID,
				"lecture_id", row.LectureID,
				"error", err,
			)
			existing = []types.ProgressTransition{}
		}
	}
	existing = append(existing, entries...)
	raw, err := json.Marshal(existing)
	if err != nil {
		s.log.Warn("marshal progress history failed", "error", err)
		return
	}
	row.History = datatypes.JSON(raw)
}
