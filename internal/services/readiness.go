package services

import (
	"math"

	"github.com/google/uuid"

	"github.com/stoalearn/stoa-backend/internal/data/repos"
	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/apperr"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

// Weights splits the readiness score between required and recommended
// prerequisites. The two parts always sum to the full score.
type Weights struct {
	Required    int
	Recommended int
}

// DefaultWeights is the 70/30 split used everywhere readiness is shown.
func DefaultWeights() Weights {
	return Weights{Required: 70, Recommended: 30}
}

// ReadinessResult is the verdict for one (user, lecture) pair. Satisfied
// depends only on required prerequisites; the score blends both kinds.
type ReadinessResult struct {
	Satisfied                         bool        `json:"satisfied"`
	ReadinessScore                    int         `json:"readiness_score"`
	RequiredPrerequisites             []uuid.UUID `json:"required_prerequisites"`
	MissingRequiredPrerequisites      []uuid.UUID `json:"missing_required_prerequisites"`
	RecommendedPrerequisites          []uuid.UUID `json:"recommended_prerequisites"`
	CompletedRecommendedPrerequisites []uuid.UUID `json:"completed_recommended_prerequisites"`
}

// ReadinessCalculator computes readiness from a single snapshot of
// prerequisite edges and progress rows. Results are never cached; every
// call reads current state.
type ReadinessCalculator struct {
	log      *logger.Logger
	edges    repos.LecturePrerequisiteRepo
	progress repos.LectureProgressRepo
	weights  Weights
}

func NewReadinessCalculator(
	edges repos.LecturePrerequisiteRepo,
	progress repos.LectureProgressRepo,
	weights Weights,
	baseLog *logger.Logger,
) *ReadinessCalculator {
	if weights.Required <= 0 && weights.Recommended <= 0 {
		weights = DefaultWeights()
	}
	return &ReadinessCalculator{
		log:      baseLog.With("service", "readiness_calculator"),
		edges:    edges,
		progress: progress,
		weights:  weights,
	}
}

// ComputeReadiness loads the lecture's prerequisite edges and the user's
// progress on them, then scores the pair. A lecture with no
// prerequisites is always satisfied at the full score.
func (c *ReadinessCalculator) ComputeReadiness(dbc dbctx.Context, userID, lectureID uuid.UUID) (ReadinessResult, error) {
	if c == nil || c.edges == nil || c.progress == nil {
		return ReadinessResult{}, &apperr.DatabaseError{Op: "ReadinessCalculator.ComputeReadiness", Err: errNotConfigured("readiness calculator")}
	}
	edges, err := c.edges.GetByLectureIDs(dbc, []uuid.UUID{lectureID})
	if err != nil {
		return ReadinessResult{}, apperr.MapDB("ReadinessCalculator.ComputeReadiness", err)
	}
	required := make([]uuid.UUID, 0, len(edges))
	recommended := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		if e == nil || e.PrerequisiteLectureID == uuid.Nil {
			continue
		}
		if e.IsRequired {
			required = append(required, e.PrerequisiteLectureID)
		} else {
			recommended = append(recommended, e.PrerequisiteLectureID)
		}
	}
	mastered, err := c.masteredSet(dbc, userID, append(append([]uuid.UUID{}, required...), recommended...))
	if err != nil {
		return ReadinessResult{}, err
	}
	return c.Score(required, recommended, mastered), nil
}

// Score is the pure scoring kernel. Callers that batch readiness over
// many lectures load edges and progress once and invoke this per
// lecture so every verdict comes from the same snapshot.
func (c *ReadinessCalculator) Score(required, recommended []uuid.UUID, mastered map[uuid.UUID]bool) ReadinessResult {
	w := c.weights
	res := ReadinessResult{
		RequiredPrerequisites:             append([]uuid.UUID{}, required...),
		MissingRequiredPrerequisites:      make([]uuid.UUID, 0, len(required)),
		RecommendedPrerequisites:          append([]uuid.UUID{}, recommended...),
		CompletedRecommendedPrerequisites: make([]uuid.UUID, 0, len(recommended)),
	}
	if len(required) == 0 && len(recommended) == 0 {
		res.Satisfied = true
		res.ReadinessScore = w.Required + w.Recommended
		return res
	}

	requiredDone := 0
	for _, id := range required {
		if mastered[id] {
			requiredDone++
		} else {
			res.MissingRequiredPrerequisites = append(res.MissingRequiredPrerequisites, id)
		}
	}
	recommendedDone := 0
	for _, id := range recommended {
		if mastered[id] {
			recommendedDone++
			res.CompletedRecommendedPrerequisites = append(res.CompletedRecommendedPrerequisites, id)
		}
	}

	requiredScore := float64(w.Required)
	if len(required) > 0 {
		requiredScore = float64(w.Required) * float64(requiredDone) / float64(len(required))
	}
	recommendedScore := float64(w.Recommended)
	if len(recommended) > 0 {
		recommendedScore = float64(w.Recommended) * float64(recommendedDone) / float64(len(recommended))
	}

	res.Satisfied = len(res.MissingRequiredPrerequisites) == 0
	res.ReadinessScore = roundHalfUp(requiredScore + recommendedScore)
	return res
}

func (c *ReadinessCalculator) masteredSet(dbc dbctx.Context, userID uuid.UUID, lectureIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	mastered := map[uuid.UUID]bool{}
	if len(lectureIDs) == 0 {
		return mastered, nil
	}
	rows, err := c.progress.GetByUserAndLectureIDs(dbc, userID, lectureIDs)
	if err != nil {
		return nil, apperr.MapDB("ReadinessCalculator.ComputeReadiness", err)
	}
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.Status == types.StatusMastered {
			mastered[row.LectureID] = true
		}
	}
	return mastered, nil
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
