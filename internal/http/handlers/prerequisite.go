package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stoalearn/stoa-backend/internal/http/response"
	"github.com/stoalearn/stoa-backend/internal/services"
)

var errNotAuthenticated = errors.New("not authenticated")

type PrerequisiteHandler struct {
	prereqService services.PrerequisiteService
	emitter       services.SSEEmitter
}

func NewPrerequisiteHandler(prereqService services.PrerequisiteService, emitter services.SSEEmitter) *PrerequisiteHandler {
	return &PrerequisiteHandler{prereqService: prereqService, emitter: emitter}
}

// POST /prerequisites
func (ph *PrerequisiteHandler) AddPrerequisite(c *gin.Context) {
	var req struct {
		LectureID             string   `json:"lecture_id"`
		PrerequisiteLectureID string   `json:"prerequisite_lecture_id"`
		IsRequired            *bool    `json:"is_required"`
		ImportanceLevel       *float64 `json:"importance_level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input := services.AddPrerequisiteInput{
		IsRequired:      req.IsRequired,
		ImportanceLevel: req.ImportanceLevel,
	}
	// Malformed uuids fall through as Nil so the service reports them
	// together with any other field problems.
	input.LectureID, _ = parseOptionalUUID(req.LectureID)
	input.PrerequisiteLectureID, _ = parseOptionalUUID(req.PrerequisiteLectureID)

	view, err := ph.prereqService.AddPrerequisite(c.Request.Context(), input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	flushRealtime(c, ph.emitter)
	response.RespondOK(c, gin.H{"prerequisite": view})
}

// PATCH /prerequisites/:id
func (ph *PrerequisiteHandler) UpdatePrerequisite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		IsRequired      *bool    `json:"is_required"`
		ImportanceLevel *float64 `json:"importance_level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := ph.prereqService.UpdatePrerequisite(c.Request.Context(), id, services.PrerequisitePatch{
		IsRequired:      req.IsRequired,
		ImportanceLevel: req.ImportanceLevel,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	flushRealtime(c, ph.emitter)
	response.RespondOK(c, gin.H{"prerequisite": view})
}

// DELETE /prerequisites/:id
func (ph *PrerequisiteHandler) RemovePrerequisite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ph.prereqService.RemovePrerequisite(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	flushRealtime(c, ph.emitter)
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /lectures/:id/prerequisites
func (ph *PrerequisiteHandler) ListPrerequisites(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	views, err := ph.prereqService.ListPrerequisites(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"prerequisites": views})
}

// GET /lectures/:id/readiness
func (ph *PrerequisiteHandler) CheckReadiness(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNotAuthenticated)
		return
	}
	result, err := ph.prereqService.CheckPrerequisitesSatisfied(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"readiness": result})
}

// GET /lectures/availability?category=...&include_in_progress=true
func (ph *PrerequisiteHandler) ListAvailability(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNotAuthenticated)
		return
	}
	includeInProgress, _ := strconv.ParseBool(c.DefaultQuery("include_in_progress", "false"))
	rows, err := ph.prereqService.GetAvailableLecturesForStudent(c.Request.Context(), userID, services.AvailabilityOptions{
		Category:          c.Query("category"),
		IncludeInProgress: includeInProgress,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lectures": rows})
}

// GET /lectures/suggestions?limit=5&category=...
func (ph *PrerequisiteHandler) SuggestNextLectures(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNotAuthenticated)
		return
	}
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	rows, err := ph.prereqService.SuggestNextLectures(c.Request.Context(), userID, services.SuggestionOptions{
		Limit:    limit,
		Category: c.Query("category"),
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": rows})
}

func parseOptionalUUID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
