package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stoalearn/stoa-backend/internal/http/response"
	"github.com/stoalearn/stoa-backend/internal/services"

	types "github.com/stoalearn/stoa-backend/internal/domain"
)

type ProgressHandler struct {
	progressService services.ProgressService
	emitter         services.SSEEmitter
}

func NewProgressHandler(progressService services.ProgressService, emitter services.SSEEmitter) *ProgressHandler {
	return &ProgressHandler{progressService: progressService, emitter: emitter}
}

// GET /progress
func (ph *ProgressHandler) ListProgress(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNotAuthenticated)
		return
	}
	rows, err := ph.progressService.ListProgress(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": rows})
}

// GET /lectures/:id/progress
// Returns a null progress for lectures the student never touched.
func (ph *ProgressHandler) GetProgress(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNotAuthenticated)
		return
	}
	row, err := ph.progressService.GetProgress(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": row})
}

// PUT /lectures/:id/progress
// body: { "status": "STARTED", "score": 85 }
func (ph *ProgressHandler) UpdateProgress(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNotAuthenticated)
		return
	}
	var req struct {
		Status string `json:"status"`
		Score  *int   `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	row, err := ph.progressService.UpdateProgressStatus(
		c.Request.Context(), userID, id, types.WorkflowStatus(req.Status), req.Score)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	flushRealtime(c, ph.emitter)
	response.RespondOK(c, gin.H{"progress": row})
}
