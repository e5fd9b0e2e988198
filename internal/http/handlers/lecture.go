package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stoalearn/stoa-backend/internal/http/response"
	"github.com/stoalearn/stoa-backend/internal/services"
)

type LectureHandler struct {
	lectureService services.LectureService
}

func NewLectureHandler(lectureService services.LectureService) *LectureHandler {
	return &LectureHandler{lectureService: lectureService}
}

// POST /lectures
func (lh *LectureHandler) CreateLecture(c *gin.Context) {
	var req struct {
		Title           string   `json:"title"`
		Description     string   `json:"description"`
		Category        string   `json:"category"`
		OrderIndex      int      `json:"order_index"`
		DurationMinutes int      `json:"duration_minutes"`
		VideoURL        string   `json:"video_url"`
		Tags            []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lecture, err := lh.lectureService.CreateLecture(c.Request.Context(), services.CreateLectureInput{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		OrderIndex:      req.OrderIndex,
		DurationMinutes: req.DurationMinutes,
		VideoURL:        req.VideoURL,
		Tags:            req.Tags,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lecture": lecture})
}

// GET /lectures?category=...
func (lh *LectureHandler) ListLectures(c *gin.Context) {
	lectures, err := lh.lectureService.ListLectures(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lectures": lectures})
}

// GET /lectures/:id
func (lh *LectureHandler) GetLecture(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	lecture, err := lh.lectureService.GetLecture(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lecture": lecture})
}

// PATCH /lectures/:id
func (lh *LectureHandler) UpdateLecture(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Title           *string  `json:"title"`
		Description     *string  `json:"description"`
		Category        *string  `json:"category"`
		OrderIndex      *int     `json:"order_index"`
		DurationMinutes *int     `json:"duration_minutes"`
		VideoURL        *string  `json:"video_url"`
		Tags            []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lecture, err := lh.lectureService.UpdateLecture(c.Request.Context(), id, services.UpdateLectureInput{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		OrderIndex:      req.OrderIndex,
		DurationMinutes: req.DurationMinutes,
		VideoURL:        req.VideoURL,
		Tags:            req.Tags,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lecture": lecture})
}

// DELETE /lectures/:id
func (lh *LectureHandler) DeleteLecture(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := lh.lectureService.DeleteLecture(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// pathID parses the :id segment, answering 400 itself on garbage.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("id must be a uuid"))
		return uuid.Nil, false
	}
	return id, true
}
