package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stoalearn/stoa-backend/internal/http/response"
	"github.com/stoalearn/stoa-backend/internal/services"
)

// CurriculumHandler re-runs the configured seed file on demand. The path is
// fixed at startup; callers cannot point the seeder at arbitrary files.
type CurriculumHandler struct {
	curriculumService services.CurriculumService
	seedPath          string
	emitter           services.SSEEmitter
}

func NewCurriculumHandler(curriculumService services.CurriculumService, seedPath string, emitter services.SSEEmitter) *CurriculumHandler {
	return &CurriculumHandler{
		curriculumService: curriculumService,
		seedPath:          seedPath,
		emitter:           emitter,
	}
}

// POST /curriculum/seed
func (ch *CurriculumHandler) Seed(c *gin.Context) {
	if strings.TrimSpace(ch.seedPath) == "" {
		response.RespondError(c, http.StatusBadRequest, "seed_not_configured",
			errors.New("no curriculum file configured"))
		return
	}
	report, err := ch.curriculumService.SeedFromFile(c.Request.Context(), ch.seedPath)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	flushRealtime(c, ch.emitter)
	response.RespondOK(c, gin.H{"report": report})
}
