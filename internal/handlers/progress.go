package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shaderlabs/shaderlab-backend/internal/platform/ctxutil"
	"github.com/shaderlabs/shaderlab-backend/internal/services"
)

type ProgressHandler struct {
	svc services.ProgressionService
}

func NewProgressHandler(svc services.ProgressionService) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

// GET /api/modules/:id/progress
func (h *ProgressHandler) ModuleProgress(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	id := ctxutil.GetIdentity(c.Request.Context())
	progress, err := h.svc.GetUserModuleProgress(c.Request.Context(), id.UserID, moduleID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}

// GET /api/progress
func (h *ProgressHandler) UserProgress(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	progress, err := h.svc.GetUserProgress(c.Request.Context(), id.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}

// GET /api/tasks/next
func (h *ProgressHandler) NextTask(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	next, err := h.svc.FindNext(c.Request.Context(), id.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"next": next})
}

// GET /api/user/score
func (h *ProgressHandler) UserScore(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	score, err := h.svc.UserScore(c.Request.Context(), id.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"score": score})
}
