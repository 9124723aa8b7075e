package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shaderlabs/shaderlab-backend/internal/platform/ctxutil"
	"github.com/shaderlabs/shaderlab-backend/internal/services"
)

type SubmissionHandler struct {
	svc services.SubmissionService
}

func NewSubmissionHandler(svc services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{svc: svc}
}

// POST /api/tasks/:id/submit
func (h *SubmissionHandler) Submit(c *gin.Context) {
	h.submit(c, false)
}

// POST /api/tasks/:id/submit/validated
func (h *SubmissionHandler) SubmitValidated(c *gin.Context) {
	h.submit(c, true)
}

func (h *SubmissionHandler) submit(c *gin.Context, validated bool) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body services.SubmitInput
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	id := ctxutil.GetIdentity(c.Request.Context())
	now := time.Now().UTC()

	var outcome *services.SubmissionOutcome
	if validated {
		outcome, err = h.svc.SubmitWithValidation(c.Request.Context(), id.UserID, taskID, body, now)
	} else {
		outcome, err = h.svc.Submit(c.Request.Context(), id.UserID, taskID, body, now)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, outcome)
}

// GET /api/tasks/:id/submissions
func (h *SubmissionHandler) History(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	id := ctxutil.GetIdentity(c.Request.Context())
	history, err := h.svc.History(c.Request.Context(), id.UserID, taskID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"submissions": history})
}
