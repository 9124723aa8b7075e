package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/ctxutil"
	"github.com/shaderlabs/shaderlab-backend/internal/services"
)

var errInvalidActivityKind = errors.New("unsupported activity kind")

type AchievementHandler struct {
	svc      services.AchievementService
	activity services.ActivityService
}

func NewAchievementHandler(svc services.AchievementService, activity services.ActivityService) *AchievementHandler {
	return &AchievementHandler{svc: svc, activity: activity}
}

// GET /api/achievements/unviewed
func (h *AchievementHandler) ListUnviewed(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	achievements, err := h.svc.ListUnviewed(c.Request.Context(), id.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"achievements": achievements})
}

// GET /api/achievements
func (h *AchievementHandler) ListCompleted(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	achievements, err := h.svc.ListCompleted(c.Request.Context(), id.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"achievements": achievements})
}

// POST /api/achievements/:id/viewed
func (h *AchievementHandler) MarkViewed(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	if err := h.svc.MarkViewed(c.Request.Context(), id.UserID, c.Param("id")); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

// POST /api/activity lets clients report non-submission activity kinds,
// such as opening a task.
func (h *AchievementHandler) RecordActivity(c *gin.Context) {
	var body struct {
		Kind string `json:"kind"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	kind := domain.ActivityKind(body.Kind)
	switch kind {
	case domain.ActivityTaskOpened, domain.ActivitySignedIn:
	default:
		RespondError(c, http.StatusBadRequest, "bad_request", errInvalidActivityKind)
		return
	}
	id := ctxutil.GetIdentity(c.Request.Context())
	granted, err := h.activity.RecordActivity(c.Request.Context(), id.UserID, kind, time.Now().UTC())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"achievements": granted})
}
