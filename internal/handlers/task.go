package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/ctxutil"
	"github.com/shaderlabs/shaderlab-backend/internal/services"
)

type TaskHandler struct {
	svc  services.TaskService
	diff services.DiffService
}

func NewTaskHandler(svc services.TaskService, diff services.DiffService) *TaskHandler {
	return &TaskHandler{svc: svc, diff: diff}
}

// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	id := ctxutil.GetIdentity(c.Request.Context())
	view, err := h.svc.GetForUser(c.Request.Context(), id.UserID, taskID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

// GET /api/modules/:id/tasks
func (h *TaskHandler) ListByModule(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	tasks, err := h.svc.ListByModule(c.Request.Context(), moduleID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tasks": tasks})
}

// GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.svc.List(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tasks": tasks})
}

type taskBody struct {
	ModuleID             uuid.UUID          `json:"module_id"`
	Name                 string             `json:"name"`
	Cost                 int                `json:"cost"`
	Threshold            float64            `json:"threshold"`
	Visibility           bool               `json:"visibility"`
	VertexCodeEditable   bool               `json:"vertex_code_editable"`
	FragmentCodeEditable bool               `json:"fragment_code_editable"`
	Animated             bool               `json:"animated"`
	AnimationSteps       int                `json:"animation_steps"`
	AnimationStepTime    int                `json:"animation_step_time"`
	Payload              domain.TaskPayload `json:"payload"`
}

// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var body taskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	id := ctxutil.GetIdentity(c.Request.Context())
	task, err := h.svc.Create(c.Request.Context(), services.CreateTaskInput{
		ModuleID:             body.ModuleID,
		Name:                 body.Name,
		Cost:                 body.Cost,
		Threshold:            body.Threshold,
		Visibility:           body.Visibility,
		VertexCodeEditable:   body.VertexCodeEditable,
		FragmentCodeEditable: body.FragmentCodeEditable,
		Animated:             body.Animated,
		AnimationSteps:       body.AnimationSteps,
		AnimationStepTime:    body.AnimationStepTime,
		Payload:              body.Payload,
		CreatedBy:            id.UserID,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"task": task})
}

// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body taskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	task := &domain.Task{
		ID:                   taskID,
		ModuleID:             body.ModuleID,
		Name:                 body.Name,
		Cost:                 body.Cost,
		Threshold:            body.Threshold,
		Visibility:           body.Visibility,
		VertexCodeEditable:   body.VertexCodeEditable,
		FragmentCodeEditable: body.FragmentCodeEditable,
		Animated:             body.Animated,
		AnimationSteps:       body.AnimationSteps,
		AnimationStepTime:    body.AnimationStepTime,
	}
	if err := task.SetPayload(body.Payload); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), task)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"task": updated})
}

// PATCH /api/tasks/:id/visibility
func (h *TaskHandler) SetVisibility(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body struct {
		Visible bool `json:"visible"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.svc.SetVisibility(c.Request.Context(), taskID, body.Visible); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

// POST /api/tasks/:id/like
func (h *TaskHandler) SetLiked(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body struct {
		Liked bool `json:"liked"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	id := ctxutil.GetIdentity(c.Request.Context())
	if err := h.svc.SetLiked(c.Request.Context(), id.UserID, taskID, body.Liked); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

// POST /api/tasks/:id/feedback
func (h *TaskHandler) SubmitFeedback(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body services.TaskFeedbackInput
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	id := ctxutil.GetIdentity(c.Request.Context())
	if err := h.svc.SubmitFeedback(c.Request.Context(), id.UserID, taskID, body); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

// POST /api/tasks/:id/diff
func (h *TaskHandler) DiffPreview(c *gin.Context) {
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
	png, err := h.diff.Preview(c.Request.Context(), taskID, body)
	if err != nil {
		if errors.Is(err, services.ErrRenderingUnavailable) {
			RespondError(c, http.StatusNotFound, "rendering_unavailable", err)
			return
		}
		RespondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
