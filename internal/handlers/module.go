package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/ctxutil"
	"github.com/shaderlabs/shaderlab-backend/internal/services"
)

type ModuleHandler struct {
	svc         services.ModuleService
	progression services.ProgressionService
}

func NewModuleHandler(svc services.ModuleService, progression services.ProgressionService) *ModuleHandler {
	return &ModuleHandler{svc: svc, progression: progression}
}

// GET /api/modules
func (h *ModuleHandler) List(c *gin.Context) {
	id := ctxutil.GetIdentity(c.Request.Context())
	modules, err := h.progression.GetUserModules(c.Request.Context(), id.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"modules": modules})
}

// GET /api/modules/:id
func (h *ModuleHandler) Get(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	module, tasks, err := h.svc.Get(c.Request.Context(), moduleID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"module": module, "tasks": tasks})
}

// POST /api/modules
func (h *ModuleHandler) Create(c *gin.Context) {
	var body struct {
		Name             string `json:"name"`
		Description      string `json:"description"`
		Locked           bool   `json:"locked"`
		RandomTaskAccess bool   `json:"random_task_access"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	id := ctxutil.GetIdentity(c.Request.Context())
	module, err := h.svc.Create(c.Request.Context(), services.CreateModuleInput{
		Name:             body.Name,
		Description:      body.Description,
		Locked:           body.Locked,
		RandomTaskAccess: body.RandomTaskAccess,
		CreatedBy:        id.UserID,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"module": module})
}

// PUT /api/modules/:id
func (h *ModuleHandler) Update(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body domain.Module
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	body.ID = moduleID
	module, err := h.svc.Update(c.Request.Context(), &body)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"module": module})
}
