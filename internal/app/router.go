package app

import (
	"github.com/gin-gonic/gin"

	"github.com/shaderlabs/shaderlab-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:        cfg.ServiceName,
		AllowOrigins:       cfg.AllowOrigins,
		AuthHandler:        handlers.Auth,
		AuthMiddleware:     middleware.Auth,
		ModuleHandler:      handlers.Module,
		TaskHandler:        handlers.Task,
		SubmissionHandler:  handlers.Submission,
		ProgressHandler:    handlers.Progress,
		AchievementHandler: handlers.Achievement,
	})
}
