package app

import (
	"github.com/shaderlabs/shaderlab-backend/internal/handlers"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Module      *handlers.ModuleHandler
	Task        *handlers.TaskHandler
	Submission  *handlers.SubmissionHandler
	Progress    *handlers.ProgressHandler
	Achievement *handlers.AchievementHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("wiring handlers")
	return Handlers{
		Auth:        handlers.NewAuthHandler(services.Auth),
		Module:      handlers.NewModuleHandler(services.Module, services.Progression),
		Task:        handlers.NewTaskHandler(services.Task, services.Diff),
		Submission:  handlers.NewSubmissionHandler(services.Submission),
		Progress:    handlers.NewProgressHandler(services.Progression),
		Achievement: handlers.NewAchievementHandler(services.Achievement, services.Activity),
	}
}
