package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	redisclient "github.com/shaderlabs/shaderlab-backend/internal/clients/redis"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/envutil"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/sendgrid"
	"github.com/shaderlabs/shaderlab-backend/internal/services"
	"github.com/shaderlabs/shaderlab-backend/internal/services/achievements"
)

type Services struct {
	Auth        services.AuthService
	Module      services.ModuleService
	Task        services.TaskService
	Submission  services.SubmissionService
	Progression services.ProgressionService
	Activity    services.ActivityService
	Achievement services.AchievementService
	Diff        services.DiffService
	ScoreCache  redisclient.ScoreCache
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos) (Services, error) {
	log.Info("wiring services")

	catalog, err := achievements.LoadCatalog(cfg.AchievementPath)
	if err != nil {
		return Services{}, fmt.Errorf("load achievement catalog: %w", err)
	}
	checkers, rows, err := catalog.Build(repos.Activity)
	if err != nil {
		return Services{}, fmt.Errorf("build achievement checkers: %w", err)
	}
	if err := repos.Achievement.UpsertCatalog(context.Background(), nil, rows); err != nil {
		return Services{}, fmt.Errorf("sync achievement catalog: %w", err)
	}

	scoreCache := redisclient.NewNoopScoreCache()
	if envutil.Str("REDIS_ADDR", "") != "" {
		cache, err := redisclient.NewScoreCache(log)
		if err != nil {
			log.Warn("redis score cache unavailable, falling back to db", "error", err)
		} else {
			scoreCache = cache
		}
	}

	var mail sendgrid.Client
	if envutil.Str("SENDGRID_API_KEY", "") != "" {
		mail, err = sendgrid.NewFromEnv(log)
		if err != nil {
			log.Warn("sendgrid unavailable, password reset mail disabled", "error", err)
		}
	}

	renderer := services.NewDisabledRenderer()

	activity := services.NewActivityService(db, log, repos.Activity, repos.Achievement, checkers)
	submission := services.NewSubmissionService(db, log, repos.Task, repos.UserTask, repos.Submission, renderer, activity, scoreCache)
	progression := services.NewProgressionService(db, log, repos.Module, repos.UserTask, scoreCache)
	auth := services.NewAuthService(db, log, repos.User, mail, activity)

	return Services{
		Auth:        auth,
		Module:      services.NewModuleService(db, log, repos.Module, repos.Task),
		Task:        services.NewTaskService(db, log, repos.Task, repos.Feedback, repos.UserTask),
		Submission:  submission,
		Progression: progression,
		Activity:    activity,
		Achievement: services.NewAchievementService(db, log, repos.Achievement),
		Diff:        services.NewDiffService(db, log, repos.Task, renderer),
		ScoreCache:  scoreCache,
	}, nil
}
