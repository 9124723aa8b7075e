package app

import (
	"gorm.io/gorm"

	activityrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/activity"
	authrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/auth"
	catalogrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/catalog"
	progressrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/progress"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

type Repos struct {
	User        authrepo.UserRepo
	Module      catalogrepo.ModuleRepo
	Task        catalogrepo.TaskRepo
	Feedback    catalogrepo.FeedbackRepo
	UserTask    progressrepo.UserTaskRepo
	Submission  progressrepo.SubmissionRepo
	Activity    activityrepo.ActivityRepo
	Achievement activityrepo.AchievementRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("wiring repos")
	return Repos{
		User:        authrepo.NewUserRepo(db, log),
		Module:      catalogrepo.NewModuleRepo(db, log),
		Task:        catalogrepo.NewTaskRepo(db, log),
		Feedback:    catalogrepo.NewFeedbackRepo(db, log),
		UserTask:    progressrepo.NewUserTaskRepo(db, log),
		Submission:  progressrepo.NewSubmissionRepo(db, log),
		Activity:    activityrepo.NewActivityRepo(db, log),
		Achievement: activityrepo.NewAchievementRepo(db, log),
	}
}
