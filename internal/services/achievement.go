package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	activityrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/activity"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

type AchievementService interface {
	ListUnviewed(ctx context.Context, userID uuid.UUID) ([]domain.EarnedAchievement, error)
	ListCompleted(ctx context.Context, userID uuid.UUID) ([]domain.EarnedAchievement, error)
	MarkViewed(ctx context.Context, userID uuid.UUID, achievementID string) error
}

type achievementService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo activityrepo.AchievementRepo
}

func NewAchievementService(db *gorm.DB, baseLog *logger.Logger, repo activityrepo.AchievementRepo) AchievementService {
	return &achievementService{
		db:   db,
		log:  baseLog.With("service", "AchievementService"),
		repo: repo,
	}
}

func (s *achievementService) ListUnviewed(ctx context.Context, userID uuid.UUID) ([]domain.EarnedAchievement, error) {
	return s.repo.ListUnviewed(ctx, nil, userID)
}

func (s *achievementService) ListCompleted(ctx context.Context, userID uuid.UUID) ([]domain.EarnedAchievement, error) {
	return s.repo.ListEarned(ctx, nil, userID)
}

func (s *achievementService) MarkViewed(ctx context.Context, userID uuid.UUID, achievementID string) error {
	return s.repo.MarkViewed(ctx, nil, userID, achievementID)
}
