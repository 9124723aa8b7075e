package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	activityrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/activity"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
	"github.com/shaderlabs/shaderlab-backend/internal/services/achievements"
)

// ActivityService appends activity events and dispatches them to the
// achievement checkers registered for each kind. The registry is built once
// at wiring time and never mutated afterwards.
type ActivityService interface {
	RecordActivity(ctx context.Context, userID uuid.UUID, kind domain.ActivityKind, now time.Time) ([]domain.EarnedAchievement, error)
}

type activityService struct {
	db              *gorm.DB
	log             *logger.Logger
	activityRepo    activityrepo.ActivityRepo
	achievementRepo activityrepo.AchievementRepo
	registry        map[domain.ActivityKind][]achievements.Checker
}

func NewActivityService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ar activityrepo.ActivityRepo,
	achr activityrepo.AchievementRepo,
	checkers []achievements.Checker,
) ActivityService {
	registry := make(map[domain.ActivityKind][]achievements.Checker)
	for _, c := range checkers {
		for _, kind := range c.Triggers() {
			registry[kind] = append(registry[kind], c)
		}
	}
	return &activityService{
		db:              db,
		log:             baseLog.With("service", "ActivityService"),
		activityRepo:    ar,
		achievementRepo: achr,
		registry:        registry,
	}
}

func (s *activityService) RecordActivity(ctx context.Context, userID uuid.UUID, kind domain.ActivityKind, now time.Time) ([]domain.EarnedAchievement, error) {
	// The event append must never block the triggering action.
	if _, err := s.activityRepo.Save(ctx, nil, &domain.UserActivity{
		UserID: userID,
		Kind:   kind,
		At:     now,
	}); err != nil {
		s.log.Error("failed to save activity event", "kind", kind, "error", err)
	}

	checkers := s.registry[kind]
	if len(checkers) == 0 {
		return nil, nil
	}

	// Best-effort pre-filter; the unique (user, achievement) index is what
	// actually guarantees at-most-once grants.
	earnedIDs, err := s.achievementRepo.EarnedIDs(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	earned := make(map[string]bool, len(earnedIDs))
	for _, id := range earnedIDs {
		earned[id] = true
	}

	var granted []domain.EarnedAchievement
	for _, c := range checkers {
		id := c.AchievementID()
		if earned[id] {
			continue
		}
		reached, err := c.Reached(ctx, userID, now)
		if err != nil {
			s.log.Error("achievement check failed", "achievement", id, "error", err)
			continue
		}
		if !reached {
			continue
		}
		inserted, err := s.achievementRepo.Grant(ctx, nil, userID, id, now)
		if err != nil {
			s.log.Error("achievement grant failed", "achievement", id, "error", err)
			continue
		}
		if !inserted {
			// A concurrent dispatch won the race; the grant already exists.
			continue
		}
		a, err := s.achievementRepo.Get(ctx, nil, id)
		if err != nil {
			s.log.Error("failed to load granted achievement", "achievement", id, "error", err)
			continue
		}
		granted = append(granted, domain.EarnedAchievement{
			AchievementID: a.ID,
			Name:          a.Name,
			Message:       a.Message,
			At:            now,
		})
	}
	return granted, nil
}
