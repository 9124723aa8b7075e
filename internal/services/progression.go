package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/shaderlabs/shaderlab-backend/internal/clients/redis"
	catalogrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/catalog"
	progressrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/progress"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

// TaskProgress is one task in a user's module view, with the derived lock
// flag and the match fraction recovered from score/cost.
type TaskProgress struct {
	TaskID   uuid.UUID `json:"task_id"`
	ModuleID uuid.UUID `json:"module_id"`
	Name     string    `json:"name"`
	Order    int       `json:"order"`
	Score    int       `json:"score"`
	Match    float64   `json:"match"`
	Accepted bool      `json:"accepted"`
	Rejected bool      `json:"rejected"`
	Locked   bool      `json:"locked"`
}

type ProgressionService interface {
	GetUserModuleProgress(ctx context.Context, userID, moduleID uuid.UUID) ([]TaskProgress, error)
	// GetUserProgress is the cross-module view; tasks are never locked here.
	GetUserProgress(ctx context.Context, userID uuid.UUID) ([]TaskProgress, error)
	FindNext(ctx context.Context, userID uuid.UUID) (*domain.TaskResult, error)
	GetNextModuleTask(ctx context.Context, userID, fromTaskID uuid.UUID) (*domain.TaskResult, error)
	GetUserModules(ctx context.Context, userID uuid.UUID) ([]domain.ModuleProgress, error)
	UserScore(ctx context.Context, userID uuid.UUID) (int, error)
}

type progressionService struct {
	db           *gorm.DB
	log          *logger.Logger
	moduleRepo   catalogrepo.ModuleRepo
	userTaskRepo progressrepo.UserTaskRepo
	scoreCache   redisclient.ScoreCache
}

func NewProgressionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	moduleRepo catalogrepo.ModuleRepo,
	userTaskRepo progressrepo.UserTaskRepo,
	scoreCache redisclient.ScoreCache,
) ProgressionService {
	return &progressionService{
		db:           db,
		log:          baseLog.With("service", "ProgressionService"),
		moduleRepo:   moduleRepo,
		userTaskRepo: userTaskRepo,
		scoreCache:   scoreCache,
	}
}

// ComputeTaskLocking derives per-task lock flags from an ordered result list.
// The frontier is the first unaccepted task; everything strictly after it is
// locked unless the module allows random access. The frontier itself, and
// anything before it, is never locked.
func ComputeTaskLocking(results []domain.TaskResult, randomAccess bool) []bool {
	locked := make([]bool, len(results))
	if randomAccess {
		return locked
	}
	frontier := -1
	for i, r := range results {
		if !r.Accepted {
			frontier = i
			break
		}
	}
	if frontier < 0 {
		return locked
	}
	for i := range results {
		if results[i].Order > results[frontier].Order {
			locked[i] = true
		}
	}
	return locked
}

func (s *progressionService) GetUserModuleProgress(ctx context.Context, userID, moduleID uuid.UUID) ([]TaskProgress, error) {
	module, err := s.moduleRepo.GetByID(ctx, nil, moduleID)
	if err != nil {
		return nil, err
	}
	results, err := s.userTaskRepo.ModuleTaskResults(ctx, nil, userID, moduleID)
	if err != nil {
		return nil, err
	}
	locked := ComputeTaskLocking(results, module.RandomTaskAccess)
	return toTaskProgress(results, locked), nil
}

func (s *progressionService) GetUserProgress(ctx context.Context, userID uuid.UUID) ([]TaskProgress, error) {
	results, err := s.userTaskRepo.TaskResults(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return toTaskProgress(results, make([]bool, len(results))), nil
}

func (s *progressionService) FindNext(ctx context.Context, userID uuid.UUID) (*domain.TaskResult, error) {
	next, err := s.userTaskRepo.FindNext(ctx, nil, userID)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *progressionService) GetNextModuleTask(ctx context.Context, userID, fromTaskID uuid.UUID) (*domain.TaskResult, error) {
	next, err := s.userTaskRepo.NextModuleTask(ctx, nil, userID, fromTaskID)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *progressionService) GetUserModules(ctx context.Context, userID uuid.UUID) ([]domain.ModuleProgress, error) {
	return s.moduleRepo.ListWithUserProgress(ctx, nil, userID)
}

func (s *progressionService) UserScore(ctx context.Context, userID uuid.UUID) (int, error) {
	if score, ok := s.scoreCache.Get(ctx, userID); ok {
		return score, nil
	}
	score, err := s.userTaskRepo.UserScore(ctx, nil, userID)
	if err != nil {
		return 0, err
	}
	s.scoreCache.Set(ctx, userID, score)
	return score, nil
}

func toTaskProgress(results []domain.TaskResult, locked []bool) []TaskProgress {
	out := make([]TaskProgress, 0, len(results))
	for i, r := range results {
		match := 0.0
		if r.Cost > 0 {
			match = float64(r.Score) / float64(r.Cost)
		}
		out = append(out, TaskProgress{
			TaskID:   r.TaskID,
			ModuleID: r.ModuleID,
			Name:     r.Name,
			Order:    r.Order,
			Score:    r.Score,
			Match:    match,
			Accepted: r.Accepted,
			Rejected: r.Rejected,
			Locked:   locked[i],
		})
	}
	return out
}
