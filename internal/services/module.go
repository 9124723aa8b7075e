package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/catalog"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

type CreateModuleInput struct {
	Name             string
	Description      string
	Locked           bool
	RandomTaskAccess bool
	CreatedBy        uuid.UUID
}

type ModuleService interface {
	Create(ctx context.Context, in CreateModuleInput) (*domain.Module, error)
	Update(ctx context.Context, module *domain.Module) (*domain.Module, error)
	Get(ctx context.Context, moduleID uuid.UUID) (*domain.Module, []*domain.Task, error)
	List(ctx context.Context) ([]*domain.Module, error)
}

type moduleService struct {
	db         *gorm.DB
	log        *logger.Logger
	moduleRepo catalogrepo.ModuleRepo
	taskRepo   catalogrepo.TaskRepo
}

func NewModuleService(
	db *gorm.DB,
	baseLog *logger.Logger,
	moduleRepo catalogrepo.ModuleRepo,
	taskRepo catalogrepo.TaskRepo,
) ModuleService {
	return &moduleService{
		db:         db,
		log:        baseLog.With("service", "ModuleService"),
		moduleRepo: moduleRepo,
		taskRepo:   taskRepo,
	}
}

func (s *moduleService) Create(ctx context.Context, in CreateModuleInput) (*domain.Module, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: module name required", pkgerrors.ErrInvalidArgument)
	}
	if _, err := s.moduleRepo.GetByName(ctx, nil, in.Name); err == nil {
		return nil, fmt.Errorf("%w: module name %q taken", pkgerrors.ErrConflict, in.Name)
	} else if !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, err
	}

	last, err := s.moduleRepo.LastOrder(ctx, nil)
	if err != nil {
		return nil, err
	}

	return s.moduleRepo.Create(ctx, nil, &domain.Module{
		Name:             in.Name,
		Description:      in.Description,
		Order:            last + 1,
		Locked:           in.Locked,
		RandomTaskAccess: in.RandomTaskAccess,
		CreatedBy:        in.CreatedBy,
	})
}

func (s *moduleService) Update(ctx context.Context, module *domain.Module) (*domain.Module, error) {
	existing, err := s.moduleRepo.GetByName(ctx, nil, module.Name)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != module.ID {
		return nil, fmt.Errorf("%w: module name %q taken", pkgerrors.ErrConflict, module.Name)
	}
	if err := s.moduleRepo.Update(ctx, nil, module); err != nil {
		return nil, err
	}
	return s.moduleRepo.GetByID(ctx, nil, module.ID)
}

func (s *moduleService) Get(ctx context.Context, moduleID uuid.UUID) (*domain.Module, []*domain.Task, error) {
	module, err := s.moduleRepo.GetByID(ctx, nil, moduleID)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := s.taskRepo.ListByModule(ctx, nil, moduleID)
	if err != nil {
		return nil, nil, err
	}
	return module, tasks, nil
}

func (s *moduleService) List(ctx context.Context) ([]*domain.Module, error) {
	return s.moduleRepo.List(ctx, nil)
}
