package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

type ModuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, module *domain.Module) (*domain.Module, error)
	Update(ctx context.Context, tx *gorm.DB, module *domain.Module) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Module, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*domain.Module, error)
	LastOrder(ctx context.Context, tx *gorm.DB) (int, error)
	List(ctx context.Context, tx *gorm.DB) ([]*domain.Module, error)
	ListWithUserProgress(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]domain.ModuleProgress, error)
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return &moduleRepo{db: db, log: baseLog.With("repo", "ModuleRepo")}
}

func (r *moduleRepo) Create(ctx context.Context, tx *gorm.DB, module *domain.Module) (*domain.Module, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if module.ID == uuid.Nil {
		module.ID = uuid.New()
	}
	if err := t.WithContext(ctx).Create(module).Error; err != nil {
		return nil, err
	}
	return module, nil
}

func (r *moduleRepo) Update(ctx context.Context, tx *gorm.DB, module *domain.Module) error {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).Model(&domain.Module{}).Where("id = ?", module.ID).Updates(map[string]interface{}{
		"name":               module.Name,
		"description":        module.Description,
		"display_order":      module.Order,
		"locked":             module.Locked,
		"random_task_access": module.RandomTaskAccess,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *moduleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Module, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out domain.Module
	err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *moduleRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*domain.Module, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out domain.Module
	err := t.WithContext(ctx).Where("name = ?", name).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *moduleRepo) LastOrder(ctx context.Context, tx *gorm.DB) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var order *int
	err := t.WithContext(ctx).Model(&domain.Module{}).Select("MAX(display_order)").Scan(&order).Error
	if err != nil {
		return -1, err
	}
	if order == nil {
		return -1, nil
	}
	return *order, nil
}

func (r *moduleRepo) List(ctx context.Context, tx *gorm.DB) ([]*domain.Module, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Module
	if err := t.WithContext(ctx).Order("display_order ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleRepo) ListWithUserProgress(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]domain.ModuleProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []domain.ModuleProgress
	err := t.WithContext(ctx).Model(&domain.Module{}).
		Select(`modules.id AS module_id,
			modules.name,
			modules.description,
			modules.display_order AS "order",
			modules.locked,
			COUNT(tasks.id) AS tasks,
			COUNT(user_tasks.id) FILTER (WHERE user_tasks.accepted) AS accepted_tasks`).
		Joins("LEFT JOIN tasks ON tasks.module_id = modules.id AND tasks.visibility = true AND tasks.deleted_at IS NULL").
		Joins("LEFT JOIN user_tasks ON user_tasks.task_id = tasks.id AND user_tasks.user_id = ?", userID).
		Group("modules.id, modules.name, modules.description, modules.display_order, modules.locked").
		Order("modules.display_order ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
