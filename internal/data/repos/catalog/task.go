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

type TaskRepo interface {
	Create(ctx context.Context, tx *gorm.DB, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, tx *gorm.DB, task *domain.Task) error
	SetVisibility(ctx context.Context, tx *gorm.DB, id uuid.UUID, visible bool) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Task, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*domain.Task, error)
	LastOrder(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (int, error)
	ListByModule(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*domain.Task, error)
	List(ctx context.Context, tx *gorm.DB) ([]*domain.Task, error)
	CountVotes(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, liked bool) (int, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (r *taskRepo) Create(ctx context.Context, tx *gorm.DB, task *domain.Task) (*domain.Task, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if err := t.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepo) Update(ctx context.Context, tx *gorm.DB, task *domain.Task) error {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
		"name":                   task.Name,
		"module_id":              task.ModuleID,
		"threshold":              task.Threshold,
		"cost":                   task.Cost,
		"visibility":             task.Visibility,
		"animated":               task.Animated,
		"animation_steps":        task.AnimationSteps,
		"animation_step_time":    task.AnimationStepTime,
		"vertex_code_editable":   task.VertexCodeEditable,
		"fragment_code_editable": task.FragmentCodeEditable,
		"data":                   task.Data,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *taskRepo) SetVisibility(ctx context.Context, tx *gorm.DB, id uuid.UUID, visible bool) error {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).Update("visibility", visible)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *taskRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Task, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out domain.Task
	err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *taskRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*domain.Task, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out domain.Task
	err := t.WithContext(ctx).Where("name = ?", name).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *taskRepo) LastOrder(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var order *int
	err := t.WithContext(ctx).Model(&domain.Task{}).
		Where("module_id = ?", moduleID).
		Select("MAX(display_order)").
		Scan(&order).Error
	if err != nil {
		return -1, err
	}
	if order == nil {
		return -1, nil
	}
	return *order, nil
}

func (r *taskRepo) ListByModule(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*domain.Task, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Task
	err := t.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("display_order ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *taskRepo) List(ctx context.Context, tx *gorm.DB) ([]*domain.Task, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Task
	err := t.WithContext(ctx).
		Joins("JOIN modules ON modules.id = tasks.module_id AND modules.deleted_at IS NULL").
		Order("modules.display_order ASC, tasks.display_order ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *taskRepo) CountVotes(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, liked bool) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	err := t.WithContext(ctx).Model(&domain.UserTask{}).
		Where("task_id = ? AND liked = ?", taskID, liked).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
