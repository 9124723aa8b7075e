package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

type FeedbackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, fb *domain.TaskFeedback) (*domain.TaskFeedback, error)
	ListByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*domain.TaskFeedback, error)
}

type feedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRepo {
	return &feedbackRepo{db: db, log: baseLog.With("repo", "FeedbackRepo")}
}

func (r *feedbackRepo) Create(ctx context.Context, tx *gorm.DB, fb *domain.TaskFeedback) (*domain.TaskFeedback, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}
	if err := t.WithContext(ctx).Create(fb).Error; err != nil {
		return nil, err
	}
	return fb, nil
}

func (r *feedbackRepo) ListByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*domain.TaskFeedback, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.TaskFeedback
	err := t.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
