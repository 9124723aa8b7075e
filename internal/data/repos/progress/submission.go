package progress

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

// SubmissionRepo records every submission attempt. Rows are append-only; the
// merged per-task state lives in user_tasks.
type SubmissionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sub *domain.UserTaskSubmission) (*domain.UserTaskSubmission, error)
	ListByUserTask(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) ([]*domain.UserTaskSubmission, error)
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return &submissionRepo{db: db, log: baseLog.With("repo", "SubmissionRepo")}
}

func (r *submissionRepo) Create(ctx context.Context, tx *gorm.DB, sub *domain.UserTaskSubmission) (*domain.UserTaskSubmission, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if err := t.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *submissionRepo) ListByUserTask(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) ([]*domain.UserTaskSubmission, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.UserTaskSubmission
	err := t.WithContext(ctx).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Order("at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
