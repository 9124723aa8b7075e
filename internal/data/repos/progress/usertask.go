package progress

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

type UserTaskRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*domain.UserTask, error)
	UpsertMerge(ctx context.Context, tx *gorm.DB, ut *domain.UserTask) (*domain.UserTask, error)
	SetLiked(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID, liked bool) error
	ModuleTaskResults(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) ([]domain.TaskResult, error)
	TaskResults(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]domain.TaskResult, error)
	FindNext(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.TaskResult, error)
	NextModuleTask(ctx context.Context, tx *gorm.DB, userID, fromTaskID uuid.UUID) (*domain.TaskResult, error)
	UserScore(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
}

type userTaskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTaskRepo(db *gorm.DB, baseLog *logger.Logger) UserTaskRepo {
	return &userTaskRepo{db: db, log: baseLog.With("repo", "UserTaskRepo")}
}

func (r *userTaskRepo) Get(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*domain.UserTask, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out domain.UserTask
	err := t.WithContext(ctx).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpsertMerge inserts the row or merges it into the existing one in a single
// statement, so concurrent submissions for the same (user, task) pair cannot
// lose progress: score only grows, accepted never reverts, accepted_at keeps
// its first value.
func (r *userTaskRepo) UpsertMerge(ctx context.Context, tx *gorm.DB, ut *domain.UserTask) (*domain.UserTask, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if ut.ID == uuid.Nil {
		ut.ID = uuid.New()
	}
	now := time.Now().UTC()
	if ut.CreatedAt.IsZero() {
		ut.CreatedAt = now
	}
	ut.UpdatedAt = now
	if ut.Accepted && ut.AcceptedAt == nil {
		ut.AcceptedAt = &now
	}
	err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "task_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"score":       gorm.Expr("GREATEST(user_tasks.score, EXCLUDED.score)"),
			"accepted":    gorm.Expr("user_tasks.accepted OR EXCLUDED.accepted"),
			"rejected":    gorm.Expr("EXCLUDED.rejected AND NOT (user_tasks.accepted OR EXCLUDED.accepted)"),
			"accepted_at": gorm.Expr("COALESCE(user_tasks.accepted_at, EXCLUDED.accepted_at)"),
			"data":        gorm.Expr("EXCLUDED.data"),
			"updated_at":  gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(ut).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, t, ut.UserID, ut.TaskID)
}

func (r *userTaskRepo) SetLiked(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID, liked bool) error {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).Model(&domain.UserTask{}).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Update("liked", liked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

const taskResultColumns = `tasks.id AS task_id,
tasks.module_id AS module_id,
tasks.name AS name,
tasks.display_order AS "order",
tasks.cost AS cost,
COALESCE(user_tasks.score, 0) AS score,
COALESCE(user_tasks.accepted, FALSE) AS accepted,
COALESCE(user_tasks.rejected, FALSE) AS rejected`

// ModuleTaskResults reports every visible task of the module, joined with the
// calling user's progress where it exists, in display order.
func (r *userTaskRepo) ModuleTaskResults(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) ([]domain.TaskResult, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []domain.TaskResult
	err := t.WithContext(ctx).Model(&domain.Task{}).
		Select(taskResultColumns).
		Joins("LEFT JOIN user_tasks ON user_tasks.task_id = tasks.id AND user_tasks.user_id = ?", userID).
		Where("tasks.module_id = ? AND tasks.visibility = TRUE AND tasks.deleted_at IS NULL", moduleID).
		Order("tasks.display_order ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userTaskRepo) TaskResults(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]domain.TaskResult, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []domain.TaskResult
	err := t.WithContext(ctx).Model(&domain.Task{}).
		Select(taskResultColumns).
		Joins("JOIN modules ON modules.id = tasks.module_id AND modules.deleted_at IS NULL").
		Joins("LEFT JOIN user_tasks ON user_tasks.task_id = tasks.id AND user_tasks.user_id = ?", userID).
		Where("tasks.visibility = TRUE AND tasks.deleted_at IS NULL").
		Order("modules.display_order ASC, tasks.display_order ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindNext returns the first visible task, in global module/task order, that
// the user has not accepted yet. ErrNotFound means everything is done.
func (r *userTaskRepo) FindNext(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.TaskResult, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out domain.TaskResult
	res := t.WithContext(ctx).Model(&domain.Task{}).
		Select(taskResultColumns).
		Joins("JOIN modules ON modules.id = tasks.module_id AND modules.deleted_at IS NULL").
		Joins("LEFT JOIN user_tasks ON user_tasks.task_id = tasks.id AND user_tasks.user_id = ?", userID).
		Where("tasks.visibility = TRUE AND tasks.deleted_at IS NULL").
		Where("COALESCE(user_tasks.accepted, FALSE) = FALSE").
		Order("modules.display_order ASC, tasks.display_order ASC").
		Limit(1).
		Scan(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.ErrNotFound
	}
	return &out, nil
}

// NextModuleTask returns the first visible, not-yet-accepted task at or after
// the module containing fromTaskID, in (module order, task order). ErrNotFound
// means the user has exhausted every visible task from that point on.
func (r *userTaskRepo) NextModuleTask(ctx context.Context, tx *gorm.DB, userID, fromTaskID uuid.UUID) (*domain.TaskResult, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out domain.TaskResult
	res := t.WithContext(ctx).Model(&domain.Task{}).
		Select(taskResultColumns).
		Joins("JOIN modules ON modules.id = tasks.module_id AND modules.deleted_at IS NULL").
		Joins("LEFT JOIN user_tasks ON user_tasks.task_id = tasks.id AND user_tasks.user_id = ?", userID).
		Where(`modules.display_order >= (
			SELECT m.display_order FROM modules m
			JOIN tasks t ON t.module_id = m.id
			WHERE t.id = ?)`, fromTaskID).
		Where("tasks.visibility = TRUE AND tasks.deleted_at IS NULL").
		Where("COALESCE(user_tasks.accepted, FALSE) = FALSE").
		Order("modules.display_order ASC, tasks.display_order ASC").
		Limit(1).
		Scan(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.ErrNotFound
	}
	return &out, nil
}

func (r *userTaskRepo) UserScore(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var score *int
	err := t.WithContext(ctx).Model(&domain.UserTask{}).
		Joins("JOIN tasks ON tasks.id = user_tasks.task_id").
		Where("user_tasks.user_id = ? AND user_tasks.accepted = TRUE", userID).
		Where("tasks.visibility = TRUE AND tasks.deleted_at IS NULL").
		Select("SUM(user_tasks.score)").
		Scan(&score).Error
	if err != nil {
		return 0, err
	}
	if score == nil {
		return 0, nil
	}
	return *score, nil
}
