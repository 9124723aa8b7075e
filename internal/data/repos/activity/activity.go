package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

type ActivityRepo interface {
	Save(ctx context.Context, tx *gorm.DB, ev *domain.UserActivity) (*domain.UserActivity, error)
	CountByKinds(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kinds []domain.ActivityKind) (int, error)
	FirstByKinds(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kinds []domain.ActivityKind) (*domain.UserActivity, error)
	InIntervalByKinds(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kinds []domain.ActivityKind, from, to time.Time) ([]*domain.UserActivity, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) Save(ctx context.Context, tx *gorm.DB, ev *domain.UserActivity) (*domain.UserActivity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := t.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *activityRepo) CountByKinds(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kinds []domain.ActivityKind) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	err := t.WithContext(ctx).Model(&domain.UserActivity{}).
		Where("user_id = ? AND kind IN ?", userID, kinds).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *activityRepo) FirstByKinds(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kinds []domain.ActivityKind) (*domain.UserActivity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out domain.UserActivity
	err := t.WithContext(ctx).
		Where("user_id = ? AND kind IN ?", userID, kinds).
		Order("at ASC").
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *activityRepo) InIntervalByKinds(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kinds []domain.ActivityKind, from, to time.Time) ([]*domain.UserActivity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.UserActivity
	err := t.WithContext(ctx).
		Where("user_id = ? AND kind IN ? AND at >= ? AND at < ?", userID, kinds, from, to).
		Order("at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
