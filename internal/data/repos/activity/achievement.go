package activity

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

type AchievementRepo interface {
	UpsertCatalog(ctx context.Context, tx *gorm.DB, achievements []domain.Achievement) error
	Get(ctx context.Context, tx *gorm.DB, id string) (*domain.Achievement, error)
	Grant(ctx context.Context, tx *gorm.DB, userID uuid.UUID, achievementID string, at time.Time) (bool, error)
	EarnedIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error)
	ListEarned(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]domain.EarnedAchievement, error)
	ListUnviewed(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]domain.EarnedAchievement, error)
	MarkViewed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, achievementID string) error
}

type achievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return &achievementRepo{db: db, log: baseLog.With("repo", "AchievementRepo")}
}

// UpsertCatalog syncs the achievement definitions at startup. Name and message
// follow the config file; grants reference rows here by slug.
func (r *achievementRepo) UpsertCatalog(ctx context.Context, tx *gorm.DB, achievements []domain.Achievement) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(achievements) == 0 {
		return nil
	}
	return t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "message"}),
	}).Create(&achievements).Error
}

func (r *achievementRepo) Get(ctx context.Context, tx *gorm.DB, id string) (*domain.Achievement, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out domain.Achievement
	err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Grant inserts the user/achievement pair and reports whether this call
// created it. The unique index plus ON CONFLICT DO NOTHING makes the grant
// at-most-once even under concurrent dispatches.
func (r *achievementRepo) Grant(ctx context.Context, tx *gorm.DB, userID uuid.UUID, achievementID string, at time.Time) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	ua := domain.UserAchievement{
		ID:            uuid.New(),
		UserID:        userID,
		AchievementID: achievementID,
		At:            at,
	}
	res := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(&ua)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *achievementRepo) EarnedIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []string
	err := t.WithContext(ctx).Model(&domain.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

const earnedColumns = `achievements.id AS achievement_id,
achievements.name AS name,
achievements.message AS message,
user_achievements.at AS at`

func (r *achievementRepo) ListEarned(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]domain.EarnedAchievement, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []domain.EarnedAchievement
	err := t.WithContext(ctx).Model(&domain.UserAchievement{}).
		Select(earnedColumns).
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ?", userID).
		Order("user_achievements.at ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *achievementRepo) ListUnviewed(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]domain.EarnedAchievement, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []domain.EarnedAchievement
	err := t.WithContext(ctx).Model(&domain.UserAchievement{}).
		Select(earnedColumns).
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ? AND user_achievements.viewed = FALSE", userID).
		Order("user_achievements.at ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *achievementRepo) MarkViewed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, achievementID string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).Model(&domain.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Update("viewed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}
