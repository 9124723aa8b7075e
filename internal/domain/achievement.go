package domain

import (
	"time"

	"github.com/google/uuid"
)

// Achievement is a static catalog entry; IDs are stable slugs so the catalog
// can live in configuration (config/achievements.yaml).
type Achievement struct {
	ID      string `gorm:"column:id;primaryKey" json:"id"`
	Name    string `gorm:"column:name;not null" json:"name"`
	Message string `gorm:"column:message;not null" json:"message"`
}

func (Achievement) TableName() string { return "achievements" }

// UserAchievement records a grant. The unique (user, achievement) index is
// the correctness mechanism for at-most-once granting; callers insert with
// conflict-ignore semantics.
type UserAchievement struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index:idx_user_achievement,unique" json:"user_id"`
	AchievementID string    `gorm:"column:achievement_id;not null;index:idx_user_achievement,unique" json:"achievement_id"`
	At            time.Time `gorm:"column:at;not null" json:"at"`
	Viewed        bool      `gorm:"column:viewed;not null;default:false" json:"viewed"`
}

func (UserAchievement) TableName() string { return "user_achievements" }

// EarnedAchievement is the notification view of a grant.
type EarnedAchievement struct {
	AchievementID string    `json:"achievement_id"`
	Name          string    `json:"name"`
	Message       string    `json:"message"`
	At            time.Time `json:"at"`
}
