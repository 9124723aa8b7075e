package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityKind is the typed kind of a recorded user action.
type ActivityKind string

const (
	ActivitySignedIn           ActivityKind = "signed_in"
	ActivityTaskOpened         ActivityKind = "task_opened"
	ActivityTaskSubmitted      ActivityKind = "task_submitted"
	ActivityTaskSubmitAccepted ActivityKind = "task_submit_accepted"
)

// UserActivity is the append-only activity event log.
type UserActivity struct {
	ID     uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID    `gorm:"type:uuid;not null;index:idx_activity_user_at" json:"user_id"`
	Kind   ActivityKind `gorm:"column:kind;not null;index" json:"kind"`
	At     time.Time    `gorm:"column:at;not null;index:idx_activity_user_at" json:"at"`
}

func (UserActivity) TableName() string { return "user_activity" }
