package domain

import (
	"time"

	"github.com/google/uuid"
)

type TaskFeedback struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	TaskID             uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	UnclearDescription bool      `gorm:"column:unclear_description;not null;default:false" json:"unclear_description"`
	StrictRuntime      bool      `gorm:"column:strict_runtime;not null;default:false" json:"strict_runtime"`
	Other              bool      `gorm:"column:other;not null;default:false" json:"other"`
	Message            string    `gorm:"column:message" json:"message"`
	CreatedAt          time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (TaskFeedback) TableName() string { return "task_feedback" }
