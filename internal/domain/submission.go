package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserTaskSubmission is the append-only audit trail: one row per attempt
// with the attempt's raw outcome, never the merged best record.
type UserTaskSubmission struct {
	ID       uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_submission_user_task" json:"user_id"`
	TaskID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_submission_user_task" json:"task_id"`
	Score    int            `gorm:"column:score;not null;default:0" json:"score"`
	Accepted bool           `gorm:"column:accepted;not null;default:false" json:"accepted"`
	Data     datatypes.JSON `gorm:"type:jsonb;column:data" json:"data"`
	At       time.Time      `gorm:"column:at;not null;index" json:"at"`
}

func (UserTaskSubmission) TableName() string { return "user_task_submissions" }

func (s *UserTaskSubmission) Payload() (UserTaskPayload, error) {
	var p UserTaskPayload
	if len(s.Data) == 0 {
		return p, nil
	}
	err := json.Unmarshal(s.Data, &p)
	return p, err
}

func (s *UserTaskSubmission) SetPayload(p UserTaskPayload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	s.Data = datatypes.JSON(raw)
	return nil
}
