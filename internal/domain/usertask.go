package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserTask is the current-best record for a (user, task) pair. Score never
// decreases and Accepted never reverts to false; AcceptedAt is written once,
// on first acceptance.
type UserTask struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_task,unique" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	TaskID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_task,unique" json:"task_id"`
	Task   *Task     `gorm:"constraint:OnDelete:CASCADE;foreignKey:TaskID;references:ID" json:"task,omitempty"`

	Score    int  `gorm:"column:score;not null;default:0" json:"score"`
	Accepted bool `gorm:"column:accepted;not null;default:false" json:"accepted"`
	Rejected bool `gorm:"column:rejected;not null;default:false" json:"rejected"`
	// Liked is a tri-state: nil (no vote), true (like), false (dislike).
	Liked      *bool          `gorm:"column:liked" json:"liked,omitempty"`
	AcceptedAt *time.Time     `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	Data       datatypes.JSON `gorm:"type:jsonb;column:data" json:"data"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserTask) TableName() string { return "user_tasks" }

// UserTaskPayload holds the user's last-submitted editable sources.
type UserTaskPayload struct {
	VertexShader   string `json:"vertex_shader"`
	FragmentShader string `json:"fragment_shader"`
}

func (ut *UserTask) Payload() (UserTaskPayload, error) {
	var p UserTaskPayload
	if len(ut.Data) == 0 {
		return p, nil
	}
	err := json.Unmarshal(ut.Data, &p)
	return p, err
}

func (ut *UserTask) SetPayload(p UserTaskPayload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	ut.Data = datatypes.JSON(raw)
	return nil
}

// TaskResult is the read model for progression queries: one row per visible
// task, joined with the user's current-best record when one exists.
type TaskResult struct {
	TaskID   uuid.UUID `json:"task_id"`
	ModuleID uuid.UUID `json:"module_id"`
	Name     string    `json:"name"`
	Order    int       `json:"order"`
	Cost     int       `json:"cost"`
	Score    int       `json:"score"`
	Accepted bool      `json:"accepted"`
	Rejected bool      `json:"rejected"`
}
