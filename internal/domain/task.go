package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Task struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ModuleID uuid.UUID `gorm:"type:uuid;not null;index" json:"module_id"`
	Module   *Module   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	Name     string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Order    int       `gorm:"column:display_order;not null" json:"order"`
	// Cost is the maximum score; Threshold is the match percentage required
	// for acceptance.
	Cost       int     `gorm:"column:cost;not null" json:"cost"`
	Threshold  float64 `gorm:"column:threshold;not null" json:"threshold"`
	Visibility bool    `gorm:"column:visibility;not null;default:true" json:"visibility"`

	VertexCodeEditable   bool `gorm:"column:vertex_code_editable;not null;default:false" json:"vertex_code_editable"`
	FragmentCodeEditable bool `gorm:"column:fragment_code_editable;not null;default:true" json:"fragment_code_editable"`

	Animated          bool `gorm:"column:animated;not null;default:false" json:"animated"`
	AnimationSteps    int  `gorm:"column:animation_steps;not null;default:0" json:"animation_steps"`
	AnimationStepTime int  `gorm:"column:animation_step_time;not null;default:0" json:"animation_step_time"`

	CreatedBy uuid.UUID      `gorm:"type:uuid;column:created_by" json:"created_by"`
	Data      datatypes.JSON `gorm:"type:jsonb;column:data" json:"data"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Task) TableName() string { return "tasks" }

// TaskPayload is the shader payload stored in the task's data column. The
// reference shaders drive grading; the default shaders seed the editor.
type TaskPayload struct {
	VertexShader          string `json:"vertex_shader"`
	FragmentShader        string `json:"fragment_shader"`
	DefaultVertexShader   string `json:"default_vertex_shader"`
	DefaultFragmentShader string `json:"default_fragment_shader"`
	Description           string `json:"description"`
}

func (t *Task) Payload() (TaskPayload, error) {
	var p TaskPayload
	if len(t.Data) == 0 {
		return p, nil
	}
	err := json.Unmarshal(t.Data, &p)
	return p, err
}

func (t *Task) SetPayload(p TaskPayload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	t.Data = datatypes.JSON(raw)
	return nil
}
