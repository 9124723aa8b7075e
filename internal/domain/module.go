package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Module struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	Order       int       `gorm:"column:display_order;not null" json:"order"`
	Locked      bool      `gorm:"column:locked;not null;default:false" json:"locked"`
	// RandomTaskAccess disables sequential task locking within the module.
	RandomTaskAccess bool           `gorm:"column:random_task_access;not null;default:false" json:"random_task_access"`
	CreatedBy        uuid.UUID      `gorm:"type:uuid;column:created_by" json:"created_by"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Module) TableName() string { return "modules" }

// ModuleProgress is the read model for the module list with per-user
// acceptance counts.
type ModuleProgress struct {
	ModuleID      uuid.UUID `json:"module_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Order         int       `json:"order"`
	Locked        bool      `json:"locked"`
	Tasks         int       `json:"tasks"`
	AcceptedTasks int       `json:"accepted_tasks"`
}
