package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModuleCoordinatorModel represents table `module_coordinators`: lecturers
// allowed to accept/reject applications for a module recruitment.
type ModuleCoordinatorModel struct {
	ModuleCoordinatorID         uuid.UUID `json:"id"         gorm:"column:module_coordinator_id;type:uuid;primaryKey"`
	ModuleCoordinatorModuleID   uuid.UUID `json:"moduleId"   gorm:"column:module_coordinator_module_id;type:uuid;not null;uniqueIndex:uq_module_coordinators_module_lecturer"`
	ModuleCoordinatorLecturerID uuid.UUID `json:"lecturerId" gorm:"column:module_coordinator_lecturer_id;type:uuid;not null;uniqueIndex:uq_module_coordinators_module_lecturer;index:idx_module_coordinators_lecturer"`
	ModuleCoordinatorName       *string   `json:"name,omitempty" gorm:"column:module_coordinator_name;size:120"`
	ModuleCoordinatorEmail      *string   `json:"email,omitempty" gorm:"column:module_coordinator_email;size:200"`
	ModuleCoordinatorCreatedAt  time.Time `json:"createdAt"  gorm:"column:module_coordinator_created_at;autoCreateTime"`
}

func (ModuleCoordinatorModel) TableName() string { return "module_coordinators" }

func (m *ModuleCoordinatorModel) BeforeCreate(tx *gorm.DB) error {
	if m.ModuleCoordinatorID == uuid.Nil {
		m.ModuleCoordinatorID = uuid.New()
	}
	return nil
}
