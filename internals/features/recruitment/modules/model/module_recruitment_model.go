// file: internals/features/recruitment/modules/model/module_recruitment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/ledger"
	"taportal_backend/internals/features/recruitment/modules/status"
)

const (
	colPrefix = "module_recruitment_"

	ColID      = colPrefix + "id"
	ColStatus  = colPrefix + "status"
	ColVersion = colPrefix + "version"
	ColSeries  = colPrefix + "series_id"
	ColUpdated = colPrefix + "updated_at"
)

// ModuleRecruitmentModel represents table `module_recruitments`: one module's
// TA hiring round inside a recruitment series, with its quota ledger embedded.
type ModuleRecruitmentModel struct {
	ModuleRecruitmentID       uuid.UUID `json:"moduleId"    gorm:"column:module_recruitment_id;type:uuid;primaryKey"`
	ModuleRecruitmentSeriesID uuid.UUID `json:"recSeriesId" gorm:"column:module_recruitment_series_id;type:uuid;not null;index:idx_module_recruitments_series"`

	ModuleRecruitmentCode     string `json:"moduleCode" gorm:"column:module_recruitment_code;size:32;not null"`
	ModuleRecruitmentName     string `json:"moduleName" gorm:"column:module_recruitment_name;size:200;not null"`
	ModuleRecruitmentSemester string `json:"semester"   gorm:"column:module_recruitment_semester;size:16"`
	ModuleRecruitmentYear     int    `json:"year"       gorm:"column:module_recruitment_year"`

	// weekly hours expected from each TA
	ModuleRecruitmentRequiredHours int `json:"requiredTAHours" gorm:"column:module_recruitment_required_hours;not null;default:0"`

	ModuleRecruitmentOpenForUndergraduates bool `json:"openForUndergraduates" gorm:"column:module_recruitment_open_for_undergraduates;not null;default:false"`
	ModuleRecruitmentOpenForPostgraduates  bool `json:"openForPostgraduates"  gorm:"column:module_recruitment_open_for_postgraduates;not null;default:false"`

	ModuleRecruitmentUndergraduateCounts ledger.Counts `json:"undergraduateCounts" gorm:"embedded;embeddedPrefix:module_recruitment_ug_"`
	ModuleRecruitmentPostgraduateCounts  ledger.Counts `json:"postgraduateCounts"  gorm:"embedded;embeddedPrefix:module_recruitment_pg_"`

	ModuleRecruitmentStatus  status.Stage `json:"moduleStatus" gorm:"column:module_recruitment_status;size:32;not null;index:idx_module_recruitments_status"`
	ModuleRecruitmentVersion int64        `json:"version"      gorm:"column:module_recruitment_version;not null;default:1"`

	ModuleRecruitmentCreatedAt time.Time `json:"createdAt" gorm:"column:module_recruitment_created_at;autoCreateTime"`
	ModuleRecruitmentUpdatedAt time.Time `json:"updatedAt" gorm:"column:module_recruitment_updated_at;autoUpdateTime"`

	Coordinators []ModuleCoordinatorModel `json:"coordinators,omitempty" gorm:"foreignKey:ModuleCoordinatorModuleID;references:ModuleRecruitmentID"`
}

func (ModuleRecruitmentModel) TableName() string { return "module_recruitments" }

func (m *ModuleRecruitmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.ModuleRecruitmentID == uuid.Nil {
		m.ModuleRecruitmentID = uuid.New()
	}
	if m.ModuleRecruitmentStatus == "" {
		m.ModuleRecruitmentStatus = status.Initialised
	}
	if m.ModuleRecruitmentVersion == 0 {
		m.ModuleRecruitmentVersion = 1
	}
	return nil
}

// Ledger extracts the quota state.
func (m *ModuleRecruitmentModel) Ledger() ledger.Ledger {
	return ledger.Ledger{
		OpenForUndergraduates: m.ModuleRecruitmentOpenForUndergraduates,
		OpenForPostgraduates:  m.ModuleRecruitmentOpenForPostgraduates,
		Undergraduate:         m.ModuleRecruitmentUndergraduateCounts,
		Postgraduate:          m.ModuleRecruitmentPostgraduateCounts,
	}
}

func (m *ModuleRecruitmentModel) SetLedger(l ledger.Ledger) {
	m.ModuleRecruitmentOpenForUndergraduates = l.OpenForUndergraduates
	m.ModuleRecruitmentOpenForPostgraduates = l.OpenForPostgraduates
	m.ModuleRecruitmentUndergraduateCounts = l.Undergraduate
	m.ModuleRecruitmentPostgraduateCounts = l.Postgraduate
}

func (m *ModuleRecruitmentModel) IsCoordinator(lecturerID uuid.UUID) bool {
	for _, c := range m.Coordinators {
		if c.ModuleCoordinatorLecturerID == lecturerID {
			return true
		}
	}
	return false
}

// CountColumn is the column holding field of role's counter bucket,
// e.g. module_recruitment_pg_remaining.
func CountColumn(role ledger.Role, field string) string {
	return colPrefix + role.Short() + "_" + field
}

// OpenColumn is the eligibility flag column for role.
func OpenColumn(role ledger.Role) string {
	if role == ledger.Postgraduate {
		return colPrefix + "open_for_postgraduates"
	}
	return colPrefix + "open_for_undergraduates"
}
