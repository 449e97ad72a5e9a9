package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/ledger"
)

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Terminal() bool { return s == StatusAccepted || s == StatusRejected }

const (
	ColID          = "application_id"
	ColApplicantID = "application_applicant_id"
	ColModuleID    = "application_module_id"
	ColStatus      = "application_status"
	ColVersion     = "application_version"
	ColDocsCounted = "application_docs_counted"
	ColAppointed   = "application_appointed"
)

// ApplicationModel represents table `applications`: one applicant's bid for
// one module recruitment. (applicant, module) is unique.
type ApplicationModel struct {
	ApplicationID          uuid.UUID `json:"id"          gorm:"column:application_id;type:uuid;primaryKey"`
	ApplicationApplicantID uuid.UUID `json:"applicantId" gorm:"column:application_applicant_id;type:uuid;not null;uniqueIndex:uq_applications_applicant_module;index:idx_applications_applicant"`
	ApplicationModuleID    uuid.UUID `json:"moduleId"    gorm:"column:application_module_id;type:uuid;not null;uniqueIndex:uq_applications_applicant_module;index:idx_applications_module_status,priority:1"`
	ApplicationSeriesID    uuid.UUID `json:"recSeriesId" gorm:"column:application_series_id;type:uuid;not null"`

	// role at apply time; decides the counter bucket for the whole lifecycle
	ApplicationRole    ledger.Role       `json:"userRole" gorm:"column:application_role;size:16;not null"`
	ApplicationTAHours int               `json:"taHours"  gorm:"column:application_ta_hours;not null;default:0"`
	ApplicationStatus  ApplicationStatus `json:"status"   gorm:"column:application_status;size:16;not null;default:'pending';index:idx_applications_module_status,priority:2"`

	ApplicationApplicantName  *string `json:"applicantName,omitempty"  gorm:"column:application_applicant_name;size:120"`
	ApplicationApplicantEmail *string `json:"applicantEmail,omitempty" gorm:"column:application_applicant_email;size:200"`

	ApplicationDecidedBy    *uuid.UUID `json:"decidedBy,omitempty"    gorm:"column:application_decided_by;type:uuid"`
	ApplicationRejectReason *string    `json:"rejectReason,omitempty" gorm:"column:application_reject_reason"`

	// set once when this application's documents were counted into docSubmitted
	ApplicationDocsCounted bool `json:"docsCounted" gorm:"column:application_docs_counted;not null;default:false"`
	ApplicationAppointed   bool `json:"appointed"   gorm:"column:application_appointed;not null;default:false"`

	ApplicationVersion         int64     `json:"version"         gorm:"column:application_version;not null;default:1"`
	ApplicationStatusChangedAt time.Time `json:"statusChangedAt" gorm:"column:application_status_changed_at"`
	ApplicationCreatedAt       time.Time `json:"createdAt"       gorm:"column:application_created_at;autoCreateTime"`
	ApplicationUpdatedAt       time.Time `json:"updatedAt"       gorm:"column:application_updated_at;autoUpdateTime"`
}

func (ApplicationModel) TableName() string { return "applications" }

func (a *ApplicationModel) BeforeCreate(tx *gorm.DB) error {
	if a.ApplicationID == uuid.Nil {
		a.ApplicationID = uuid.New()
	}
	if a.ApplicationStatus == "" {
		a.ApplicationStatus = StatusPending
	}
	if a.ApplicationVersion == 0 {
		a.ApplicationVersion = 1
	}
	if a.ApplicationStatusChangedAt.IsZero() {
		a.ApplicationStatusChangedAt = time.Now()
	}
	return nil
}
