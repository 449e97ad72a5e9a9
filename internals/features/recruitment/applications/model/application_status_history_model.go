package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationStatusHistoryModel represents table `application_status_histories`.
// One row per status change, written in the same transaction as the change.
type ApplicationStatusHistoryModel struct {
	ApplicationStatusHistoryID            uuid.UUID          `json:"id"            gorm:"column:application_status_history_id;type:uuid;primaryKey"`
	ApplicationStatusHistoryApplicationID uuid.UUID          `json:"applicationId" gorm:"column:application_status_history_application_id;type:uuid;not null;index:idx_app_status_histories_app"`
	ApplicationStatusHistoryFrom          *ApplicationStatus `json:"from,omitempty" gorm:"column:application_status_history_from;size:16"`
	ApplicationStatusHistoryTo            ApplicationStatus  `json:"to"            gorm:"column:application_status_history_to;size:16;not null"`
	ApplicationStatusHistoryActorID       uuid.UUID          `json:"actorId"       gorm:"column:application_status_history_actor_id;type:uuid;not null"`
	ApplicationStatusHistoryNote          *string            `json:"note,omitempty" gorm:"column:application_status_history_note"`
	ApplicationStatusHistoryCreatedAt     time.Time          `json:"createdAt"     gorm:"column:application_status_history_created_at;autoCreateTime"`
}

func (ApplicationStatusHistoryModel) TableName() string { return "application_status_histories" }

func (h *ApplicationStatusHistoryModel) BeforeCreate(tx *gorm.DB) error {
	if h.ApplicationStatusHistoryID == uuid.Nil {
		h.ApplicationStatusHistoryID = uuid.New()
	}
	return nil
}
