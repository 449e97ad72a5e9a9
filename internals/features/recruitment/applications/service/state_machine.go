package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taportal_backend/internals/features/recruitment/applications/model"
	"taportal_backend/internals/features/recruitment/ledger"
	modsvc "taportal_backend/internals/features/recruitment/modules/service"
	"taportal_backend/internals/features/recruitment/modules/status"
	"taportal_backend/internals/features/recruitment/notifications"
	"taportal_backend/internals/helpers/apperror"
)

type ApplyInput struct {
	ApplicantID    uuid.UUID
	ModuleID       uuid.UUID
	SeriesID       uuid.UUID // optional; checked against the module when set
	Role           ledger.Role
	TAHours        int // 0 means the module's required hours
	ApplicantName  string
	ApplicantEmail string
}

// StateMachine owns application status changes. Each transition writes the
// application row and the module ledger in one transaction.
type StateMachine struct {
	DB       *gorm.DB
	Ledger   modsvc.LedgerStore
	Notifier notifications.Dispatcher
}

func NewStateMachine(db *gorm.DB, notifier notifications.Dispatcher) *StateMachine {
	if notifier == nil {
		notifier = notifications.LogDispatcher{}
	}
	return &StateMachine{DB: db, Ledger: modsvc.NewLedgerStore(), Notifier: notifier}
}

func FindApplication(tx *gorm.DB, id uuid.UUID) (*model.ApplicationModel, error) {
	var a model.ApplicationModel
	if err := tx.Where(model.ColID+" = ?", id).Take(&a).Error; err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.New(apperror.CodeApplicationNotFound, "application not found")
		}
		return nil, apperror.FromStorage(err, "failed to load application")
	}
	return &a, nil
}

func writeHistory(tx *gorm.DB, appID uuid.UUID, from *model.ApplicationStatus, to model.ApplicationStatus, actor uuid.UUID, note string) error {
	h := model.ApplicationStatusHistoryModel{
		ApplicationStatusHistoryApplicationID: appID,
		ApplicationStatusHistoryFrom:          from,
		ApplicationStatusHistoryTo:            to,
		ApplicationStatusHistoryActorID:       actor,
	}
	if note = strings.TrimSpace(note); note != "" {
		h.ApplicationStatusHistoryNote = &note
	}
	if err := tx.Create(&h).Error; err != nil {
		return apperror.FromStorage(err, "failed to write status history")
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Apply creates a pending application and claims a slot on the module for
// the applicant's role.
func (s *StateMachine) Apply(ctx context.Context, in ApplyInput) (*model.ApplicationModel, error) {
	if in.ApplicantID == uuid.Nil || in.ModuleID == uuid.Nil {
		return nil, apperror.Validation("applicant and module are required", map[string]string{"moduleId": "required"})
	}
	if !in.Role.Valid() {
		return nil, apperror.New(apperror.CodeRoleNotEligible, "only undergraduate or postgraduate applicants can apply")
	}
	if in.TAHours < 0 {
		return nil, apperror.Validation("invalid taHours", map[string]string{"taHours": "min 0"})
	}

	var app *model.ApplicationModel
	var mod string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := modsvc.FindModule(tx, in.ModuleID)
		if err != nil {
			return err
		}
		mod = m.ModuleRecruitmentCode
		if err := status.Guard(m.ModuleRecruitmentStatus, status.OpApply); err != nil {
			return err
		}
		if !m.Ledger().IsOpen(in.Role) {
			return apperror.Newf(apperror.CodeRoleNotEligible, "module %s is not open to %s applicants", m.ModuleRecruitmentCode, in.Role)
		}
		if in.SeriesID != uuid.Nil && in.SeriesID != m.ModuleRecruitmentSeriesID {
			return apperror.Validation("recruitment series mismatch", map[string]string{
				"recSeriesId": "does not match the module's recruitment series",
			})
		}
		hours := in.TAHours
		if hours == 0 {
			hours = m.ModuleRecruitmentRequiredHours
		}
		if m.ModuleRecruitmentRequiredHours > 0 && hours > m.ModuleRecruitmentRequiredHours {
			return apperror.Validation("too many hours requested", map[string]string{
				"taHours": "must not exceed the module's required weekly hours",
			})
		}

		var existing int64
		if err := tx.Model(&model.ApplicationModel{}).
			Where(model.ColApplicantID+" = ? AND "+model.ColModuleID+" = ?", in.ApplicantID, in.ModuleID).
			Count(&existing).Error; err != nil {
			return apperror.FromStorage(err, "failed to check existing application")
		}
		if existing > 0 {
			return apperror.New(apperror.CodeDuplicateApplication, "you have already applied to this module")
		}

		if err := s.Ledger.ClaimApplication(tx, in.ModuleID, in.Role); err != nil {
			return err
		}

		app = &model.ApplicationModel{
			ApplicationApplicantID:    in.ApplicantID,
			ApplicationModuleID:       in.ModuleID,
			ApplicationSeriesID:       m.ModuleRecruitmentSeriesID,
			ApplicationRole:           in.Role,
			ApplicationTAHours:        hours,
			ApplicationStatus:         model.StatusPending,
			ApplicationApplicantName:  optional(in.ApplicantName),
			ApplicationApplicantEmail: optional(in.ApplicantEmail),
		}
		if err := tx.Create(app).Error; err != nil {
			if apperror.IsUniqueViolation(err) {
				return apperror.New(apperror.CodeDuplicateApplication, "you have already applied to this module")
			}
			return apperror.FromStorage(err, "failed to create application")
		}
		return writeHistory(tx, app.ApplicationID, nil, model.StatusPending, in.ApplicantID, "")
	})
	if err != nil {
		log.Printf("[APPLY] FAIL applicant=%s module=%s role=%s err=%v", in.ApplicantID, in.ModuleID, in.Role, err)
		return nil, err
	}

	log.Printf("[APPLY] OK application=%s applicant=%s module=%s role=%s", app.ApplicationID, in.ApplicantID, in.ModuleID, in.Role)
	appID := app.ApplicationID
	notifications.DispatchAll(ctx, s.Notifier, notifications.Event{
		Type:          notifications.ApplicationCreated,
		ModuleID:      in.ModuleID,
		ApplicationID: &appID,
		Data:          map[string]string{"moduleCode": mod, "role": in.Role.String()},
	})
	return app, nil
}

func (s *StateMachine) Accept(ctx context.Context, applicationID, actorID uuid.UUID) (*model.ApplicationModel, error) {
	return s.decide(ctx, applicationID, actorID, model.StatusAccepted, "")
}

// Reject closes a pending application. The slot it claimed becomes
// claimable again; remaining and applied do not move.
func (s *StateMachine) Reject(ctx context.Context, applicationID, actorID uuid.UUID, reason string) (*model.ApplicationModel, error) {
	return s.decide(ctx, applicationID, actorID, model.StatusRejected, reason)
}

func (s *StateMachine) decide(ctx context.Context, applicationID, actorID uuid.UUID, to model.ApplicationStatus, reason string) (*model.ApplicationModel, error) {
	op := status.OpAccept
	if to == model.StatusRejected {
		op = status.OpReject
	}

	var (
		app    *model.ApplicationModel
		events []notifications.Event
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		app, err = FindApplication(tx.Clauses(clause.Locking{Strength: "UPDATE"}), applicationID)
		if err != nil {
			return err
		}
		m, err := modsvc.FindModule(tx, app.ApplicationModuleID)
		if err != nil {
			return err
		}
		if !m.IsCoordinator(actorID) {
			return apperror.New(apperror.CodeNotAuthorized, "you are not a coordinator of this module")
		}
		if app.ApplicationStatus != model.StatusPending {
			return apperror.Newf(apperror.CodeAlreadyProcessed, "application is already %s", app.ApplicationStatus)
		}
		if err := status.Guard(m.ModuleRecruitmentStatus, op); err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&model.ApplicationModel{}).
			Where(model.ColID+" = ? AND "+model.ColStatus+" = ? AND "+model.ColVersion+" = ?",
				app.ApplicationID, string(model.StatusPending), app.ApplicationVersion).
			Updates(map[string]any{
				model.ColStatus:                 string(to),
				model.ColVersion:                gorm.Expr(model.ColVersion + " + 1"),
				"application_decided_by":        actorID,
				"application_reject_reason":     optional(reason),
				"application_status_changed_at": now,
				"application_updated_at":        now,
			})
		if res.Error != nil {
			return apperror.FromStorage(res.Error, "failed to update application")
		}
		if res.RowsAffected == 0 {
			fresh, err := FindApplication(tx, app.ApplicationID)
			if err != nil {
				return err
			}
			if fresh.ApplicationStatus != model.StatusPending {
				return apperror.Newf(apperror.CodeAlreadyProcessed, "application is already %s", fresh.ApplicationStatus)
			}
			return apperror.New(apperror.CodeConcurrentModification, "application changed concurrently, retry the request")
		}

		appID := app.ApplicationID
		recipient := app.ApplicationApplicantID
		if to == model.StatusAccepted {
			if err := s.Ledger.ConsumeOnAccept(tx, m.ModuleRecruitmentID, app.ApplicationRole); err != nil {
				return err
			}
			full, err := s.Ledger.ReevaluateFull(tx, m.ModuleRecruitmentID)
			if err != nil {
				return err
			}
			events = append(events, notifications.Event{
				Type: notifications.ApplicationAccepted, ModuleID: m.ModuleRecruitmentID,
				ApplicationID: &appID, RecipientID: &recipient,
			})
			if full {
				events = append(events, notifications.Event{Type: notifications.ModuleFull, ModuleID: m.ModuleRecruitmentID})
			}
		} else {
			if err := s.Ledger.RecordReject(tx, m.ModuleRecruitmentID, app.ApplicationRole); err != nil {
				return err
			}
			events = append(events, notifications.Event{
				Type: notifications.ApplicationRejected, ModuleID: m.ModuleRecruitmentID,
				ApplicationID: &appID, RecipientID: &recipient,
			})
		}

		from := model.StatusPending
		if err := writeHistory(tx, app.ApplicationID, &from, to, actorID, reason); err != nil {
			return err
		}
		app, err = FindApplication(tx, app.ApplicationID)
		return err
	})
	if err != nil {
		log.Printf("[DECIDE] FAIL %s application=%s actor=%s err=%v", to, applicationID, actorID, err)
		return nil, err
	}
	log.Printf("[DECIDE] OK %s application=%s actor=%s", to, applicationID, actorID)
	notifications.DispatchAll(ctx, s.Notifier, events...)
	return app, nil
}

func (s *StateMachine) History(ctx context.Context, applicationID uuid.UUID) ([]model.ApplicationStatusHistoryModel, error) {
	var rows []model.ApplicationStatusHistoryModel
	err := s.DB.WithContext(ctx).
		Where("application_status_history_application_id = ?", applicationID).
		Order("application_status_history_created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperror.FromStorage(err, "failed to load status history")
	}
	return rows, nil
}
