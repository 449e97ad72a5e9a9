package service

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	appModel "taportal_backend/internals/features/recruitment/applications/model"
	"taportal_backend/internals/features/recruitment/documents/model"
	"taportal_backend/internals/features/recruitment/ledger"
	moduleModel "taportal_backend/internals/features/recruitment/modules/model"
	modsvc "taportal_backend/internals/features/recruitment/modules/service"
	"taportal_backend/internals/features/recruitment/modules/status"
	"taportal_backend/internals/features/recruitment/notifications"
	"taportal_backend/internals/helpers/apperror"
)

type SubmitInput struct {
	ApplicantID uuid.UUID
	ModuleID    *uuid.UUID // nil: every accepted application collecting documents
	SeriesID    *uuid.UUID
	Documents   model.DocumentSet
}

type SubmitResult struct {
	Submissions []model.DocumentSubmissionModel
	Created     bool
	Counted     []uuid.UUID // applications whose documents were counted by this call
}

// Gate lets accepted applicants hand in their paperwork and feeds the
// docSubmitted and appointed counters.
type Gate struct {
	DB       *gorm.DB
	Ledger   modsvc.LedgerStore
	Notifier notifications.Dispatcher
	Now      func() time.Time
}

func NewGate(db *gorm.DB, notifier notifications.Dispatcher) *Gate {
	if notifier == nil {
		notifier = notifications.LogDispatcher{}
	}
	return &Gate{DB: db, Ledger: modsvc.NewLedgerStore(), Notifier: notifier, Now: time.Now}
}

func validateTypes(docs model.DocumentSet) error {
	fields := map[string]string{}
	for k := range docs {
		if !k.Known() {
			fields["documents."+string(k)] = "unknown document type"
		}
	}
	if len(fields) > 0 {
		return apperror.Validation("unknown document types", fields)
	}
	return nil
}

// targets resolves the accepted applications a submission applies to.
func (g *Gate) targets(tx *gorm.DB, in SubmitInput) ([]appModel.ApplicationModel, error) {
	q := tx.Where(appModel.ColApplicantID+" = ? AND "+appModel.ColStatus+" = ?", in.ApplicantID, string(appModel.StatusAccepted))
	if in.ModuleID != nil {
		q = q.Where(appModel.ColModuleID+" = ?", *in.ModuleID)
	}
	if in.SeriesID != nil {
		q = q.Where("application_series_id = ?", *in.SeriesID)
	}
	var apps []appModel.ApplicationModel
	if err := q.Order("application_created_at ASC").Find(&apps).Error; err != nil {
		return nil, apperror.FromStorage(err, "failed to load accepted applications")
	}
	if len(apps) == 0 {
		return nil, apperror.New(apperror.CodeNoAcceptedApplication, "documents can only be submitted for an accepted application")
	}

	ids := make([]uuid.UUID, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.ApplicationModuleID)
	}
	var mods []moduleModel.ModuleRecruitmentModel
	if err := tx.Select(moduleModel.ColID, moduleModel.ColStatus).
		Where(moduleModel.ColID+" IN ?", ids).Find(&mods).Error; err != nil {
		return nil, apperror.FromStorage(err, "failed to load modules")
	}
	stage := make(map[uuid.UUID]status.Stage, len(mods))
	for _, m := range mods {
		stage[m.ModuleRecruitmentID] = m.ModuleRecruitmentStatus
	}

	var out []appModel.ApplicationModel
	var lastErr error
	for _, a := range apps {
		if err := status.Guard(stage[a.ApplicationModuleID], status.OpSubmitDocuments); err != nil {
			lastErr = err
			continue
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil, lastErr
	}
	return out, nil
}

// SubmitDocuments upserts the applicant's submission for each series touched.
// The merged set must satisfy the mandatory checklist or nothing is written.
// Each application is counted into docSubmitted at most once.
func (g *Gate) SubmitDocuments(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if in.ApplicantID == uuid.Nil {
		return nil, apperror.Validation("applicant is required", nil)
	}
	if err := validateTypes(in.Documents); err != nil {
		return nil, err
	}

	res := &SubmitResult{}
	var events []notifications.Event
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		apps, err := g.targets(tx, in)
		if err != nil {
			return err
		}

		bySeries := map[uuid.UUID][]appModel.ApplicationModel{}
		var order []uuid.UUID
		for _, a := range apps {
			if _, ok := bySeries[a.ApplicationSeriesID]; !ok {
				order = append(order, a.ApplicationSeriesID)
			}
			bySeries[a.ApplicationSeriesID] = append(bySeries[a.ApplicationSeriesID], a)
		}

		now := g.Now()
		for _, series := range order {
			group := bySeries[series]
			sub, created, err := g.upsert(tx, in.ApplicantID, series, roleOf(group), in.Documents, now)
			if err != nil {
				return err
			}
			res.Created = res.Created || created
			res.Submissions = append(res.Submissions, *sub)

			for _, a := range group {
				counted, err := g.countOnce(tx, a)
				if err != nil {
					return err
				}
				if counted {
					id := a.ApplicationID
					res.Counted = append(res.Counted, id)
					events = append(events, notifications.Event{
						Type: notifications.DocumentsSubmitted, ModuleID: a.ApplicationModuleID,
						ApplicationID: &id, RecipientID: &a.ApplicationApplicantID,
					})
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[DOCS] FAIL submit applicant=%s err=%v", in.ApplicantID, err)
		return nil, err
	}
	log.Printf("[DOCS] OK submit applicant=%s submissions=%d counted=%d", in.ApplicantID, len(res.Submissions), len(res.Counted))
	notifications.DispatchAll(ctx, g.Notifier, events...)
	return res, nil
}

// roleOf picks the strictest checklist among the group's roles.
func roleOf(apps []appModel.ApplicationModel) ledger.Role {
	for _, a := range apps {
		if a.ApplicationRole == ledger.Postgraduate {
			return ledger.Postgraduate
		}
	}
	return ledger.Undergraduate
}

func missingError(missing []model.DocumentType) error {
	names := make([]string, 0, len(missing))
	fields := make(map[string]string, len(missing))
	for _, d := range missing {
		names = append(names, string(d))
		fields["documents."+string(d)] = "required"
	}
	sort.Strings(names)
	ae := apperror.Newf(apperror.CodeMissingRequiredDocument, "missing required documents: %s", strings.Join(names, ", "))
	ae.Fields = fields
	return ae
}

func (g *Gate) upsert(tx *gorm.DB, applicantID, seriesID uuid.UUID, role ledger.Role, incoming model.DocumentSet, now time.Time) (*model.DocumentSubmissionModel, bool, error) {
	var sub model.DocumentSubmissionModel
	err := tx.Where("document_submission_applicant_id = ? AND document_submission_series_id = ?", applicantID, seriesID).
		Take(&sub).Error
	if err != nil && !apperror.IsNotFound(err) {
		return nil, false, apperror.FromStorage(err, "failed to load document submission")
	}
	exists := err == nil

	if exists {
		if sub.DocumentSubmissionRole == ledger.Postgraduate {
			role = ledger.Postgraduate
		}
		switch sub.DocumentSubmissionStatus {
		case model.SubmissionApproved:
			// approved sets are frozen; they still count for applications
			// accepted later in the same series
			if sub.Documents().Complete(role) {
				return &sub, false, nil
			}
			return nil, false, apperror.New(apperror.CodeAlreadyProcessed,
				"documents were already approved by staff")
		case model.SubmissionRejected:
			return nil, false, apperror.New(apperror.CodeAlreadyProcessed,
				"documents were already rejected by staff")
		}
	}

	merged := sub.Documents().Merge(incoming, now)
	if missing := merged.Missing(role); len(missing) > 0 {
		return nil, false, missingError(missing)
	}

	if !exists {
		sub = model.DocumentSubmissionModel{
			DocumentSubmissionApplicantID: applicantID,
			DocumentSubmissionSeriesID:    seriesID,
			DocumentSubmissionRole:        role,
			DocumentSubmissionDocuments:   datatypes.NewJSONType(merged),
			DocumentSubmissionStatus:      model.SubmissionSubmitted,
			DocumentSubmissionSubmittedAt: &now,
		}
		if err := tx.Create(&sub).Error; err != nil {
			if apperror.IsUniqueViolation(err) {
				return nil, false, apperror.New(apperror.CodeConcurrentModification, "documents were submitted concurrently, retry the request")
			}
			return nil, false, apperror.FromStorage(err, "failed to create document submission")
		}
		return &sub, true, nil
	}

	upd := tx.Model(&model.DocumentSubmissionModel{}).
		Where("document_submission_id = ? AND document_submission_version = ?", sub.DocumentSubmissionID, sub.DocumentSubmissionVersion).
		Updates(map[string]any{
			"document_submission_documents":    datatypes.NewJSONType(merged),
			"document_submission_role":         string(role),
			"document_submission_status":       string(model.SubmissionSubmitted),
			"document_submission_submitted_at": now,
			"document_submission_version":      gorm.Expr("document_submission_version + 1"),
			"document_submission_updated_at":   now,
		})
	if upd.Error != nil {
		return nil, false, apperror.FromStorage(upd.Error, "failed to update document submission")
	}
	if upd.RowsAffected == 0 {
		return nil, false, apperror.New(apperror.CodeConcurrentModification, "documents were changed concurrently, retry the request")
	}
	if err := tx.Where("document_submission_id = ?", sub.DocumentSubmissionID).Take(&sub).Error; err != nil {
		return nil, false, apperror.FromStorage(err, "failed to reload document submission")
	}
	return &sub, false, nil
}

// countOnce flips the application's docs_counted flag and, when this call
// flipped it, increments docSubmitted.
func (g *Gate) countOnce(tx *gorm.DB, a appModel.ApplicationModel) (bool, error) {
	if a.ApplicationDocsCounted {
		return false, nil
	}
	res := tx.Model(&appModel.ApplicationModel{}).
		Where(appModel.ColID+" = ? AND "+appModel.ColDocsCounted+" = ? AND "+appModel.ColStatus+" = ?",
			a.ApplicationID, false, string(appModel.StatusAccepted)).
		Updates(map[string]any{
			appModel.ColDocsCounted:  true,
			appModel.ColVersion:      gorm.Expr(appModel.ColVersion + " + 1"),
			"application_updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, apperror.FromStorage(res.Error, "failed to mark documents counted")
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if err := g.Ledger.RecordDocSubmitted(tx, a.ApplicationModuleID, a.ApplicationRole); err != nil {
		return false, err
	}
	return true, nil
}

// Appoint confirms an accepted applicant whose documents are in.
func (g *Gate) Appoint(ctx context.Context, moduleID, applicantID, actorID uuid.UUID) (*appModel.ApplicationModel, error) {
	var app appModel.ApplicationModel
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := modsvc.FindModule(tx, moduleID)
		if err != nil {
			return err
		}
		if err := status.Guard(m.ModuleRecruitmentStatus, status.OpAppoint); err != nil {
			return err
		}

		err = tx.Where(appModel.ColApplicantID+" = ? AND "+appModel.ColModuleID+" = ?", applicantID, moduleID).
			Take(&app).Error
		if err != nil && !apperror.IsNotFound(err) {
			return apperror.FromStorage(err, "failed to load application")
		}
		if err != nil || app.ApplicationStatus != appModel.StatusAccepted {
			return apperror.New(apperror.CodeNoAcceptedApplication, "applicant has no accepted application on this module")
		}
		if app.ApplicationAppointed {
			return apperror.New(apperror.CodeAlreadyAppointed, "applicant is already appointed")
		}
		if !app.ApplicationDocsCounted {
			return apperror.New(apperror.CodeMissingRequiredDocument, "applicant has not submitted the required documents")
		}

		var sub model.DocumentSubmissionModel
		if err := tx.Select("document_submission_status").
			Where("document_submission_applicant_id = ? AND document_submission_series_id = ?", applicantID, app.ApplicationSeriesID).
			Take(&sub).Error; err != nil {
			if apperror.IsNotFound(err) {
				return apperror.New(apperror.CodeMissingRequiredDocument, "applicant has not submitted the required documents")
			}
			return apperror.FromStorage(err, "failed to load document submission")
		}
		if sub.DocumentSubmissionStatus.BlocksAppointment() {
			return apperror.Newf(apperror.CodeMissingRequiredDocument,
				"documents are %s and block the appointment", sub.DocumentSubmissionStatus)
		}

		res := tx.Model(&appModel.ApplicationModel{}).
			Where(appModel.ColID+" = ? AND "+appModel.ColAppointed+" = ?", app.ApplicationID, false).
			Updates(map[string]any{
				appModel.ColAppointed:    true,
				appModel.ColVersion:      gorm.Expr(appModel.ColVersion + " + 1"),
				"application_updated_at": time.Now(),
			})
		if res.Error != nil {
			return apperror.FromStorage(res.Error, "failed to appoint applicant")
		}
		if res.RowsAffected == 0 {
			return apperror.New(apperror.CodeAlreadyAppointed, "applicant is already appointed")
		}
		if err := g.Ledger.RecordAppointed(tx, moduleID, app.ApplicationRole); err != nil {
			return err
		}
		return tx.Where(appModel.ColID+" = ?", app.ApplicationID).Take(&app).Error
	})
	if err != nil {
		log.Printf("[DOCS] FAIL appoint module=%s applicant=%s err=%v", moduleID, applicantID, err)
		return nil, apperror.FromStorage(err, "failed to appoint applicant")
	}
	log.Printf("[DOCS] OK appoint module=%s applicant=%s by=%s", moduleID, applicantID, actorID)
	appID := app.ApplicationID
	notifications.DispatchAll(ctx, g.Notifier, notifications.Event{
		Type: notifications.ApplicationAppointed, ModuleID: moduleID,
		ApplicationID: &appID, RecipientID: &applicantID,
	})
	return &app, nil
}

// ReviewDocuments records the staff verdict on a submission.
func (g *Gate) ReviewDocuments(ctx context.Context, submissionID, reviewerID uuid.UUID, to model.SubmissionStatus, note string) (*model.DocumentSubmissionModel, error) {
	valid := false
	for _, s := range model.ReviewStatuses {
		if s == to {
			valid = true
		}
	}
	if !valid {
		return nil, apperror.Validation("invalid review status", map[string]string{
			"status": "must be submitted, approved, rejected or additional-required",
		})
	}

	var sub model.DocumentSubmissionModel
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_submission_id = ?", submissionID).Take(&sub).Error; err != nil {
			if apperror.IsNotFound(err) {
				return apperror.New(apperror.CodeDocumentNotFound, "document submission not found")
			}
			return apperror.FromStorage(err, "failed to load document submission")
		}
		if sub.DocumentSubmissionStatus == model.SubmissionPending {
			return apperror.New(apperror.CodeInvalidStatusTransition, "nothing has been submitted yet")
		}
		var noteVal *string
		if n := strings.TrimSpace(note); n != "" {
			noteVal = &n
		}
		res := tx.Model(&model.DocumentSubmissionModel{}).
			Where("document_submission_id = ? AND document_submission_version = ?", sub.DocumentSubmissionID, sub.DocumentSubmissionVersion).
			Updates(map[string]any{
				"document_submission_status":      string(to),
				"document_submission_review_note": noteVal,
				"document_submission_reviewed_by": reviewerID,
				"document_submission_version":     gorm.Expr("document_submission_version + 1"),
				"document_submission_updated_at":  time.Now(),
			})
		if res.Error != nil {
			return apperror.FromStorage(res.Error, "failed to review document submission")
		}
		if res.RowsAffected == 0 {
			return apperror.New(apperror.CodeConcurrentModification, "submission changed concurrently, retry the request")
		}
		return tx.Where("document_submission_id = ?", submissionID).Take(&sub).Error
	})
	if err != nil {
		log.Printf("[DOCS] FAIL review submission=%s err=%v", submissionID, err)
		return nil, apperror.FromStorage(err, "failed to review document submission")
	}
	log.Printf("[DOCS] OK review submission=%s -> %s by=%s", submissionID, to, reviewerID)
	return &sub, nil
}
