package service

import (
	"context"

	"github.com/google/uuid"

	"taportal_backend/internals/features/recruitment/applications/model"
	docModel "taportal_backend/internals/features/recruitment/documents/model"
	moduleModel "taportal_backend/internals/features/recruitment/modules/model"
	modsvc "taportal_backend/internals/features/recruitment/modules/service"
	"taportal_backend/internals/features/recruitment/modules/status"
	"taportal_backend/internals/helpers/apperror"
)

// ApplicationView is an application with the module it targets and, for
// accepted ones, the applicant's document submission status.
type ApplicationView struct {
	Application    model.ApplicationModel
	Module         moduleModel.ModuleRecruitmentModel
	DocumentStatus *docModel.SubmissionStatus
}

// ModuleGroup is one coordinated module with its application rows.
type ModuleGroup struct {
	Module       moduleModel.ModuleRecruitmentModel
	Applications []ApplicationView
}

func (s *StateMachine) listForApplicant(ctx context.Context, applicantID uuid.UUID, st model.ApplicationStatus) ([]ApplicationView, error) {
	db := s.DB.WithContext(ctx)
	var apps []model.ApplicationModel
	if err := db.
		Where(model.ColApplicantID+" = ? AND "+model.ColStatus+" = ?", applicantID, string(st)).
		Order("application_created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, apperror.FromStorage(err, "failed to list applications")
	}
	return s.attach(ctx, apps, st == model.StatusAccepted)
}

// attach loads the modules (and optionally document statuses) for apps.
func (s *StateMachine) attach(ctx context.Context, apps []model.ApplicationModel, withDocs bool) ([]ApplicationView, error) {
	if len(apps) == 0 {
		return []ApplicationView{}, nil
	}
	db := s.DB.WithContext(ctx)

	moduleIDs := make([]uuid.UUID, 0, len(apps))
	for _, a := range apps {
		moduleIDs = append(moduleIDs, a.ApplicationModuleID)
	}
	var mods []moduleModel.ModuleRecruitmentModel
	if err := db.Where(moduleModel.ColID+" IN ?", moduleIDs).Find(&mods).Error; err != nil {
		return nil, apperror.FromStorage(err, "failed to load modules")
	}
	byID := make(map[uuid.UUID]moduleModel.ModuleRecruitmentModel, len(mods))
	for _, m := range mods {
		byID[m.ModuleRecruitmentID] = m
	}

	type docKey struct{ applicant, series uuid.UUID }
	docs := map[docKey]docModel.SubmissionStatus{}
	if withDocs {
		applicants := make([]uuid.UUID, 0, len(apps))
		for _, a := range apps {
			applicants = append(applicants, a.ApplicationApplicantID)
		}
		var subs []docModel.DocumentSubmissionModel
		if err := db.Select("document_submission_applicant_id", "document_submission_series_id", "document_submission_status").
			Where("document_submission_applicant_id IN ?", applicants).
			Find(&subs).Error; err != nil {
			return nil, apperror.FromStorage(err, "failed to load document submissions")
		}
		for _, d := range subs {
			docs[docKey{d.DocumentSubmissionApplicantID, d.DocumentSubmissionSeriesID}] = d.DocumentSubmissionStatus
		}
	}

	out := make([]ApplicationView, 0, len(apps))
	for _, a := range apps {
		v := ApplicationView{Application: a, Module: byID[a.ApplicationModuleID]}
		if st, ok := docs[docKey{a.ApplicationApplicantID, a.ApplicationSeriesID}]; ok {
			st := st
			v.DocumentStatus = &st
		}
		out = append(out, v)
	}
	return out, nil
}

// ListPendingForApplicant backs GET /ta/applied-modules.
func (s *StateMachine) ListPendingForApplicant(ctx context.Context, applicantID uuid.UUID) ([]ApplicationView, error) {
	return s.listForApplicant(ctx, applicantID, model.StatusPending)
}

// ListAcceptedForApplicant backs GET /ta/accepted-modules.
func (s *StateMachine) ListAcceptedForApplicant(ctx context.Context, applicantID uuid.UUID) ([]ApplicationView, error) {
	return s.listForApplicant(ctx, applicantID, model.StatusAccepted)
}

func (s *StateMachine) groupForCoordinator(ctx context.Context, lecturerID uuid.UUID, st model.ApplicationStatus, stages []status.Stage) ([]ModuleGroup, error) {
	mods, err := modsvc.NewModuleService(s.DB, s.Notifier).ListForCoordinator(ctx, lecturerID, stages...)
	if err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return []ModuleGroup{}, nil
	}
	ids := make([]uuid.UUID, 0, len(mods))
	for _, m := range mods {
		ids = append(ids, m.ModuleRecruitmentID)
	}

	var apps []model.ApplicationModel
	if err := s.DB.WithContext(ctx).
		Where(model.ColModuleID+" IN ? AND "+model.ColStatus+" = ?", ids, string(st)).
		Order("application_created_at ASC").
		Find(&apps).Error; err != nil {
		return nil, apperror.FromStorage(err, "failed to list applications")
	}
	views, err := s.attach(ctx, apps, st == model.StatusAccepted)
	if err != nil {
		return nil, err
	}

	rows := make(map[uuid.UUID][]ApplicationView, len(mods))
	for _, v := range views {
		rows[v.Application.ApplicationModuleID] = append(rows[v.Application.ApplicationModuleID], v)
	}
	out := make([]ModuleGroup, 0, len(mods))
	for _, m := range mods {
		list := rows[m.ModuleRecruitmentID]
		if list == nil {
			list = []ApplicationView{}
		}
		out = append(out, ModuleGroup{Module: m, Applications: list})
	}
	return out, nil
}

// Inbox backs GET /lecturer/handle-requests: pending applications on every
// module the lecturer coordinates that still takes decisions.
func (s *StateMachine) Inbox(ctx context.Context, lecturerID uuid.UUID) ([]ModuleGroup, error) {
	return s.groupForCoordinator(ctx, lecturerID, model.StatusPending, status.AllowedStages(status.OpReviewApplications))
}

// ModulesWithAccepted backs GET /lecturer/modules/with-ta-requests.
func (s *StateMachine) ModulesWithAccepted(ctx context.Context, lecturerID uuid.UUID) ([]ModuleGroup, error) {
	return s.groupForCoordinator(ctx, lecturerID, model.StatusAccepted, nil)
}
