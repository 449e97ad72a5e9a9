package dto

import (
	"time"

	"github.com/google/uuid"

	"taportal_backend/internals/features/recruitment/applications/model"
	"taportal_backend/internals/features/recruitment/applications/service"
	docModel "taportal_backend/internals/features/recruitment/documents/model"
	"taportal_backend/internals/features/recruitment/ledger"
	moduleModel "taportal_backend/internals/features/recruitment/modules/model"
	"taportal_backend/internals/features/recruitment/modules/status"
)

/* =========================
   Requests
========================= */

// ApplyRequest is the body of POST /ta/apply. The role is never taken from
// the body; it comes from the token.
type ApplyRequest struct {
	ModuleID    string `json:"moduleId"    validate:"required,uuid"`
	RecSeriesID string `json:"recSeriesId" validate:"omitempty,uuid"`
	TAHours     int    `json:"taHours"     validate:"gte=0,lte=60"`
}

func (r ApplyRequest) ToInput(applicantID uuid.UUID, role ledger.Role, name, email string) service.ApplyInput {
	in := service.ApplyInput{
		ApplicantID:    applicantID,
		ModuleID:       uuid.MustParse(r.ModuleID),
		Role:           role,
		TAHours:        r.TAHours,
		ApplicantName:  name,
		ApplicantEmail: email,
	}
	if r.RecSeriesID != "" {
		in.SeriesID = uuid.MustParse(r.RecSeriesID)
	}
	return in
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

/* =========================
   Responses
========================= */

type ModuleSummary struct {
	ModuleID        uuid.UUID    `json:"moduleId"`
	RecSeriesID     uuid.UUID    `json:"recSeriesId"`
	ModuleCode      string       `json:"moduleCode"`
	ModuleName      string       `json:"moduleName"`
	Semester        string       `json:"semester,omitempty"`
	Year            int          `json:"year,omitempty"`
	RequiredTAHours int          `json:"requiredTAHours"`
	ModuleStatus    status.Stage `json:"moduleStatus"`
}

func summaryOf(m moduleModel.ModuleRecruitmentModel) ModuleSummary {
	return ModuleSummary{
		ModuleID:        m.ModuleRecruitmentID,
		RecSeriesID:     m.ModuleRecruitmentSeriesID,
		ModuleCode:      m.ModuleRecruitmentCode,
		ModuleName:      m.ModuleRecruitmentName,
		Semester:        m.ModuleRecruitmentSemester,
		Year:            m.ModuleRecruitmentYear,
		RequiredTAHours: m.ModuleRecruitmentRequiredHours,
		ModuleStatus:    m.ModuleRecruitmentStatus,
	}
}

type ApplicationResponse struct {
	ID              uuid.UUID               `json:"id"`
	ApplicantID     uuid.UUID               `json:"applicantId"`
	ApplicantName   *string                 `json:"applicantName,omitempty"`
	ApplicantEmail  *string                 `json:"applicantEmail,omitempty"`
	ModuleID        uuid.UUID               `json:"moduleId"`
	RecSeriesID     uuid.UUID               `json:"recSeriesId"`
	UserRole        ledger.Role             `json:"userRole"`
	TAHours         int                     `json:"taHours"`
	Status          model.ApplicationStatus `json:"status"`
	RejectReason    *string                 `json:"rejectReason,omitempty"`
	DocsCounted     bool                    `json:"docsCounted"`
	Appointed       bool                    `json:"appointed"`
	Version         int64                   `json:"version"`
	StatusChangedAt time.Time               `json:"statusChangedAt"`
	CreatedAt       time.Time               `json:"createdAt"`

	Module         *ModuleSummary             `json:"module,omitempty"`
	DocumentStatus *docModel.SubmissionStatus `json:"documentStatus,omitempty"`
}

func FromModel(a *model.ApplicationModel) ApplicationResponse {
	return ApplicationResponse{
		ID:              a.ApplicationID,
		ApplicantID:     a.ApplicationApplicantID,
		ApplicantName:   a.ApplicationApplicantName,
		ApplicantEmail:  a.ApplicationApplicantEmail,
		ModuleID:        a.ApplicationModuleID,
		RecSeriesID:     a.ApplicationSeriesID,
		UserRole:        a.ApplicationRole,
		TAHours:         a.ApplicationTAHours,
		Status:          a.ApplicationStatus,
		RejectReason:    a.ApplicationRejectReason,
		DocsCounted:     a.ApplicationDocsCounted,
		Appointed:       a.ApplicationAppointed,
		Version:         a.ApplicationVersion,
		StatusChangedAt: a.ApplicationStatusChangedAt,
		CreatedAt:       a.ApplicationCreatedAt,
	}
}

func FromView(v service.ApplicationView) ApplicationResponse {
	out := FromModel(&v.Application)
	sum := summaryOf(v.Module)
	out.Module = &sum
	out.DocumentStatus = v.DocumentStatus
	return out
}

func FromViews(views []service.ApplicationView) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(views))
	for _, v := range views {
		out = append(out, FromView(v))
	}
	return out
}

// ModuleGroupResponse is one coordinated module with its applications.
type ModuleGroupResponse struct {
	ModuleSummary
	Undergraduate ledger.Counts         `json:"undergraduateCounts"`
	Postgraduate  ledger.Counts         `json:"postgraduateCounts"`
	Applications  []ApplicationResponse `json:"applications"`
}

func FromGroups(groups []service.ModuleGroup) []ModuleGroupResponse {
	out := make([]ModuleGroupResponse, 0, len(groups))
	for _, g := range groups {
		apps := make([]ApplicationResponse, 0, len(g.Applications))
		for _, v := range g.Applications {
			r := FromModel(&v.Application)
			r.DocumentStatus = v.DocumentStatus
			apps = append(apps, r)
		}
		l := g.Module.Ledger()
		out = append(out, ModuleGroupResponse{
			ModuleSummary: summaryOf(g.Module),
			Undergraduate: l.Undergraduate,
			Postgraduate:  l.Postgraduate,
			Applications:  apps,
		})
	}
	return out
}

type HistoryResponse struct {
	From      *model.ApplicationStatus `json:"from,omitempty"`
	To        model.ApplicationStatus  `json:"to"`
	ActorID   uuid.UUID                `json:"actorId"`
	Note      *string                  `json:"note,omitempty"`
	CreatedAt time.Time                `json:"createdAt"`
}

func FromHistory(rows []model.ApplicationStatusHistoryModel) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(rows))
	for _, h := range rows {
		out = append(out, HistoryResponse{
			From:      h.ApplicationStatusHistoryFrom,
			To:        h.ApplicationStatusHistoryTo,
			ActorID:   h.ApplicationStatusHistoryActorID,
			Note:      h.ApplicationStatusHistoryNote,
			CreatedAt: h.ApplicationStatusHistoryCreatedAt,
		})
	}
	return out
}
