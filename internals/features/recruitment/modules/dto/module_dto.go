package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"taportal_backend/internals/features/recruitment/ledger"
	"taportal_backend/internals/features/recruitment/modules/model"
	"taportal_backend/internals/features/recruitment/modules/service"
	"taportal_backend/internals/features/recruitment/modules/status"
)

/* =========================
   Requests
========================= */

type CoordinatorRequest struct {
	LecturerID string `json:"lecturerId" validate:"required,uuid"`
	Name       string `json:"name"       validate:"omitempty,max=120"`
	Email      string `json:"email"      validate:"omitempty,email"`
}

type CreateModuleRequest struct {
	RecSeriesID           string               `json:"recSeriesId"          validate:"required,uuid"`
	ModuleCode            string               `json:"moduleCode"           validate:"required,max=32"`
	ModuleName            string               `json:"moduleName"           validate:"required,max=200"`
	Semester              string               `json:"semester"             validate:"omitempty,max=16"`
	Year                  int                  `json:"year"                 validate:"omitempty,gte=2000,lte=2100"`
	RequiredTAHours       int                  `json:"requiredTAHours"      validate:"gte=0"`
	OpenForUndergraduates bool                 `json:"openForUndergraduates"`
	OpenForPostgraduates  bool                 `json:"openForPostgraduates"`
	Coordinators          []CoordinatorRequest `json:"coordinators"         validate:"required,min=1,dive"`
}

func (r CreateModuleRequest) ToInput() service.CreateModuleInput {
	in := service.CreateModuleInput{
		SeriesID:              uuid.MustParse(r.RecSeriesID),
		Code:                  r.ModuleCode,
		Name:                  r.ModuleName,
		Semester:              r.Semester,
		Year:                  r.Year,
		RequiredHours:         r.RequiredTAHours,
		OpenForUndergraduates: r.OpenForUndergraduates,
		OpenForPostgraduates:  r.OpenForPostgraduates,
	}
	for _, c := range r.Coordinators {
		in.Coordinators = append(in.Coordinators, service.CoordinatorInput{
			LecturerID: uuid.MustParse(c.LecturerID),
			Name:       c.Name,
			Email:      c.Email,
		})
	}
	return in
}

type StatusActionRequest struct {
	Action string `json:"action" validate:"required"`
}

type RequirementRequest struct {
	Open     bool `json:"open"`
	Required int  `json:"required" validate:"gte=0,lte=1000"`
}

// RequirementsRequest is the coordinator's counts submission.
// expectedVersion is optional; when present the write is rejected if the
// module moved on since the coordinator read it.
type RequirementsRequest struct {
	Undergraduate   RequirementRequest `json:"undergraduate"`
	Postgraduate    RequirementRequest `json:"postgraduate"`
	RequiredTAHours *int               `json:"requiredTAHours" validate:"omitempty,gte=0"`
	ExpectedVersion *int64             `json:"expectedVersion" validate:"omitempty,gte=1"`
}

func (r RequirementsRequest) ToInput() service.RequirementsInput {
	return service.RequirementsInput{
		Undergraduate:   ledger.Requirement{Open: r.Undergraduate.Open, Required: r.Undergraduate.Required},
		Postgraduate:    ledger.Requirement{Open: r.Postgraduate.Open, Required: r.Postgraduate.Required},
		RequiredHours:   r.RequiredTAHours,
		ExpectedVersion: r.ExpectedVersion,
	}
}

/* =========================
   Responses
========================= */

type CountsResponse struct {
	Open bool `json:"open"`
	ledger.Counts
	Pending   int `json:"pending"`
	OpenSlots int `json:"openSlots"`
}

func countsOf(l ledger.Ledger, r ledger.Role) CountsResponse {
	b := l.Bucket(r)
	return CountsResponse{Open: l.IsOpen(r), Counts: b, Pending: b.Pending(), OpenSlots: b.OpenSlots()}
}

type CoordinatorResponse struct {
	LecturerID uuid.UUID `json:"lecturerId"`
	Name       *string   `json:"name,omitempty"`
	Email      *string   `json:"email,omitempty"`
}

type ModuleResponse struct {
	ModuleID         uuid.UUID             `json:"moduleId"`
	RecSeriesID      uuid.UUID             `json:"recSeriesId"`
	ModuleCode       string                `json:"moduleCode"`
	ModuleName       string                `json:"moduleName"`
	Semester         string                `json:"semester,omitempty"`
	Year             int                   `json:"year,omitempty"`
	RequiredTAHours  int                   `json:"requiredTAHours"`
	ModuleStatus     status.Stage          `json:"moduleStatus"`
	Version          int64                 `json:"version"`
	Undergraduate    CountsResponse        `json:"undergraduate"`
	Postgraduate     CountsResponse        `json:"postgraduate"`
	Coordinators     []CoordinatorResponse `json:"coordinators"`
	AvailableActions []status.Action       `json:"availableActions"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

func FromModel(m *model.ModuleRecruitmentModel) ModuleResponse {
	l := m.Ledger()
	coords := make([]CoordinatorResponse, 0, len(m.Coordinators))
	for _, c := range m.Coordinators {
		coords = append(coords, CoordinatorResponse{
			LecturerID: c.ModuleCoordinatorLecturerID,
			Name:       c.ModuleCoordinatorName,
			Email:      c.ModuleCoordinatorEmail,
		})
	}
	return ModuleResponse{
		ModuleID:         m.ModuleRecruitmentID,
		RecSeriesID:      m.ModuleRecruitmentSeriesID,
		ModuleCode:       m.ModuleRecruitmentCode,
		ModuleName:       m.ModuleRecruitmentName,
		Semester:         strings.TrimSpace(m.ModuleRecruitmentSemester),
		Year:             m.ModuleRecruitmentYear,
		RequiredTAHours:  m.ModuleRecruitmentRequiredHours,
		ModuleStatus:     m.ModuleRecruitmentStatus,
		Version:          m.ModuleRecruitmentVersion,
		Undergraduate:    countsOf(l, ledger.Undergraduate),
		Postgraduate:     countsOf(l, ledger.Postgraduate),
		Coordinators:     coords,
		AvailableActions: status.AvailableActions(m.ModuleRecruitmentStatus),
		UpdatedAt:        m.ModuleRecruitmentUpdatedAt,
	}
}

func FromModels(rows []model.ModuleRecruitmentModel) []ModuleResponse {
	out := make([]ModuleResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

// OpenPositionResponse is one row of the applicant's "available positions" list.
type OpenPositionResponse struct {
	ModuleID        uuid.UUID   `json:"moduleId"`
	RecSeriesID     uuid.UUID   `json:"recSeriesId"`
	ModuleCode      string      `json:"moduleCode"`
	ModuleName      string      `json:"moduleName"`
	Semester        string      `json:"semester,omitempty"`
	Year            int         `json:"year,omitempty"`
	RequiredTAHours int         `json:"requiredTAHours"`
	UserRole        ledger.Role `json:"userRole"`
	Remaining       int         `json:"remaining"`
	OpenSlots       int         `json:"openSlots"`
}

func FromOpenPositions(rows []service.OpenPosition) []OpenPositionResponse {
	out := make([]OpenPositionResponse, 0, len(rows))
	for _, p := range rows {
		m := p.Module
		out = append(out, OpenPositionResponse{
			ModuleID:        m.ModuleRecruitmentID,
			RecSeriesID:     m.ModuleRecruitmentSeriesID,
			ModuleCode:      m.ModuleRecruitmentCode,
			ModuleName:      m.ModuleRecruitmentName,
			Semester:        m.ModuleRecruitmentSemester,
			Year:            m.ModuleRecruitmentYear,
			RequiredTAHours: m.ModuleRecruitmentRequiredHours,
			UserRole:        p.Role,
			Remaining:       p.Remaining,
			OpenSlots:       p.OpenSlots,
		})
	}
	return out
}
