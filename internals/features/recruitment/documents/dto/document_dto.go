package dto

import (
	"time"

	"github.com/google/uuid"

	"taportal_backend/internals/features/recruitment/documents/model"
	"taportal_backend/internals/features/recruitment/documents/service"
	"taportal_backend/internals/features/recruitment/ledger"
)

type DocumentRequest struct {
	Submitted bool   `json:"submitted"`
	URL       string `json:"url" validate:"omitempty,url,max=2048"`
}

// SubmitDocumentsRequest is the body of POST /ta/submit-documents. Document
// bodies live in external storage; only their URLs are recorded here.
type SubmitDocumentsRequest struct {
	ModuleID    string                     `json:"moduleId"    validate:"omitempty,uuid"`
	RecSeriesID string                     `json:"recSeriesId" validate:"omitempty,uuid"`
	Documents   map[string]DocumentRequest `json:"documents"   validate:"required,min=1,dive"`
}

func (r SubmitDocumentsRequest) ToInput(applicantID uuid.UUID) service.SubmitInput {
	in := service.SubmitInput{ApplicantID: applicantID, Documents: model.DocumentSet{}}
	if r.ModuleID != "" {
		id := uuid.MustParse(r.ModuleID)
		in.ModuleID = &id
	}
	if r.RecSeriesID != "" {
		id := uuid.MustParse(r.RecSeriesID)
		in.SeriesID = &id
	}
	for k, d := range r.Documents {
		in.Documents[model.DocumentType(k)] = model.DocumentEntry{Submitted: d.Submitted, URL: d.URL}
	}
	return in
}

type ReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=submitted approved rejected additional-required"`
	Note   string `json:"note"   validate:"omitempty,max=1000"`
}

type SubmissionResponse struct {
	ID          uuid.UUID              `json:"id"`
	ApplicantID uuid.UUID              `json:"applicantId"`
	RecSeriesID uuid.UUID              `json:"recSeriesId"`
	UserRole    ledger.Role            `json:"userRole"`
	Documents   model.DocumentSet      `json:"documents"`
	Missing     []model.DocumentType   `json:"missing"`
	Status      model.SubmissionStatus `json:"status"`
	ReviewNote  *string                `json:"reviewNote,omitempty"`
	SubmittedAt *time.Time             `json:"submittedAt,omitempty"`
	Version     int64                  `json:"version"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

func FromModel(s *model.DocumentSubmissionModel) SubmissionResponse {
	docs := s.Documents()
	missing := docs.Missing(s.DocumentSubmissionRole)
	if missing == nil {
		missing = []model.DocumentType{}
	}
	return SubmissionResponse{
		ID:          s.DocumentSubmissionID,
		ApplicantID: s.DocumentSubmissionApplicantID,
		RecSeriesID: s.DocumentSubmissionSeriesID,
		UserRole:    s.DocumentSubmissionRole,
		Documents:   docs,
		Missing:     missing,
		Status:      s.DocumentSubmissionStatus,
		ReviewNote:  s.DocumentSubmissionReviewNote,
		SubmittedAt: s.DocumentSubmissionSubmittedAt,
		Version:     s.DocumentSubmissionVersion,
		UpdatedAt:   s.DocumentSubmissionUpdatedAt,
	}
}

type SubmitResponse struct {
	Submissions []SubmissionResponse `json:"submissions"`
	Created     bool                 `json:"created"`
	Counted     []uuid.UUID          `json:"countedApplications"`
}

func FromResult(r *service.SubmitResult) SubmitResponse {
	out := SubmitResponse{Created: r.Created, Counted: r.Counted}
	if out.Counted == nil {
		out.Counted = []uuid.UUID{}
	}
	for i := range r.Submissions {
		out.Submissions = append(out.Submissions, FromModel(&r.Submissions[i]))
	}
	return out
}
