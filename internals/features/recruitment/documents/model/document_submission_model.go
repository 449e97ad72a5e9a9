package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/ledger"
)

type DocumentType string

const (
	DocCV                DocumentType = "cv"
	DocIdentity          DocumentType = "id"
	DocBankDetails       DocumentType = "bankDetails"
	DocDegreeCertificate DocumentType = "degreeCertificate"
	DocTranscript        DocumentType = "transcript"
	DocWorkPermit        DocumentType = "workPermit"
)

// Checklist is every document type a submission may carry.
var Checklist = []DocumentType{
	DocCV, DocIdentity, DocBankDetails, DocDegreeCertificate, DocTranscript, DocWorkPermit,
}

func (d DocumentType) Known() bool {
	for _, it := range Checklist {
		if it == d {
			return true
		}
	}
	return false
}

// Mandatory is the subset that must be submitted for role. The degree
// certificate only binds postgraduates.
func Mandatory(role ledger.Role) []DocumentType {
	out := []DocumentType{DocCV, DocIdentity, DocBankDetails}
	if role == ledger.Postgraduate {
		out = append(out, DocDegreeCertificate)
	}
	return out
}

type DocumentEntry struct {
	Submitted   bool       `json:"submitted"`
	URL         string     `json:"url,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

type DocumentSet map[DocumentType]DocumentEntry

// Missing returns the mandatory types for role not yet submitted.
func (s DocumentSet) Missing(role ledger.Role) []DocumentType {
	var out []DocumentType
	for _, d := range Mandatory(role) {
		if e, ok := s[d]; !ok || !e.Submitted || e.URL == "" {
			out = append(out, d)
		}
	}
	return out
}

func (s DocumentSet) Complete(role ledger.Role) bool { return len(s.Missing(role)) == 0 }

// Merge overlays incoming on s. An entry without URL never clears a stored one.
func (s DocumentSet) Merge(incoming DocumentSet, now time.Time) DocumentSet {
	out := make(DocumentSet, len(s)+len(incoming))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range incoming {
		if !v.Submitted || v.URL == "" {
			continue
		}
		if prev, ok := out[k]; ok && prev.URL == v.URL && prev.SubmittedAt != nil {
			continue
		}
		t := now
		v.SubmittedAt = &t
		out[k] = v
	}
	return out
}

type SubmissionStatus string

const (
	SubmissionPending            SubmissionStatus = "pending"
	SubmissionSubmitted          SubmissionStatus = "submitted"
	SubmissionApproved           SubmissionStatus = "approved"
	SubmissionRejected           SubmissionStatus = "rejected"
	SubmissionAdditionalRequired SubmissionStatus = "additional-required"
)

// ReviewStatuses are the statuses staff may set on review.
var ReviewStatuses = []SubmissionStatus{
	SubmissionSubmitted, SubmissionApproved, SubmissionRejected, SubmissionAdditionalRequired,
}

// BlocksAppointment reports whether an applicant with this submission status
// must not be appointed. Only a staff-approved set lets the appointment through.
func (s SubmissionStatus) BlocksAppointment() bool {
	return s != SubmissionApproved
}

// DocumentSubmissionModel represents table `document_submissions`: one per
// applicant per recruitment series.
type DocumentSubmissionModel struct {
	DocumentSubmissionID          uuid.UUID                       `json:"id"          gorm:"column:document_submission_id;type:uuid;primaryKey"`
	DocumentSubmissionApplicantID uuid.UUID                       `json:"applicantId" gorm:"column:document_submission_applicant_id;type:uuid;not null;uniqueIndex:uq_document_submissions_applicant_series"`
	DocumentSubmissionSeriesID    uuid.UUID                       `json:"recSeriesId" gorm:"column:document_submission_series_id;type:uuid;not null;uniqueIndex:uq_document_submissions_applicant_series"`
	DocumentSubmissionRole        ledger.Role                     `json:"userRole"    gorm:"column:document_submission_role;size:16;not null"`
	DocumentSubmissionDocuments   datatypes.JSONType[DocumentSet] `json:"documents"   gorm:"column:document_submission_documents"`
	DocumentSubmissionStatus      SubmissionStatus                `json:"status"      gorm:"column:document_submission_status;size:32;not null;default:'pending'"`
	DocumentSubmissionReviewNote  *string                         `json:"reviewNote,omitempty" gorm:"column:document_submission_review_note"`
	DocumentSubmissionReviewedBy  *uuid.UUID                      `json:"reviewedBy,omitempty" gorm:"column:document_submission_reviewed_by;type:uuid"`
	DocumentSubmissionSubmittedAt *time.Time                      `json:"submittedAt,omitempty" gorm:"column:document_submission_submitted_at"`
	DocumentSubmissionVersion     int64                           `json:"version"     gorm:"column:document_submission_version;not null;default:1"`
	DocumentSubmissionCreatedAt   time.Time                       `json:"createdAt"   gorm:"column:document_submission_created_at;autoCreateTime"`
	DocumentSubmissionUpdatedAt   time.Time                       `json:"updatedAt"   gorm:"column:document_submission_updated_at;autoUpdateTime"`
}

func (DocumentSubmissionModel) TableName() string { return "document_submissions" }

func (d *DocumentSubmissionModel) BeforeCreate(tx *gorm.DB) error {
	if d.DocumentSubmissionID == uuid.Nil {
		d.DocumentSubmissionID = uuid.New()
	}
	if d.DocumentSubmissionStatus == "" {
		d.DocumentSubmissionStatus = SubmissionPending
	}
	if d.DocumentSubmissionVersion == 0 {
		d.DocumentSubmissionVersion = 1
	}
	return nil
}

func (d *DocumentSubmissionModel) Documents() DocumentSet {
	set := d.DocumentSubmissionDocuments.Data()
	if set == nil {
		return DocumentSet{}
	}
	return set
}
