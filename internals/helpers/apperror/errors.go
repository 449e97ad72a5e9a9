// Package apperror carries the typed error taxonomy shared by the recruitment
// services and the HTTP layer. Every business refusal has a stable Code; the
// Code decides the Kind, and the Kind decides the HTTP status.
package apperror

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeModuleNotFound      Code = "MODULE_NOT_FOUND"
	CodeApplicationNotFound Code = "APPLICATION_NOT_FOUND"
	CodeDocumentNotFound    Code = "DOCUMENT_NOT_FOUND"

	CodeDuplicateApplication Code = "DUPLICATE_APPLICATION"
	CodeAlreadyProcessed     Code = "ALREADY_PROCESSED"
	CodeAlreadyAppointed     Code = "ALREADY_APPOINTED"

	CodeQuotaExhausted                 Code = "QUOTA_EXHAUSTED"
	CodeRoleNotEligible                Code = "ROLE_NOT_ELIGIBLE"
	CodeMissingRequiredDocument        Code = "MISSING_REQUIRED_DOCUMENT"
	CodeNoAcceptedApplication          Code = "NO_ACCEPTED_APPLICATION"
	CodeModuleNotAcceptingApplications Code = "MODULE_NOT_ACCEPTING_APPLICATIONS"
	CodeModuleNotAcceptingDocuments    Code = "MODULE_NOT_ACCEPTING_DOCUMENTS"
	CodeInvalidStatusTransition        Code = "INVALID_STATUS_TRANSITION"

	CodeNotAuthorized          Code = "NOT_AUTHORIZED"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
	CodeValidation             Code = "VALIDATION_ERROR"
	CodeInvariantViolation     Code = "INVARIANT_VIOLATION"
	CodeInternal               Code = "INTERNAL"
)

// Kind is the coarse class of a Code.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindIdempotency            Kind = "idempotency"
	KindBusinessRule           Kind = "business_rule"
	KindLifecycle              Kind = "lifecycle"
	KindNotAuthorized          Kind = "not_authorized"
	KindConcurrentModification Kind = "concurrent_modification"
	KindValidation             Kind = "validation"
	KindInternal               Kind = "internal"
)

var codeKinds = map[Code]Kind{
	CodeModuleNotFound:                 KindNotFound,
	CodeApplicationNotFound:            KindNotFound,
	CodeDocumentNotFound:               KindNotFound,
	CodeDuplicateApplication:           KindIdempotency,
	CodeAlreadyProcessed:               KindIdempotency,
	CodeAlreadyAppointed:               KindIdempotency,
	CodeQuotaExhausted:                 KindBusinessRule,
	CodeRoleNotEligible:                KindBusinessRule,
	CodeMissingRequiredDocument:        KindBusinessRule,
	CodeNoAcceptedApplication:          KindBusinessRule,
	CodeModuleNotAcceptingApplications: KindLifecycle,
	CodeModuleNotAcceptingDocuments:    KindLifecycle,
	CodeInvalidStatusTransition:        KindLifecycle,
	CodeNotAuthorized:                  KindNotAuthorized,
	CodeConcurrentModification:         KindConcurrentModification,
	CodeValidation:                     KindValidation,
	CodeInvariantViolation:             KindInternal,
	CodeInternal:                       KindInternal,
}

func (c Code) Kind() Kind {
	if k, ok := codeKinds[c]; ok {
		return k
	}
	return KindInternal
}

type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Kind() Kind { return e.Code.Kind() }

// Retryable reports whether the caller may rerun the whole operation after
// re-reading current state.
func (e *Error) Retryable() bool { return e.Code == CodeConcurrentModification }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

func Internal(message string, err error) *Error {
	return &Error{Code: CodeInternal, Message: message, Err: err}
}

// As unwraps err into *Error when possible.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// CodeOf returns the Code carried by err, CodeInternal for foreign errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return CodeInternal
}

func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
