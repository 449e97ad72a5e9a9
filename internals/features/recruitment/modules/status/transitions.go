// Package status is the module lifecycle controller: a transition table of
// stage × action → next stage, and the list of operations each stage allows.
package status

import (
	"strings"

	"taportal_backend/internals/helpers/apperror"
)

type Stage string

const (
	Initialised      Stage = "initialised"
	PendingChanges   Stage = "pending-changes"
	ChangesSubmitted Stage = "changes-submitted"
	Advertised       Stage = "advertised"
	Full             Stage = "full"
	GettingDocuments Stage = "getting-documents"
	Closed           Stage = "closed"
	Archived         Stage = "archived"
)

var Stages = []Stage{
	Initialised, PendingChanges, ChangesSubmitted, Advertised,
	Full, GettingDocuments, Closed, Archived,
}

func (s Stage) Valid() bool {
	for _, it := range Stages {
		if it == s {
			return true
		}
	}
	return false
}

type Action string

const (
	ActionRequestChanges Action = "request-changes"
	ActionSubmitChanges  Action = "submit-changes"
	ActionReopenChanges  Action = "reopen-changes"
	ActionAdvertise      Action = "advertise"
	ActionMarkFull       Action = "mark-full"
	ActionStartDocuments Action = "start-documents"
	ActionClose          Action = "close"
	ActionArchive        Action = "archive"
)

// StaffActions are the actions accepted from the admin status endpoint.
// mark-full is automatic and submit-changes belongs to the coordinator.
var StaffActions = []Action{
	ActionRequestChanges, ActionReopenChanges, ActionAdvertise,
	ActionStartDocuments, ActionClose, ActionArchive,
}

func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, it := range StaffActions {
		if it == a {
			return a, true
		}
	}
	return "", false
}

var transitions = map[Stage]map[Action]Stage{
	Initialised: {
		ActionRequestChanges: PendingChanges,
	},
	PendingChanges: {
		ActionSubmitChanges: ChangesSubmitted,
	},
	ChangesSubmitted: {
		ActionSubmitChanges: ChangesSubmitted,
		ActionReopenChanges: PendingChanges,
		ActionAdvertise:     Advertised,
	},
	Advertised: {
		ActionMarkFull:       Full,
		ActionStartDocuments: GettingDocuments,
		ActionClose:          Closed,
	},
	Full: {
		ActionStartDocuments: GettingDocuments,
		ActionClose:          Closed,
	},
	GettingDocuments: {
		ActionClose: Closed,
	},
	Closed: {
		ActionArchive: Archived,
	},
}

// Next looks up the transition table.
func Next(from Stage, action Action) (Stage, error) {
	if to, ok := transitions[from][action]; ok {
		return to, nil
	}
	return from, apperror.Newf(apperror.CodeInvalidStatusTransition,
		"cannot %s a module that is %s", action, from)
}

// AvailableActions lists the actions legal from a stage, in table order of
// StaffActions followed by the automatic/coordinator ones.
func AvailableActions(from Stage) []Action {
	out := make([]Action, 0, 3)
	for _, a := range append(append([]Action{}, StaffActions...), ActionSubmitChanges, ActionMarkFull) {
		if _, ok := transitions[from][a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Operation is an application-level operation gated by the module stage.
type Operation string

const (
	OpApply              Operation = "apply"
	OpAccept             Operation = "accept"
	OpReject             Operation = "reject"
	OpSubmitDocuments    Operation = "submit-documents"
	OpAppoint            Operation = "appoint"
	OpEditRequirements   Operation = "edit-requirements"
	OpReviewApplications Operation = "review-applications"
)

var allowed = map[Operation][]Stage{
	OpApply:              {Advertised},
	OpAccept:             {Advertised, Full, GettingDocuments},
	OpReject:             {Advertised, Full, GettingDocuments},
	OpSubmitDocuments:    {GettingDocuments},
	OpAppoint:            {GettingDocuments},
	OpEditRequirements:   {PendingChanges, ChangesSubmitted},
	OpReviewApplications: {Advertised, Full, GettingDocuments},
}

func AllowedStages(op Operation) []Stage {
	return append([]Stage(nil), allowed[op]...)
}

func Allows(s Stage, op Operation) bool {
	for _, it := range allowed[op] {
		if it == s {
			return true
		}
	}
	return false
}

// Guard returns the lifecycle error for op in stage s, nil when legal.
func Guard(s Stage, op Operation) error {
	if Allows(s, op) {
		return nil
	}
	switch op {
	case OpApply:
		return apperror.Newf(apperror.CodeModuleNotAcceptingApplications,
			"module is %s and not accepting applications", s)
	case OpSubmitDocuments, OpAppoint:
		return apperror.Newf(apperror.CodeModuleNotAcceptingDocuments,
			"module is %s and not collecting documents", s)
	default:
		return apperror.Newf(apperror.CodeInvalidStatusTransition,
			"%s is not allowed while module is %s", op, s)
	}
}
