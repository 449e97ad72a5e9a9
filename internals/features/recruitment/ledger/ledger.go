package ledger

import (
	"taportal_backend/internals/helpers/apperror"
)

// Ledger is the full quota state of one module recruitment. Transition
// methods return a new value and never mutate the receiver.
type Ledger struct {
	OpenForUndergraduates bool
	OpenForPostgraduates  bool
	Undergraduate         Counts
	Postgraduate          Counts
}

func (l Ledger) IsOpen(r Role) bool {
	switch r {
	case Undergraduate:
		return l.OpenForUndergraduates
	case Postgraduate:
		return l.OpenForPostgraduates
	}
	return false
}

func (l Ledger) Bucket(r Role) Counts {
	if r == Postgraduate {
		return l.Postgraduate
	}
	return l.Undergraduate
}

func (l *Ledger) bucket(r Role) *Counts {
	if r == Postgraduate {
		return &l.Postgraduate
	}
	return &l.Undergraduate
}

func (l Ledger) Validate() error {
	if !l.OpenForUndergraduates && !l.OpenForPostgraduates {
		return apperror.New(apperror.CodeInvariantViolation, "module is closed to every role")
	}
	for _, r := range Roles {
		if err := l.Bucket(r).Validate(l.IsOpen(r)); err != nil {
			return err
		}
	}
	return nil
}

// AllOpenRolesFull is the "full" rule: every open role has no remaining slot.
func (l Ledger) AllOpenRolesFull() bool {
	anyOpen := false
	for _, r := range Roles {
		if !l.IsOpen(r) {
			continue
		}
		anyOpen = true
		if l.Bucket(r).Remaining > 0 {
			return false
		}
	}
	return anyOpen
}

func (l Ledger) requireOpen(r Role) error {
	if !r.Valid() || !l.IsOpen(r) {
		return apperror.Newf(apperror.CodeRoleNotEligible, "module is not open to %s applicants", r)
	}
	return nil
}

// Claim records a new pending application for r.
func (l Ledger) Claim(r Role) (Ledger, error) {
	if err := l.requireOpen(r); err != nil {
		return l, err
	}
	if l.Bucket(r).OpenSlots() <= 0 {
		return l, apperror.Newf(apperror.CodeQuotaExhausted, "no %s positions left on this module", r)
	}
	n := l
	n.bucket(r).Applied++
	return n, nil
}

// Accept moves one pending application of r to accepted, consuming a slot.
func (l Ledger) Accept(r Role) (Ledger, error) {
	if err := l.requireOpen(r); err != nil {
		return l, err
	}
	b := l.Bucket(r)
	if b.Pending() <= 0 {
		return l, apperror.New(apperror.CodeInvariantViolation, "no pending application to accept")
	}
	if b.Remaining <= 0 {
		return l, apperror.Newf(apperror.CodeQuotaExhausted, "no %s positions left on this module", r)
	}
	n := l
	nb := n.bucket(r)
	nb.Remaining--
	nb.Accepted++
	nb.Reviewed++
	return n, nil
}

// Reject moves one pending application of r to rejected. Remaining and
// Applied stay as they are.
func (l Ledger) Reject(r Role) (Ledger, error) {
	if err := l.requireOpen(r); err != nil {
		return l, err
	}
	if l.Bucket(r).Pending() <= 0 {
		return l, apperror.New(apperror.CodeInvariantViolation, "no pending application to reject")
	}
	n := l
	n.bucket(r).Reviewed++
	return n, nil
}

func (l Ledger) RecordDocSubmitted(r Role) (Ledger, error) {
	if err := l.requireOpen(r); err != nil {
		return l, err
	}
	b := l.Bucket(r)
	if b.DocSubmitted >= b.Accepted {
		return l, apperror.New(apperror.CodeInvariantViolation, "docSubmitted would exceed accepted")
	}
	n := l
	n.bucket(r).DocSubmitted++
	return n, nil
}

func (l Ledger) RecordAppointed(r Role) (Ledger, error) {
	if err := l.requireOpen(r); err != nil {
		return l, err
	}
	b := l.Bucket(r)
	if b.Appointed >= b.DocSubmitted {
		return l, apperror.New(apperror.CodeAlreadyAppointed, "every documented TA is already appointed")
	}
	n := l
	n.bucket(r).Appointed++
	return n, nil
}

// Requirement is a coordinator's requested headcount for one role.
type Requirement struct {
	Open     bool
	Required int
}

// SetRequirements replaces the open flags and required counts, keeping the
// progress counters. Closing a role that already has activity is refused.
func (l Ledger) SetRequirements(ug, pg Requirement) (Ledger, error) {
	if !ug.Open && !pg.Open {
		return l, apperror.Validation("module must be open to at least one role", map[string]string{
			"openForUndergraduates": "one of the roles must be open",
			"openForPostgraduates":  "one of the roles must be open",
		})
	}
	n := l
	n.OpenForUndergraduates = ug.Open
	n.OpenForPostgraduates = pg.Open
	for _, it := range []struct {
		role Role
		req  Requirement
	}{{Undergraduate, ug}, {Postgraduate, pg}} {
		b := n.bucket(it.role)
		if !it.req.Open {
			if b.Applied > 0 {
				return l, apperror.Newf(apperror.CodeInvalidStatusTransition,
					"cannot close %s positions that already have applications", it.role)
			}
			*b = Counts{}
			continue
		}
		if it.req.Required < 0 {
			return l, apperror.Validation("required must not be negative", map[string]string{
				string(it.role) + ".required": "min 0",
			})
		}
		if it.req.Required < b.Accepted {
			return l, apperror.Newf(apperror.CodeValidation,
				"%s required (%d) is below already accepted (%d)", it.role, it.req.Required, b.Accepted)
		}
		b.Required = it.req.Required
		b.Remaining = it.req.Required - b.Accepted
	}
	if err := n.Validate(); err != nil {
		return l, err
	}
	return n, nil
}
