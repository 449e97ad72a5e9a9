package ledger

import (
	"taportal_backend/internals/helpers/apperror"
)

// Column suffixes of a counter bucket. The storage layer prefixes them per role.
const (
	FieldRequired     = "required"
	FieldRemaining    = "remaining"
	FieldApplied      = "applied"
	FieldReviewed     = "reviewed"
	FieldAccepted     = "accepted"
	FieldDocSubmitted = "doc_submitted"
	FieldAppointed    = "appointed"
)

// Counts is one role's counter bucket on a module recruitment.
//
// Reviewed counts applications that left pending (accepted or rejected), so
// Applied-Reviewed is the number of applications still holding a claim.
type Counts struct {
	Required     int `gorm:"column:required;not null;default:0" json:"required"`
	Remaining    int `gorm:"column:remaining;not null;default:0" json:"remaining"`
	Applied      int `gorm:"column:applied;not null;default:0" json:"applied"`
	Reviewed     int `gorm:"column:reviewed;not null;default:0" json:"reviewed"`
	Accepted     int `gorm:"column:accepted;not null;default:0" json:"accepted"`
	DocSubmitted int `gorm:"column:doc_submitted;not null;default:0" json:"docSubmitted"`
	Appointed    int `gorm:"column:appointed;not null;default:0" json:"appointed"`
}

func (c Counts) Pending() int { return c.Applied - c.Reviewed }

// OpenSlots is how many more applications may be claimed right now.
func (c Counts) OpenSlots() int { return c.Remaining - c.Pending() }

func (c Counts) IsZero() bool { return c == Counts{} }

// Validate checks the bucket invariants. A closed role must be all zeros.
func (c Counts) Validate(open bool) error {
	if !open {
		if !c.IsZero() {
			return apperror.New(apperror.CodeInvariantViolation, "closed role has non-zero counters")
		}
		return nil
	}
	switch {
	case c.Required < 0 || c.Remaining < 0 || c.Applied < 0 || c.Reviewed < 0 ||
		c.Accepted < 0 || c.DocSubmitted < 0 || c.Appointed < 0:
		return apperror.New(apperror.CodeInvariantViolation, "negative counter")
	case c.Remaining != c.Required-c.Accepted:
		return apperror.Newf(apperror.CodeInvariantViolation,
			"remaining %d != required %d - accepted %d", c.Remaining, c.Required, c.Accepted)
	case c.Accepted > c.Reviewed:
		return apperror.New(apperror.CodeInvariantViolation, "accepted exceeds reviewed")
	case c.Reviewed > c.Applied:
		return apperror.New(apperror.CodeInvariantViolation, "reviewed exceeds applied")
	case c.DocSubmitted > c.Accepted:
		return apperror.New(apperror.CodeInvariantViolation, "docSubmitted exceeds accepted")
	case c.Appointed > c.DocSubmitted:
		return apperror.New(apperror.CodeInvariantViolation, "appointed exceeds docSubmitted")
	}
	return nil
}
