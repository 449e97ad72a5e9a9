// Package ledger holds the per-module, per-role quota counters and the rules
// every mutation of them must respect. It performs no I/O.
package ledger

import (
	"strings"

	"taportal_backend/internals/helpers/apperror"
)

// Role is the applicant role an application is counted under. Exactly two
// variants exist; staff roles live in constants and never reach the ledger.
type Role string

const (
	Undergraduate Role = "undergraduate"
	Postgraduate  Role = "postgraduate"
)

var Roles = []Role{Undergraduate, Postgraduate}

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case Undergraduate:
		return Undergraduate, nil
	case Postgraduate:
		return Postgraduate, nil
	}
	return "", apperror.Validation("unknown applicant role", map[string]string{
		"userRole": "must be undergraduate or postgraduate",
	})
}

func (r Role) Valid() bool { return r == Undergraduate || r == Postgraduate }

// Short is the column prefix fragment for the role's counter bucket.
func (r Role) Short() string {
	if r == Postgraduate {
		return "pg"
	}
	return "ug"
}

func (r Role) String() string { return string(r) }
