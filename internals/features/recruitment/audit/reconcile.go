// Package audit recomputes every module ledger from the application rows and
// reports counters that drifted. It never writes.
package audit

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appModel "taportal_backend/internals/features/recruitment/applications/model"
	"taportal_backend/internals/features/recruitment/ledger"
	moduleModel "taportal_backend/internals/features/recruitment/modules/model"
	"taportal_backend/internals/features/recruitment/modules/status"
	"taportal_backend/internals/helpers/apperror"
)

type Drift struct {
	Role     ledger.Role `json:"role"`
	Field    string      `json:"field"`
	Stored   int         `json:"stored"`
	Expected int         `json:"expected"`
}

type ModuleReport struct {
	ModuleID   uuid.UUID    `json:"moduleId"`
	ModuleCode string       `json:"moduleCode"`
	Status     status.Stage `json:"moduleStatus"`
	Drifts     []Drift      `json:"drifts,omitempty"`
	Violations []string     `json:"violations,omitempty"`
}

func (r ModuleReport) OK() bool { return len(r.Drifts) == 0 && len(r.Violations) == 0 }

type Report struct {
	Checked int            `json:"checked"`
	Broken  []ModuleReport `json:"broken"`
}

func (r Report) OK() bool { return len(r.Broken) == 0 }

type tally struct {
	ModuleID    uuid.UUID
	Role        ledger.Role
	Applied     int
	Reviewed    int
	Accepted    int
	DocsCounted int
	Appointed   int
}

// Reconcile compares each module's stored counters with the ones implied by
// its applications.
func Reconcile(ctx context.Context, db *gorm.DB) (Report, error) {
	db = db.WithContext(ctx)

	var mods []moduleModel.ModuleRecruitmentModel
	if err := db.Order("module_recruitment_code ASC").Find(&mods).Error; err != nil {
		return Report{}, apperror.FromStorage(err, "failed to load modules for audit")
	}

	var tallies []tally
	err := db.Model(&appModel.ApplicationModel{}).
		Select(`application_module_id AS module_id,
			application_role AS role,
			COUNT(*) AS applied,
			SUM(CASE WHEN application_status <> 'pending' THEN 1 ELSE 0 END) AS reviewed,
			SUM(CASE WHEN application_status = 'accepted' THEN 1 ELSE 0 END) AS accepted,
			SUM(CASE WHEN application_docs_counted THEN 1 ELSE 0 END) AS docs_counted,
			SUM(CASE WHEN application_appointed THEN 1 ELSE 0 END) AS appointed`).
		Group("application_module_id, application_role").
		Scan(&tallies).Error
	if err != nil {
		return Report{}, apperror.FromStorage(err, "failed to tally applications")
	}

	type key struct {
		id   uuid.UUID
		role ledger.Role
	}
	byKey := make(map[key]tally, len(tallies))
	for _, t := range tallies {
		byKey[key{t.ModuleID, t.Role}] = t
	}

	rep := Report{Checked: len(mods), Broken: []ModuleReport{}}
	for _, m := range mods {
		mr := ModuleReport{ModuleID: m.ModuleRecruitmentID, ModuleCode: m.ModuleRecruitmentCode, Status: m.ModuleRecruitmentStatus}
		l := m.Ledger()
		for _, r := range ledger.Roles {
			t := byKey[key{m.ModuleRecruitmentID, r}]
			b := l.Bucket(r)
			expected := ledger.Counts{
				Required:     b.Required,
				Remaining:    b.Required - t.Accepted,
				Applied:      t.Applied,
				Reviewed:     t.Reviewed,
				Accepted:     t.Accepted,
				DocSubmitted: t.DocsCounted,
				Appointed:    t.Appointed,
			}
			mr.Drifts = append(mr.Drifts, compare(r, b, expected)...)
		}
		if err := l.Validate(); err != nil {
			mr.Violations = append(mr.Violations, err.Error())
		}
		if m.ModuleRecruitmentStatus == status.Advertised && l.AllOpenRolesFull() {
			mr.Violations = append(mr.Violations, "every open role is filled but module is still advertised")
		}
		if m.ModuleRecruitmentStatus == status.Full && !l.AllOpenRolesFull() {
			mr.Violations = append(mr.Violations, "module is full but an open role has remaining slots")
		}
		if !mr.OK() {
			rep.Broken = append(rep.Broken, mr)
		}
	}
	return rep, nil
}

func compare(r ledger.Role, stored, expected ledger.Counts) []Drift {
	var out []Drift
	add := func(field string, s, e int) {
		if s != e {
			out = append(out, Drift{Role: r, Field: field, Stored: s, Expected: e})
		}
	}
	add(ledger.FieldRemaining, stored.Remaining, expected.Remaining)
	add(ledger.FieldApplied, stored.Applied, expected.Applied)
	add(ledger.FieldReviewed, stored.Reviewed, expected.Reviewed)
	add(ledger.FieldAccepted, stored.Accepted, expected.Accepted)
	add(ledger.FieldDocSubmitted, stored.DocSubmitted, expected.DocSubmitted)
	add(ledger.FieldAppointed, stored.Appointed, expected.Appointed)
	return out
}

// LogReport writes one line per broken module.
func LogReport(rep Report) {
	if rep.OK() {
		log.Printf("[AUDIT] %d modules checked, ledgers consistent", rep.Checked)
		return
	}
	for _, b := range rep.Broken {
		for _, d := range b.Drifts {
			log.Printf("[AUDIT] module=%s (%s) %s.%s stored=%d expected=%d",
				b.ModuleID, b.ModuleCode, d.Role, d.Field, d.Stored, d.Expected)
		}
		for _, v := range b.Violations {
			log.Printf("[AUDIT] module=%s (%s) %s", b.ModuleID, b.ModuleCode, v)
		}
	}
	log.Printf("[AUDIT] %d of %d modules inconsistent", len(rep.Broken), rep.Checked)
}

func (d Drift) String() string {
	return fmt.Sprintf("%s.%s stored=%d expected=%d", d.Role, d.Field, d.Stored, d.Expected)
}
