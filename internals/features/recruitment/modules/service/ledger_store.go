package service

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/ledger"
	"taportal_backend/internals/features/recruitment/modules/model"
	"taportal_backend/internals/features/recruitment/modules/status"
	"taportal_backend/internals/helpers/apperror"
)

// LedgerStore is the only writer of the quota counters. Every method issues a
// single conditional UPDATE and must run inside the caller's transaction.
type LedgerStore interface {
	ClaimApplication(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role) error
	ConsumeOnAccept(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role) error
	RecordReject(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role) error
	RecordDocSubmitted(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role) error
	RecordAppointed(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role) error
	ReevaluateFull(tx *gorm.DB, moduleID uuid.UUID) (bool, error)
	UpdateRequirements(tx *gorm.DB, moduleID uuid.UUID, expectedVersion int64, next ledger.Ledger, requiredHours int) error
}

type ledgerStore struct{}

func NewLedgerStore() LedgerStore {
	return &ledgerStore{}
}

// FindModule reads a module row (with coordinators) inside tx.
func FindModule(tx *gorm.DB, moduleID uuid.UUID) (*model.ModuleRecruitmentModel, error) {
	var m model.ModuleRecruitmentModel
	err := tx.Preload("Coordinators").
		Where(model.ColID+" = ?", moduleID).
		Take(&m).Error
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.New(apperror.CodeModuleNotFound, "module recruitment not found")
		}
		return nil, apperror.FromStorage(err, "failed to load module recruitment")
	}
	return &m, nil
}

func col(role ledger.Role, field string) string { return model.CountColumn(role, field) }

func stageIn(stages []status.Stage) []string {
	out := make([]string, 0, len(stages))
	for _, s := range stages {
		out = append(out, string(s))
	}
	return out
}

// bump runs `UPDATE module_recruitments SET <field> = <field> + 1 ... WHERE id AND
// stage allowed AND role open AND <predicate>`.
func (s *ledgerStore) bump(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role, op status.Operation,
	predicate string, incr ...string) (int64, error) {

	sets := map[string]any{
		model.ColVersion: gorm.Expr(model.ColVersion + " + 1"),
		model.ColUpdated: time.Now(),
	}
	for _, f := range incr {
		c := col(role, f)
		sets[c] = gorm.Expr(c + " + 1")
	}
	if op == status.OpAccept {
		c := col(role, ledger.FieldRemaining)
		sets[c] = gorm.Expr(c + " - 1")
	}

	res := tx.Model(&model.ModuleRecruitmentModel{}).
		Where(model.ColID+" = ?", moduleID).
		Where(model.ColStatus+" IN ?", stageIn(status.AllowedStages(op))).
		Where(model.OpenColumn(role)+" = ?", true).
		Where(predicate).
		Updates(sets)
	if res.Error != nil {
		return 0, apperror.FromStorage(res.Error, "failed to update module ledger")
	}
	return res.RowsAffected, nil
}

// classify re-reads the module after a conditional write matched no row and
// turns the current state into the refusal the caller should see. When the
// fresh state would have allowed the write, another writer won the race.
func (s *ledgerStore) classify(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role, op status.Operation,
	check func(ledger.Ledger) (ledger.Ledger, error)) error {

	m, err := FindModule(tx, moduleID)
	if err != nil {
		return err
	}
	if err := status.Guard(m.ModuleRecruitmentStatus, op); err != nil {
		return err
	}
	if _, err := check(m.Ledger()); err != nil {
		return err
	}
	return apperror.New(apperror.CodeConcurrentModification, "module ledger changed concurrently, retry the request")
}

func openSlotsPredicate(role ledger.Role) string {
	return fmt.Sprintf("%s - (%s - %s) > 0",
		col(role, ledger.FieldRemaining), col(role, ledger.FieldApplied), col(role, ledger.FieldReviewed))
}

func pendingPredicate(role ledger.Role) string {
	return fmt.Sprintf("%s - %s > 0", col(role, ledger.FieldApplied), col(role, ledger.FieldReviewed))
}

// ClaimApplication counts a new pending application. The open-slot test and
// the increment of applied are one statement, so two applicants racing for
// the last slot can never both pass.
func (s *ledgerStore) ClaimApplication(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role) error {
	rows, err := s.bump(tx, moduleID, role, status.OpApply, openSlotsPredicate(role), ledger.FieldApplied)
	if err != nil {
		log.Printf("[LEDGER] ERROR Claim module=%s role=%s err=%v", moduleID, role, err)
		return err
	}
	if rows == 1 {
		log.Printf("[LEDGER] SUCCESS Claim module=%s role=%s", moduleID, role)
		return nil
	}
	err = s.classify(tx, moduleID, role, status.OpApply, func(l ledger.Ledger) (ledger.Ledger, error) { return l.Claim(role) })
	log.Printf("[LEDGER] FAIL Claim module=%s role=%s err=%v", moduleID, role, err)
	return err
}

// ConsumeOnAccept takes one slot: remaining-1, accepted+1, reviewed+1.
func (s *ledgerStore) ConsumeOnAccept(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role) error {
	pred := fmt.Sprintf("%s > 0 AND %s", col(role, ledger.FieldRemaining), pendingPredicate(role))
	rows, err := s.bump(tx, moduleID, role, status.OpAccept, pred, ledger.FieldAccepted, ledger.FieldReviewed)
	if err != nil {
		log.Printf("[LEDGER] ERROR Accept module=%s role=%s err=%v", moduleID, role, err)
		return err
	}
	if rows == 1 {
		log.Printf("[LEDGER] SUCCESS Accept module=%s role=%s", moduleID, role)
		return nil
	}
	err = s.classify(tx, moduleID, role, status.OpAccept, func(l ledger.Ledger) (ledger.Ledger, error) { return l.Accept(role) })
	log.Printf("[LEDGER] FAIL Accept module=%s role=%s err=%v", moduleID, role, err)
	return err
}

// RecordReject releases the pending claim. Remaining and applied are untouched.
func (s *ledgerStore) RecordReject(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role) error {
	rows, err := s.bump(tx, moduleID, role, status.OpReject, pendingPredicate(role), ledger.FieldReviewed)
	if err != nil {
		log.Printf("[LEDGER] ERROR Reject module=%s role=%s err=%v", moduleID, role, err)
		return err
	}
	if rows == 1 {
		log.Printf("[LEDGER] SUCCESS Reject module=%s role=%s", moduleID, role)
		return nil
	}
	err = s.classify(tx, moduleID, role, status.OpReject, func(l ledger.Ledger) (ledger.Ledger, error) { return l.Reject(role) })
	log.Printf("[LEDGER] FAIL Reject module=%s role=%s err=%v", moduleID, role, err)
	return err
}

func (s *ledgerStore) RecordDocSubmitted(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role) error {
	pred := fmt.Sprintf("%s < %s", col(role, ledger.FieldDocSubmitted), col(role, ledger.FieldAccepted))
	rows, err := s.bump(tx, moduleID, role, status.OpSubmitDocuments, pred, ledger.FieldDocSubmitted)
	if err != nil {
		log.Printf("[LEDGER] ERROR DocSubmitted module=%s role=%s err=%v", moduleID, role, err)
		return err
	}
	if rows == 1 {
		log.Printf("[LEDGER] SUCCESS DocSubmitted module=%s role=%s", moduleID, role)
		return nil
	}
	err = s.classify(tx, moduleID, role, status.OpSubmitDocuments, func(l ledger.Ledger) (ledger.Ledger, error) {
		return l.RecordDocSubmitted(role)
	})
	log.Printf("[LEDGER] FAIL DocSubmitted module=%s role=%s err=%v", moduleID, role, err)
	return err
}

func (s *ledgerStore) RecordAppointed(tx *gorm.DB, moduleID uuid.UUID, role ledger.Role) error {
	pred := fmt.Sprintf("%s < %s", col(role, ledger.FieldAppointed), col(role, ledger.FieldDocSubmitted))
	rows, err := s.bump(tx, moduleID, role, status.OpAppoint, pred, ledger.FieldAppointed)
	if err != nil {
		log.Printf("[LEDGER] ERROR Appoint module=%s role=%s err=%v", moduleID, role, err)
		return err
	}
	if rows == 1 {
		log.Printf("[LEDGER] SUCCESS Appoint module=%s role=%s", moduleID, role)
		return nil
	}
	err = s.classify(tx, moduleID, role, status.OpAppoint, func(l ledger.Ledger) (ledger.Ledger, error) {
		return l.RecordAppointed(role)
	})
	log.Printf("[LEDGER] FAIL Appoint module=%s role=%s err=%v", moduleID, role, err)
	return err
}

// ReevaluateFull flips advertised -> full when no open role has a remaining
// slot. It reports whether this call made the flip.
func (s *ledgerStore) ReevaluateFull(tx *gorm.DB, moduleID uuid.UUID) (bool, error) {
	full := fmt.Sprintf("(%s = ? OR %s <= 0) AND (%s = ? OR %s <= 0) AND (%s = ? OR %s = ?)",
		model.OpenColumn(ledger.Undergraduate), col(ledger.Undergraduate, ledger.FieldRemaining),
		model.OpenColumn(ledger.Postgraduate), col(ledger.Postgraduate, ledger.FieldRemaining),
		model.OpenColumn(ledger.Undergraduate), model.OpenColumn(ledger.Postgraduate),
	)
	res := tx.Model(&model.ModuleRecruitmentModel{}).
		Where(model.ColID+" = ?", moduleID).
		Where(model.ColStatus+" = ?", string(status.Advertised)).
		Where(full, false, false, true, true).
		Updates(map[string]any{
			model.ColStatus:  string(status.Full),
			model.ColVersion: gorm.Expr(model.ColVersion + " + 1"),
			model.ColUpdated: time.Now(),
		})
	if res.Error != nil {
		log.Printf("[LEDGER] ERROR ReevaluateFull module=%s err=%v", moduleID, res.Error)
		return false, apperror.FromStorage(res.Error, "failed to re-evaluate module status")
	}
	if res.RowsAffected == 1 {
		log.Printf("[LEDGER] module=%s is now full", moduleID)
		return true, nil
	}
	return false, nil
}

// UpdateRequirements writes new open flags and required/remaining counts.
// The write is stamped on expectedVersion; a lost race is reported as
// ConcurrentModification.
func (s *ledgerStore) UpdateRequirements(tx *gorm.DB, moduleID uuid.UUID, expectedVersion int64, next ledger.Ledger, requiredHours int) error {
	sets := map[string]any{
		model.OpenColumn(ledger.Undergraduate): next.OpenForUndergraduates,
		model.OpenColumn(ledger.Postgraduate):  next.OpenForPostgraduates,
		"module_recruitment_required_hours":    requiredHours,
		model.ColVersion:                       gorm.Expr(model.ColVersion + " + 1"),
		model.ColUpdated:                       time.Now(),
	}
	for _, r := range ledger.Roles {
		b := next.Bucket(r)
		sets[col(r, ledger.FieldRequired)] = b.Required
		sets[col(r, ledger.FieldRemaining)] = b.Remaining
	}

	res := tx.Model(&model.ModuleRecruitmentModel{}).
		Where(model.ColID+" = ? AND "+model.ColVersion+" = ?", moduleID, expectedVersion).
		Where(model.ColStatus+" IN ?", stageIn(status.AllowedStages(status.OpEditRequirements))).
		Updates(sets)
	if res.Error != nil {
		log.Printf("[LEDGER] ERROR UpdateRequirements module=%s err=%v", moduleID, res.Error)
		return apperror.FromStorage(res.Error, "failed to update requirements")
	}
	if res.RowsAffected == 1 {
		log.Printf("[LEDGER] SUCCESS UpdateRequirements module=%s version=%d", moduleID, expectedVersion+1)
		return nil
	}

	m, err := FindModule(tx, moduleID)
	if err != nil {
		return err
	}
	if err := status.Guard(m.ModuleRecruitmentStatus, status.OpEditRequirements); err != nil {
		return err
	}
	log.Printf("[LEDGER] FAIL UpdateRequirements module=%s stale version=%d current=%d", moduleID, expectedVersion, m.ModuleRecruitmentVersion)
	return apperror.New(apperror.CodeConcurrentModification, "module was modified by someone else, reload and retry")
}
