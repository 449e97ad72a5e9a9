package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/ledger"
	"taportal_backend/internals/features/recruitment/modules/service"
	"taportal_backend/internals/features/recruitment/modules/status"
	"taportal_backend/internals/helpers/apperror"
	"taportal_backend/internals/testutil"
)

const moduleTable = "module_recruitments"

// watchLedgerWrites records RowsAffected of every UPDATE on the module table.
func watchLedgerWrites(t *testing.T, db *gorm.DB) *[]int64 {
	t.Helper()
	rows := &[]int64{}
	err := db.Callback().Update().After("gorm:update").Register("test:ledger_rows", func(d *gorm.DB) {
		if d.Statement.Table == moduleTable {
			*rows = append(*rows, d.RowsAffected)
		}
	})
	require.NoError(t, err)
	return rows
}

func TestClaimApplication_RefusesRowWithNoOpenSlot(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.Advertised(t, db, testutil.Open(1), testutil.Closed)
	// another applicant holds the only slot
	testutil.SetCounts(t, db, f.ID, ledger.Undergraduate, ledger.Counts{Required: 1, Remaining: 1, Applied: 1})
	before := testutil.Reload(t, db, f.ID)

	rows := watchLedgerWrites(t, db)
	store := service.NewLedgerStore()

	err := store.ClaimApplication(db, f.ID, ledger.Undergraduate)
	assert.True(t, apperror.Is(err, apperror.CodeQuotaExhausted), "got %v", err)
	assert.Equal(t, []int64{0}, *rows)

	after := testutil.Reload(t, db, f.ID)
	assert.Equal(t, before.ModuleRecruitmentVersion, after.ModuleRecruitmentVersion)
	assert.Equal(t, 1, after.ModuleRecruitmentUndergraduateCounts.Applied)

	err = store.ClaimApplication(db, f.ID, ledger.Postgraduate)
	assert.True(t, apperror.Is(err, apperror.CodeRoleNotEligible), "got %v", err)
	assert.Equal(t, []int64{0, 0}, *rows)
}

func TestConsumeOnAccept_RefusesExhaustedOrSettledRow(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.Advertised(t, db, testutil.Open(1), testutil.Closed)
	store := service.NewLedgerStore()

	// someone else was accepted into the last slot; one claim is still pending
	testutil.SetCounts(t, db, f.ID, ledger.Undergraduate,
		ledger.Counts{Required: 1, Remaining: 0, Applied: 2, Reviewed: 1, Accepted: 1})
	rows := watchLedgerWrites(t, db)

	err := store.ConsumeOnAccept(db, f.ID, ledger.Undergraduate)
	assert.True(t, apperror.Is(err, apperror.CodeQuotaExhausted), "got %v", err)
	assert.Equal(t, []int64{0}, *rows)
	c := testutil.Reload(t, db, f.ID).ModuleRecruitmentUndergraduateCounts
	assert.Equal(t, 0, c.Remaining, "never driven negative")
	assert.Equal(t, 1, c.Accepted)

	// slot free but every claim already reviewed
	testutil.SetCounts(t, db, f.ID, ledger.Undergraduate,
		ledger.Counts{Required: 2, Remaining: 1, Applied: 1, Reviewed: 1, Accepted: 1})
	*rows = (*rows)[:0]
	err = store.ConsumeOnAccept(db, f.ID, ledger.Undergraduate)
	assert.True(t, apperror.Is(err, apperror.CodeInvariantViolation), "got %v", err)
	assert.Equal(t, []int64{0}, *rows)
}

func TestRecordAppointed_RefusesWhenEveryDocumentedTAIsAppointed(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.SeedModule(t, db, testutil.Open(1), testutil.Closed, status.ActionAdvertise, status.ActionStartDocuments)
	store := service.NewLedgerStore()

	testutil.SetCounts(t, db, f.ID, ledger.Undergraduate, ledger.Counts{
		Required: 1, Remaining: 0, Applied: 1, Reviewed: 1, Accepted: 1, DocSubmitted: 1, Appointed: 1,
	})
	rows := watchLedgerWrites(t, db)

	err := store.RecordAppointed(db, f.ID, ledger.Undergraduate)
	assert.True(t, apperror.Is(err, apperror.CodeAlreadyAppointed), "got %v", err)
	assert.Equal(t, []int64{0}, *rows)
	assert.Equal(t, 1, testutil.Reload(t, db, f.ID).ModuleRecruitmentUndergraduateCounts.Appointed)

	advertised := testutil.Advertised(t, db, testutil.Open(1), testutil.Closed)
	err = store.RecordAppointed(db, advertised.ID, ledger.Undergraduate)
	assert.True(t, apperror.Is(err, apperror.CodeModuleNotAcceptingDocuments), "got %v", err)
}

func TestClaimApplication_LostRaceIsConcurrentModification(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.Advertised(t, db, testutil.Open(1), testutil.Closed)
	testutil.SetCounts(t, db, f.ID, ledger.Undergraduate, ledger.Counts{Required: 1, Remaining: 1, Applied: 1})

	// the competing claim is rejected between the refused write and the re-read
	released := false
	err := db.Callback().Update().After("gorm:update").Register("test:release_claim", func(d *gorm.DB) {
		if released || d.Statement.Table != moduleTable || d.RowsAffected != 0 {
			return
		}
		released = true
		_, err := d.Statement.ConnPool.ExecContext(d.Statement.Context,
			"UPDATE module_recruitments SET module_recruitment_ug_reviewed = module_recruitment_ug_reviewed + 1 WHERE module_recruitment_id = ?",
			f.ID)
		require.NoError(t, err)
	})
	require.NoError(t, err)

	store := service.NewLedgerStore()
	err = db.Transaction(func(tx *gorm.DB) error {
		return store.ClaimApplication(tx, f.ID, ledger.Undergraduate)
	})
	require.True(t, released)
	assert.True(t, apperror.Is(err, apperror.CodeConcurrentModification), "got %v", err)
}

func TestUpdateRequirements_StaleVersion(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.SeedModule(t, db, testutil.Open(1), testutil.Closed)
	m := testutil.Reload(t, db, f.ID)
	next, err := m.Ledger().SetRequirements(testutil.Open(3), testutil.Closed)
	require.NoError(t, err)

	store := service.NewLedgerStore()
	require.NoError(t, store.UpdateRequirements(db, f.ID, m.ModuleRecruitmentVersion, next, 6))

	err = store.UpdateRequirements(db, f.ID, m.ModuleRecruitmentVersion, next, 6)
	assert.True(t, apperror.Is(err, apperror.CodeConcurrentModification), "got %v", err)

	err = store.UpdateRequirements(db, uuid.New(), 1, next, 6)
	assert.True(t, apperror.Is(err, apperror.CodeModuleNotFound), "got %v", err)
}
