package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/applications/model"
	"taportal_backend/internals/features/recruitment/applications/service"
	"taportal_backend/internals/features/recruitment/ledger"
	"taportal_backend/internals/helpers/apperror"
	"taportal_backend/internals/testutil"
)

// The module row is read, then another applicant takes the last slot before
// this transaction writes. The claim must be refused from the current row,
// not granted from the stale read.
func TestApply_SlotTakenAfterModuleWasRead(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.Advertised(t, db, testutil.Closed, testutil.Open(1))
	sm := service.NewStateMachine(db, nil)

	taken := false
	err := db.Callback().Query().After("gorm:query").Register("test:take_slot", func(d *gorm.DB) {
		if taken || d.Statement.Table != "module_recruitments" {
			return
		}
		taken = true
		_, err := d.Statement.ConnPool.ExecContext(d.Statement.Context,
			"UPDATE module_recruitments SET module_recruitment_pg_applied = module_recruitment_pg_applied + 1 WHERE module_recruitment_id = ?",
			f.ID)
		require.NoError(t, err)
	})
	require.NoError(t, err)

	_, err = sm.Apply(context.Background(), service.ApplyInput{ApplicantID: uuid.New(), ModuleID: f.ID, Role: ledger.Postgraduate})
	require.True(t, taken)
	assert.True(t, apperror.Is(err, apperror.CodeQuotaExhausted), "got %v", err)

	c := testutil.Reload(t, db, f.ID).ModuleRecruitmentPostgraduateCounts
	assert.Equal(t, 1, c.Applied)
	var n int64
	require.NoError(t, db.Model(&model.ApplicationModel{}).Count(&n).Error)
	assert.Zero(t, n)
}

// Overlapping transactions on a pooled Postgres connection. Runs only when
// TEST_DATABASE_URL is set.
func TestApply_RaceForLastSlotOnPostgres(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	f := testutil.Advertised(t, db, testutil.Open(1), testutil.Closed)
	sm := service.NewStateMachine(db, nil)

	const callers = 12
	errs := make([]error, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = sm.Apply(context.Background(), service.ApplyInput{
				ApplicantID: uuid.New(), ModuleID: f.ID, Role: ledger.Undergraduate,
			})
		}(i)
	}
	close(start)
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t,
			apperror.Is(err, apperror.CodeQuotaExhausted) || apperror.Is(err, apperror.CodeConcurrentModification),
			"got %v", err)
	}
	assert.Equal(t, 1, ok)

	m := testutil.Reload(t, db, f.ID)
	assert.Equal(t, 1, m.ModuleRecruitmentUndergraduateCounts.Applied)
	require.NoError(t, m.Ledger().Validate())

	var n int64
	require.NoError(t, db.Model(&model.ApplicationModel{}).
		Where(model.ColModuleID+" = ?", f.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}
