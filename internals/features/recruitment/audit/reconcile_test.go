package audit_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appService "taportal_backend/internals/features/recruitment/applications/service"
	"taportal_backend/internals/features/recruitment/audit"
	"taportal_backend/internals/features/recruitment/ledger"
	"taportal_backend/internals/features/recruitment/modules/model"
	"taportal_backend/internals/testutil"
)

func TestReconcile(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	f := testutil.Advertised(t, db, testutil.Open(3), testutil.Open(1))
	testutil.SeedModule(t, db, testutil.Open(2), testutil.Closed)

	sm := appService.NewStateMachine(db, nil)
	for i := 0; i < 3; i++ {
		app, err := sm.Apply(ctx, appService.ApplyInput{ApplicantID: uuid.New(), ModuleID: f.ID, Role: ledger.Undergraduate})
		require.NoError(t, err)
		if i == 0 {
			_, err = sm.Accept(ctx, app.ApplicationID, f.Coordinator)
		} else if i == 1 {
			_, err = sm.Reject(ctx, app.ApplicationID, f.Coordinator, "")
		}
		require.NoError(t, err)
	}

	rep, err := audit.Reconcile(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Checked)
	assert.True(t, rep.OK(), "%+v", rep.Broken)

	// corrupt the stored counter behind the ledger's back
	require.NoError(t, db.Model(&model.ModuleRecruitmentModel{}).
		Where(model.ColID+" = ?", f.ID).
		Update(model.CountColumn(ledger.Undergraduate, ledger.FieldApplied), 7).Error)

	rep, err = audit.Reconcile(ctx, db)
	require.NoError(t, err)
	require.Len(t, rep.Broken, 1)
	require.Len(t, rep.Broken[0].Drifts, 1)
	d := rep.Broken[0].Drifts[0]
	assert.Equal(t, ledger.FieldApplied, d.Field)
	assert.Equal(t, 7, d.Stored)
	assert.Equal(t, 3, d.Expected)
	audit.LogReport(rep)
}

func TestStartScheduler_RejectsBadSpec(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := audit.StartScheduler(db, audit.SchedulerConfig{AuditSpec: "every now and then"})
	assert.Error(t, err)

	c, err := audit.StartScheduler(db, audit.SchedulerConfig{AuditSpec: "*/30 * * * *", TTLDays: 7})
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)
	c.Stop()
}
