package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taportal_backend/internals/features/recruitment/applications/model"
	"taportal_backend/internals/features/recruitment/applications/service"
	"taportal_backend/internals/features/recruitment/ledger"
	modsvc "taportal_backend/internals/features/recruitment/modules/service"
	"taportal_backend/internals/features/recruitment/modules/status"
	"taportal_backend/internals/features/recruitment/notifications"
	"taportal_backend/internals/helpers/apperror"
	"taportal_backend/internals/testutil"
)

func apply(t *testing.T, sm *service.StateMachine, moduleID uuid.UUID, role ledger.Role) *model.ApplicationModel {
	t.Helper()
	app, err := sm.Apply(context.Background(), service.ApplyInput{ApplicantID: uuid.New(), ModuleID: moduleID, Role: role})
	require.NoError(t, err)
	return app
}

func TestScenarioAB_AcceptConsumesRemainingAndFillsModule(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	f := testutil.Advertised(t, db, testutil.Open(2), testutil.Closed)
	rec := notifications.NewMemoryDispatcher()
	sm := service.NewStateMachine(db, rec)

	u1 := apply(t, sm, f.ID, ledger.Undergraduate)
	assert.Equal(t, model.StatusPending, u1.ApplicationStatus)
	c := testutil.Reload(t, db, f.ID).ModuleRecruitmentUndergraduateCounts
	assert.Equal(t, 1, c.Applied)
	assert.Equal(t, 2, c.Remaining, "apply does not touch remaining")

	_, err := sm.Accept(ctx, u1.ApplicationID, f.Coordinator)
	require.NoError(t, err)
	m := testutil.Reload(t, db, f.ID)
	assert.Equal(t, 1, m.ModuleRecruitmentUndergraduateCounts.Remaining)
	assert.Equal(t, 1, m.ModuleRecruitmentUndergraduateCounts.Accepted)
	assert.Equal(t, status.Advertised, m.ModuleRecruitmentStatus)

	u2 := apply(t, sm, f.ID, ledger.Undergraduate)
	_, err = sm.Accept(ctx, u2.ApplicationID, f.Coordinator)
	require.NoError(t, err)
	m = testutil.Reload(t, db, f.ID)
	assert.Equal(t, 0, m.ModuleRecruitmentUndergraduateCounts.Remaining)
	assert.Equal(t, 2, m.ModuleRecruitmentUndergraduateCounts.Accepted)
	assert.Equal(t, status.Full, m.ModuleRecruitmentStatus)
	require.NoError(t, m.Ledger().Validate())

	assert.Contains(t, rec.Types(), notifications.ModuleFull)
}

func TestScenarioC_ConcurrentApplyForLastSlot(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.Advertised(t, db, testutil.Closed, testutil.Open(1))
	sm := service.NewStateMachine(db, nil)

	const callers = 6
	errs := make([]error, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = sm.Apply(context.Background(), service.ApplyInput{
				ApplicantID: uuid.New(), ModuleID: f.ID, Role: ledger.Postgraduate,
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
		assert.True(t, apperror.Is(err, apperror.CodeQuotaExhausted), "got %v", err)
	}
	assert.Equal(t, 1, ok)

	c := testutil.Reload(t, db, f.ID).ModuleRecruitmentPostgraduateCounts
	assert.Equal(t, 1, c.Applied)
	assert.Equal(t, 1, c.Remaining)

	var n int64
	require.NoError(t, db.Model(&model.ApplicationModel{}).Count(&n).Error)
	assert.EqualValues(t, 1, n, "losers leave no application row")
}

func TestScenarioD_RejectKeepsCountersAndIsFinal(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	f := testutil.Advertised(t, db, testutil.Open(1), testutil.Closed)
	sm := service.NewStateMachine(db, nil)

	app := apply(t, sm, f.ID, ledger.Undergraduate)
	got, err := sm.Reject(ctx, app.ApplicationID, f.Coordinator, "timetable clash")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.ApplicationStatus)
	require.NotNil(t, got.ApplicationRejectReason)

	c := testutil.Reload(t, db, f.ID).ModuleRecruitmentUndergraduateCounts
	assert.Equal(t, 1, c.Remaining)
	assert.Equal(t, 1, c.Applied)
	assert.Equal(t, 1, c.Reviewed)

	_, err = sm.Reject(ctx, app.ApplicationID, f.Coordinator, "")
	assert.True(t, apperror.Is(err, apperror.CodeAlreadyProcessed))
	_, err = sm.Accept(ctx, app.ApplicationID, f.Coordinator)
	assert.True(t, apperror.Is(err, apperror.CodeAlreadyProcessed))

	// the freed claim lets someone else in
	apply(t, sm, f.ID, ledger.Undergraduate)

	hist, err := sm.History(ctx, app.ApplicationID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Nil(t, hist[0].ApplicationStatusHistoryFrom)
	assert.Equal(t, model.StatusRejected, hist[1].ApplicationStatusHistoryTo)
}

func TestAccept_TwiceChangesLedgerOnce(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	f := testutil.Advertised(t, db, testutil.Open(3), testutil.Closed)
	sm := service.NewStateMachine(db, nil)
	app := apply(t, sm, f.ID, ledger.Undergraduate)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = sm.Accept(ctx, app.ApplicationID, f.Coordinator)
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.True(t, apperror.Is(err, apperror.CodeAlreadyProcessed), "got %v", err)
		}
	}
	assert.Equal(t, 1, failures)

	c := testutil.Reload(t, db, f.ID).ModuleRecruitmentUndergraduateCounts
	assert.Equal(t, 2, c.Remaining)
	assert.Equal(t, 1, c.Accepted)
}

func TestApply_Refusals(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	sm := service.NewStateMachine(db, nil)
	f := testutil.Advertised(t, db, testutil.Open(2), testutil.Closed)

	_, err := sm.Apply(ctx, service.ApplyInput{ApplicantID: uuid.New(), ModuleID: uuid.New(), Role: ledger.Undergraduate})
	assert.True(t, apperror.Is(err, apperror.CodeModuleNotFound))

	_, err = sm.Apply(ctx, service.ApplyInput{ApplicantID: uuid.New(), ModuleID: f.ID, Role: ledger.Postgraduate})
	assert.True(t, apperror.Is(err, apperror.CodeRoleNotEligible))

	_, err = sm.Apply(ctx, service.ApplyInput{ApplicantID: uuid.New(), ModuleID: f.ID, Role: ledger.Undergraduate, SeriesID: uuid.New()})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = sm.Apply(ctx, service.ApplyInput{ApplicantID: uuid.New(), ModuleID: f.ID, Role: ledger.Undergraduate, TAHours: 40})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	applicant := uuid.New()
	first, err := sm.Apply(ctx, service.ApplyInput{ApplicantID: applicant, ModuleID: f.ID, Role: ledger.Undergraduate, SeriesID: f.SeriesID})
	require.NoError(t, err)
	assert.Equal(t, 6, first.ApplicationTAHours)
	_, err = sm.Apply(ctx, service.ApplyInput{ApplicantID: applicant, ModuleID: f.ID, Role: ledger.Undergraduate})
	assert.True(t, apperror.Is(err, apperror.CodeDuplicateApplication))

	_, err = sm.Reject(ctx, first.ApplicationID, f.Coordinator, "")
	require.NoError(t, err)
	_, err = sm.Apply(ctx, service.ApplyInput{ApplicantID: applicant, ModuleID: f.ID, Role: ledger.Undergraduate})
	assert.True(t, apperror.Is(err, apperror.CodeDuplicateApplication), "re-applying after rejection stays blocked")

	assert.Equal(t, 1, testutil.Reload(t, db, f.ID).ModuleRecruitmentUndergraduateCounts.Applied)
}

func TestDecide_AuthorizationAndLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	sm := service.NewStateMachine(db, nil)
	f := testutil.Advertised(t, db, testutil.Open(2), testutil.Closed)
	app := apply(t, sm, f.ID, ledger.Undergraduate)

	_, err := sm.Accept(ctx, uuid.New(), f.Coordinator)
	assert.True(t, apperror.Is(err, apperror.CodeApplicationNotFound))

	_, err = sm.Accept(ctx, app.ApplicationID, uuid.New())
	assert.True(t, apperror.Is(err, apperror.CodeNotAuthorized))

	_, err = modsvc.NewModuleService(db, nil).Close(ctx, f.ID)
	require.NoError(t, err)

	_, err = sm.Apply(ctx, service.ApplyInput{ApplicantID: uuid.New(), ModuleID: f.ID, Role: ledger.Undergraduate})
	assert.True(t, apperror.Is(err, apperror.CodeModuleNotAcceptingApplications))
	_, err = sm.Accept(ctx, app.ApplicationID, f.Coordinator)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidStatusTransition))
	_, err = sm.Reject(ctx, app.ApplicationID, f.Coordinator, "")
	assert.True(t, apperror.Is(err, apperror.CodeInvalidStatusTransition))

	c := testutil.Reload(t, db, f.ID).ModuleRecruitmentUndergraduateCounts
	assert.Equal(t, 0, c.Reviewed)
}

func TestAccept_FullModuleKeepsAcceptingPendingUntilRemainingIsGone(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	sm := service.NewStateMachine(db, nil)
	f := testutil.Advertised(t, db, testutil.Open(1), testutil.Open(1))

	ug := apply(t, sm, f.ID, ledger.Undergraduate)
	pg := apply(t, sm, f.ID, ledger.Postgraduate)

	_, err := sm.Accept(ctx, ug.ApplicationID, f.Coordinator)
	require.NoError(t, err)
	assert.Equal(t, status.Advertised, testutil.Reload(t, db, f.ID).ModuleRecruitmentStatus, "pg still has a slot")

	_, err = sm.Accept(ctx, pg.ApplicationID, f.Coordinator)
	require.NoError(t, err)
	assert.Equal(t, status.Full, testutil.Reload(t, db, f.ID).ModuleRecruitmentStatus)

	_, err = sm.Apply(ctx, service.ApplyInput{ApplicantID: uuid.New(), ModuleID: f.ID, Role: ledger.Postgraduate})
	assert.True(t, apperror.Is(err, apperror.CodeModuleNotAcceptingApplications))
}

func TestReadModels(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	sm := service.NewStateMachine(db, nil)
	f := testutil.Advertised(t, db, testutil.Open(2), testutil.Closed)
	other := testutil.Advertised(t, db, testutil.Open(1), testutil.Closed)

	applicant := uuid.New()
	a1, err := sm.Apply(ctx, service.ApplyInput{ApplicantID: applicant, ModuleID: f.ID, Role: ledger.Undergraduate})
	require.NoError(t, err)
	_, err = sm.Apply(ctx, service.ApplyInput{ApplicantID: applicant, ModuleID: other.ID, Role: ledger.Undergraduate})
	require.NoError(t, err)
	apply(t, sm, f.ID, ledger.Undergraduate)

	pending, err := sm.ListPendingForApplicant(ctx, applicant)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	inbox, err := sm.Inbox(ctx, f.Coordinator)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Len(t, inbox[0].Applications, 2)

	_, err = sm.Accept(ctx, a1.ApplicationID, f.Coordinator)
	require.NoError(t, err)

	accepted, err := sm.ListAcceptedForApplicant(ctx, applicant)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, f.ID, accepted[0].Module.ModuleRecruitmentID)
	assert.Nil(t, accepted[0].DocumentStatus)

	withTAs, err := sm.ModulesWithAccepted(ctx, f.Coordinator)
	require.NoError(t, err)
	require.Len(t, withTAs, 1)
	assert.Len(t, withTAs[0].Applications, 1)

	empty, err := sm.Inbox(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
