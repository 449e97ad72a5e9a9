package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taportal_backend/internals/features/recruitment/ledger"
	"taportal_backend/internals/features/recruitment/modules/service"
	"taportal_backend/internals/features/recruitment/modules/status"
	"taportal_backend/internals/features/recruitment/notifications"
	"taportal_backend/internals/helpers/apperror"
	"taportal_backend/internals/testutil"
)

func TestCreate_RequiresAnOpenRole(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewModuleService(db, nil)

	_, err := svc.Create(context.Background(), service.CreateModuleInput{
		SeriesID: uuid.New(), Code: "cs101", Name: "Intro",
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = svc.Create(context.Background(), service.CreateModuleInput{OpenForPostgraduates: true})
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Fields, "moduleCode")
	assert.Contains(t, ae.Fields, "recSeriesId")
}

func TestLifecycle_AdvertiseNotifiesEachOpenRole(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.SeedModule(t, db, testutil.Open(2), testutil.Open(1))
	assert.Equal(t, status.ChangesSubmitted, f.Module.ModuleRecruitmentStatus)
	assert.Equal(t, 2, f.Module.ModuleRecruitmentUndergraduateCounts.Remaining)

	rec := notifications.NewMemoryDispatcher()
	svc := service.NewModuleService(db, rec)
	m, err := svc.Advertise(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, status.Advertised, m.ModuleRecruitmentStatus)

	var audiences []string
	for _, ev := range rec.Events() {
		assert.Equal(t, notifications.ModuleAdvertised, ev.Type)
		audiences = append(audiences, ev.Audience)
	}
	assert.ElementsMatch(t, []string{"undergraduate-applicants", "postgraduate-applicants"}, audiences)

	_, err = svc.Advertise(context.Background(), f.ID)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidStatusTransition))

	_, err = svc.Close(context.Background(), f.ID)
	require.NoError(t, err)
	_, err = svc.Advertise(context.Background(), f.ID)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidStatusTransition), "advertising a closed module")

	m, err = svc.Archive(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, status.Archived, m.ModuleRecruitmentStatus)
}

func TestAdvertise_NothingRequiredIsFull(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.SeedModule(t, db, testutil.Open(0), testutil.Closed)

	rec := notifications.NewMemoryDispatcher()
	m, err := service.NewModuleService(db, rec).Advertise(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, status.Full, m.ModuleRecruitmentStatus)
	assert.Equal(t, []notifications.EventType{notifications.ModuleAdvertised, notifications.ModuleFull}, rec.Types())
}

func TestSubmitRequirements(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	f := testutil.SeedModule(t, db, testutil.Open(1), testutil.Closed)
	svc := service.NewModuleService(db, nil)

	_, err := svc.SubmitRequirements(ctx, f.ID, uuid.New(), service.RequirementsInput{Undergraduate: testutil.Open(3)})
	assert.True(t, apperror.Is(err, apperror.CodeNotAuthorized))

	hours := 8
	m, err := svc.SubmitRequirements(ctx, f.ID, f.Coordinator, service.RequirementsInput{
		Undergraduate: testutil.Open(3),
		Postgraduate:  testutil.Open(2),
		RequiredHours: &hours,
	})
	require.NoError(t, err)
	assert.Equal(t, status.ChangesSubmitted, m.ModuleRecruitmentStatus)
	assert.True(t, m.ModuleRecruitmentOpenForPostgraduates)
	assert.Equal(t, 2, m.ModuleRecruitmentPostgraduateCounts.Remaining)
	assert.Equal(t, 8, m.ModuleRecruitmentRequiredHours)
	require.NoError(t, m.Ledger().Validate())

	stale := f.Module.ModuleRecruitmentVersion
	_, err = svc.SubmitRequirements(ctx, f.ID, f.Coordinator, service.RequirementsInput{
		Undergraduate:   testutil.Open(1),
		ExpectedVersion: &stale,
	})
	assert.True(t, apperror.Is(err, apperror.CodeConcurrentModification))

	_, err = svc.SubmitRequirements(ctx, f.ID, f.Coordinator, service.RequirementsInput{})
	assert.True(t, apperror.Is(err, apperror.CodeValidation), "closed to every role")

	_, err = svc.Advertise(ctx, f.ID)
	require.NoError(t, err)
	_, err = svc.SubmitRequirements(ctx, f.ID, f.Coordinator, service.RequirementsInput{Undergraduate: testutil.Open(4)})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidStatusTransition), "no edits once advertised")
}

func TestListOpenForRole(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	ugOnly := testutil.Advertised(t, db, testutil.Open(2), testutil.Closed)
	both := testutil.Advertised(t, db, testutil.Open(1), testutil.Open(1))
	testutil.SeedModule(t, db, testutil.Open(5), testutil.Open(5)) // not advertised

	svc := service.NewModuleService(db, nil)
	ug, err := svc.ListOpenForRole(ctx, ledger.Undergraduate)
	require.NoError(t, err)
	assert.Len(t, ug, 2)

	pg, err := svc.ListOpenForRole(ctx, ledger.Postgraduate)
	require.NoError(t, err)
	require.Len(t, pg, 1)
	assert.Equal(t, both.ID, pg[0].Module.ModuleRecruitmentID)
	assert.Equal(t, 1, pg[0].Remaining)

	mine, err := svc.ListForCoordinator(ctx, ugOnly.Coordinator)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, ugOnly.ID, mine[0].ModuleRecruitmentID)
	require.Len(t, mine[0].Coordinators, 1)

	none, err := svc.ListForCoordinator(ctx, ugOnly.Coordinator, status.Closed)
	require.NoError(t, err)
	assert.Empty(t, none)
}
