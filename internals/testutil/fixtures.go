package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/ledger"
	"taportal_backend/internals/features/recruitment/modules/model"
	modsvc "taportal_backend/internals/features/recruitment/modules/service"
	"taportal_backend/internals/features/recruitment/modules/status"
	"taportal_backend/internals/features/recruitment/notifications"
)

type ModuleFixture struct {
	ID          uuid.UUID
	SeriesID    uuid.UUID
	Coordinator uuid.UUID
	Module      *model.ModuleRecruitmentModel
}

func Open(n int) ledger.Requirement { return ledger.Requirement{Open: true, Required: n} }

var Closed = ledger.Requirement{}

// SeedModule creates a module with one coordinator, submits ug/pg
// requirements (leaving it changes-submitted) and then runs actions.
func SeedModule(t testing.TB, db *gorm.DB, ug, pg ledger.Requirement, actions ...status.Action) ModuleFixture {
	t.Helper()
	return SeedModuleInSeries(t, db, uuid.New(), ug, pg, actions...)
}

// SeedModuleInSeries is SeedModule for a given recruitment series.
func SeedModuleInSeries(t testing.TB, db *gorm.DB, seriesID uuid.UUID, ug, pg ledger.Requirement, actions ...status.Action) ModuleFixture {
	t.Helper()
	ctx := context.Background()
	svc := modsvc.NewModuleService(db, notifications.NewMemoryDispatcher())

	f := ModuleFixture{SeriesID: seriesID, Coordinator: uuid.New()}
	m, err := svc.Create(ctx, modsvc.CreateModuleInput{
		SeriesID:              f.SeriesID,
		Code:                  "comp" + uuid.NewString()[:4],
		Name:                  "Software Engineering",
		Semester:              "autumn",
		Year:                  2026,
		RequiredHours:         6,
		OpenForUndergraduates: ug.Open,
		OpenForPostgraduates:  pg.Open,
		Coordinators:          []modsvc.CoordinatorInput{{LecturerID: f.Coordinator, Name: "Dr. Rivers"}},
	})
	require.NoError(t, err)
	f.ID = m.ModuleRecruitmentID

	_, err = svc.RequestChanges(ctx, f.ID)
	require.NoError(t, err)
	m, err = svc.SubmitRequirements(ctx, f.ID, f.Coordinator, modsvc.RequirementsInput{Undergraduate: ug, Postgraduate: pg})
	require.NoError(t, err)

	for _, a := range actions {
		m, err = svc.ApplyAction(ctx, f.ID, a)
		require.NoError(t, err, "action %s", a)
	}
	f.Module = m
	return f
}

// Advertised is SeedModule followed by advertise.
func Advertised(t testing.TB, db *gorm.DB, ug, pg ledger.Requirement) ModuleFixture {
	return SeedModule(t, db, ug, pg, status.ActionAdvertise)
}

// Reload returns the current module row.
func Reload(t testing.TB, db *gorm.DB, id uuid.UUID) *model.ModuleRecruitmentModel {
	t.Helper()
	m, err := modsvc.FindModule(db, id)
	require.NoError(t, err)
	return m
}

// SetCounts overwrites one role's counters behind the services' back, the
// way a concurrent writer would leave the row.
func SetCounts(t testing.TB, db *gorm.DB, id uuid.UUID, role ledger.Role, c ledger.Counts) {
	t.Helper()
	err := db.Model(&model.ModuleRecruitmentModel{}).
		Where(model.ColID+" = ?", id).
		Updates(map[string]any{
			model.CountColumn(role, ledger.FieldRequired):     c.Required,
			model.CountColumn(role, ledger.FieldRemaining):    c.Remaining,
			model.CountColumn(role, ledger.FieldApplied):      c.Applied,
			model.CountColumn(role, ledger.FieldReviewed):     c.Reviewed,
			model.CountColumn(role, ledger.FieldAccepted):     c.Accepted,
			model.CountColumn(role, ledger.FieldDocSubmitted): c.DocSubmitted,
			model.CountColumn(role, ledger.FieldAppointed):    c.Appointed,
		}).Error
	require.NoError(t, err)
}
