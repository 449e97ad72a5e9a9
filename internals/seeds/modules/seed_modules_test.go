package modules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taportal_backend/internals/features/recruitment/modules/model"
	"taportal_backend/internals/features/recruitment/modules/status"
	modules "taportal_backend/internals/seeds/modules"
	"taportal_backend/internals/testutil"
)

func TestSeedModulesFromJSON_Idempotent(t *testing.T) {
	db := testutil.NewDB(t)

	n, err := modules.SeedModulesFromJSON(db, "data_modules.json")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = modules.SeedModulesFromJSON(db, "data_modules.json")
	require.NoError(t, err)
	assert.Zero(t, n, "existing modules are skipped")

	var rows []model.ModuleRecruitmentModel
	require.NoError(t, db.Preload("Coordinators").Order("module_recruitment_code").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, status.Initialised, rows[0].ModuleRecruitmentStatus)
	assert.Len(t, rows[0].Coordinators, 1)
	assert.False(t, rows[1].ModuleRecruitmentOpenForUndergraduates)
}

func TestSeedModulesFromJSON_MissingFile(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := modules.SeedModulesFromJSON(db, "nope.json")
	assert.Error(t, err)
}
