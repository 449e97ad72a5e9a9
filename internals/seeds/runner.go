package seeds

import (
	"path/filepath"

	"gorm.io/gorm"

	modules "taportal_backend/internals/seeds/modules"
)

// RunAllSeeds loads the demo data found under dir (internals/seeds by default).
func RunAllSeeds(db *gorm.DB, dir string) error {
	if dir == "" {
		dir = "internals/seeds"
	}

	//* Module recruitments
	if _, err := modules.SeedModulesFromJSON(db, filepath.Join(dir, "modules", "data_modules.json")); err != nil {
		return err
	}
	return nil
}
