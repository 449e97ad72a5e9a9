package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	appModel "taportal_backend/internals/features/recruitment/applications/model"
	docModel "taportal_backend/internals/features/recruitment/documents/model"
	moduleModel "taportal_backend/internals/features/recruitment/modules/model"
	authModel "taportal_backend/internals/features/users/auth/model"
)

// Models is every table this service owns, in dependency order.
func Models() []any {
	return []any{
		&moduleModel.ModuleRecruitmentModel{},
		&moduleModel.ModuleCoordinatorModel{},
		&appModel.ApplicationModel{},
		&appModel.ApplicationStatusHistoryModel{},
		&docModel.DocumentSubmissionModel{},
		&authModel.TokenBlacklist{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	log.Printf("✅ schema migrated (%d tables)", len(Models()))
	return nil
}
