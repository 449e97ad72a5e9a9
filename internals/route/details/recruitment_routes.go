package details

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	applicationRoute "taportal_backend/internals/features/recruitment/applications/route"
	"taportal_backend/internals/features/recruitment/audit"
	documentRoute "taportal_backend/internals/features/recruitment/documents/route"
	moduleRoute "taportal_backend/internals/features/recruitment/modules/route"
	"taportal_backend/internals/features/recruitment/notifications"
)

func RecruitmentApplicantRoutes(r fiber.Router, db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) {
	moduleRoute.ModuleApplicantRoutes(r, db, notifier, v)
	applicationRoute.ApplicationApplicantRoutes(r, db, notifier, v)
	documentRoute.DocumentApplicantRoutes(r, db, notifier, v)
}

func RecruitmentLecturerRoutes(r fiber.Router, db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) {
	moduleRoute.ModuleLecturerRoutes(r, db, notifier, v)
	applicationRoute.ApplicationLecturerRoutes(r, db, notifier, v)
}

func RecruitmentAdminRoutes(r fiber.Router, db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) {
	moduleRoute.ModuleAdminRoutes(r, db, notifier, v)
	applicationRoute.ApplicationAdminRoutes(r, db, notifier, v)
	documentRoute.DocumentAdminRoutes(r, db, notifier, v)
	audit.AdminRoutes(r, db)
}
