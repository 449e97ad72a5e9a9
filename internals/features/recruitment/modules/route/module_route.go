package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/modules/controller"
	"taportal_backend/internals/features/recruitment/notifications"
)

// ModuleAdminRoutes mounts under /admin.
func ModuleAdminRoutes(r fiber.Router, db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) {
	ctl := controller.NewModuleController(db, notifier, v)

	g := r.Group("/modules")
	g.Post("/", ctl.Create)
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.GetByID)
	g.Patch("/:id/status", ctl.UpdateStatus)
}

// ModuleLecturerRoutes mounts under /lecturer.
func ModuleLecturerRoutes(r fiber.Router, db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) {
	ctl := controller.NewModuleController(db, notifier, v)

	r.Get("/modules", ctl.ListMine)
	r.Patch("/modules/:id/requirements", ctl.SubmitRequirements)
}

// ModuleApplicantRoutes mounts under /ta.
func ModuleApplicantRoutes(r fiber.Router, db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) {
	ctl := controller.NewModuleController(db, notifier, v)

	r.Get("/requests", ctl.ListOpen)
}
