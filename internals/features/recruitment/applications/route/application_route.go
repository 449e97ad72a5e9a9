package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/applications/controller"
	"taportal_backend/internals/features/recruitment/notifications"
	"taportal_backend/internals/middlewares"
)

// ApplicationApplicantRoutes mounts under /ta.
func ApplicationApplicantRoutes(r fiber.Router, db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) {
	ctl := controller.NewApplicationController(db, notifier, v)

	r.Post("/apply", middlewares.ApplyRateLimiter(), ctl.Apply)
	r.Get("/applied-modules", ctl.ListApplied)
	r.Get("/accepted-modules", ctl.ListAccepted)
}

// ApplicationLecturerRoutes mounts under /lecturer.
func ApplicationLecturerRoutes(r fiber.Router, db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) {
	ctl := controller.NewApplicationController(db, notifier, v)

	r.Get("/handle-requests", ctl.Inbox)
	r.Get("/modules/with-ta-requests", ctl.WithAccepted)
	r.Patch("/applications/:id/accept", ctl.Accept)
	r.Patch("/applications/:id/reject", ctl.Reject)
}

// ApplicationAdminRoutes mounts under /admin.
func ApplicationAdminRoutes(r fiber.Router, db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) {
	ctl := controller.NewApplicationController(db, notifier, v)

	r.Get("/applications/:id/history", ctl.History)
}
