package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/documents/controller"
	"taportal_backend/internals/features/recruitment/notifications"
	"taportal_backend/internals/middlewares"
)

// DocumentApplicantRoutes mounts under /ta.
func DocumentApplicantRoutes(r fiber.Router, db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) {
	ctl := controller.NewDocumentController(db, notifier, v)

	r.Post("/submit-documents", middlewares.ApplyRateLimiter(), ctl.Submit)
}

// DocumentAdminRoutes mounts under /admin.
func DocumentAdminRoutes(r fiber.Router, db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) {
	ctl := controller.NewDocumentController(db, notifier, v)

	r.Patch("/modules/:id/appoint/:applicantId", ctl.Appoint)
	r.Patch("/documents/:id/review", ctl.Review)
}
