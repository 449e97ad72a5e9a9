package audit

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	helper "taportal_backend/internals/helpers"
)

type responseBody struct {
	OK bool `json:"ok"`
	Report
}

// Handler serves GET /admin/ledger/audit.
func Handler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, err := Reconcile(c.UserContext(), db)
		if err != nil {
			return helper.FromAppError(c, err)
		}
		if rep.Broken == nil {
			rep.Broken = []ModuleReport{}
		}
		return helper.JsonOK(c, "ledger audit", responseBody{OK: rep.OK(), Report: rep})
	}
}

// AdminRoutes mounts under /admin.
func AdminRoutes(r fiber.Router, db *gorm.DB) {
	r.Get("/ledger/audit", Handler(db))
}
