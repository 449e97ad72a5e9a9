// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taportal_backend/internals/constants"
	"taportal_backend/internals/features/recruitment/notifications"
	authModel "taportal_backend/internals/features/users/auth/model"
	helper "taportal_backend/internals/helpers"
	authMiddleware "taportal_backend/internals/middlewares/auth"
	routeDetails "taportal_backend/internals/route/details"
)

var startTime time.Time

type Options struct {
	JWTSecret string
	Notifier  notifications.Dispatcher
}

func SetupRoutes(app *fiber.App, db *gorm.DB, o Options) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, db)

	jwt := authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
		Secret: o.JWTSecret,
		BlacklistChecker: func(raw string) (bool, error) {
			return authModel.IsBlacklisted(db, raw)
		},
		AllowCookieFallback: true,
	})
	v := helper.NewValidator()

	// ===================== APPLICANT =====================
	log.Println("[INFO] Setting up TA (applicant) group...")
	ta := app.Group("/ta",
		jwt,
		authMiddleware.OnlyRoles(constants.RoleErrorApplicant("TA applications"), constants.ApplicantRoles...),
	)

	// ===================== LECTURER =====================
	log.Println("[INFO] Setting up LECTURER group...")
	lecturer := app.Group("/lecturer",
		jwt,
		authMiddleware.OnlyRoles(constants.RoleErrorLecturer("module coordination"), constants.LecturerOnly...),
	)

	// ===================== ADMIN =====================
	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/admin",
		jwt,
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("recruitment administration"), constants.AdminOnly...),
	)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Recruitment routes...")
	routeDetails.RecruitmentApplicantRoutes(ta, db, o.Notifier, v)
	routeDetails.RecruitmentLecturerRoutes(lecturer, db, o.Notifier, v)
	routeDetails.RecruitmentAdminRoutes(admin, db, o.Notifier, v)
}
