package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"taportal_backend/internals/configs"
	"taportal_backend/internals/middlewares/logger"
)

// SetupMiddlewares mounts the process-wide middleware chain.
func SetupMiddlewares(app *fiber.App, cfg *configs.Config) {
	app.Use(RecoveryMiddleware())
	app.Use(logger.LoggerMiddleware())
	app.Use(CorsMiddleware(cfg.CorsAllowOrigins))
	app.Use(GlobalRateLimiter())
}
