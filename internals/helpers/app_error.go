package helper

import (
	"errors"
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"taportal_backend/internals/helpers/apperror"
)

// StatusOf maps an error kind to its HTTP status. Business refusals are
// ordinary 400s; lost races are 409 so the caller knows a retry is safe.
func StatusOf(k apperror.Kind) int {
	switch k {
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindNotAuthorized:
		return fiber.StatusForbidden
	case apperror.KindConcurrentModification:
		return fiber.StatusConflict
	case apperror.KindValidation:
		return fiber.StatusUnprocessableEntity
	case apperror.KindIdempotency, apperror.KindBusinessRule, apperror.KindLifecycle:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// FromAppError renders any error from the service layer.
func FromAppError(c *fiber.Ctx, err error) error {
	if ae, ok := apperror.As(err); ok {
		status := StatusOf(ae.Kind())
		msg := ae.Message
		if status >= 500 {
			log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), ae)
			msg = "internal server error"
		}
		return c.Status(status).JSON(ErrorResponse{
			Success:   false,
			Message:   msg,
			ErrorCode: string(ae.Code),
			Retryable: ae.Retryable(),
			Errors:    ae.Fields,
		})
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
	return JsonError(c, fiber.StatusInternalServerError, "internal server error")
}

// ErrorHandler is the fiber.Config error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return FromAppError(c, err)
}

// NewValidator reports field errors under their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError turns validator.v10 errors into a 422 with one entry per field.
func ValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return JsonError(c, fiber.StatusBadRequest, "invalid input")
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			fields[fe.Field()] = fe.Tag() + "=" + fe.Param()
		} else {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return JsonValidationError(c, "validation failed", fields)
}
