package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"taportal_backend/internals/helpers/apperror"
)

// ParseUUIDParam reads a path parameter as a UUID.
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation(name+" is not a valid id", map[string]string{name: "uuid"})
	}
	return id, nil
}

// ParseUUIDQuery reads an optional query parameter as a UUID.
func ParseUUIDQuery(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation(name+" is not a valid id", map[string]string{name: "uuid"})
	}
	return &id, nil
}
