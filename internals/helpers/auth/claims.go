// package: internals/helpers/auth
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"taportal_backend/internals/constants"
	"taportal_backend/internals/features/recruitment/ledger"
	"taportal_backend/internals/helpers/apperror"
)

/* ============================================
   Locals Keys (middleware should set these)
   ============================================ */

const (
	LocUserID    = "user_id"    // string uuid
	LocRole      = "userRole"   // string
	LocUserName  = "user_name"  // string, optional
	LocUserEmail = "user_email" // string, optional
	LocClaims    = "jwt_claims" // jwt.MapClaims
)

func localString(c *fiber.Ctx, key string) string {
	switch v := c.Locals(key).(type) {
	case string:
		return strings.TrimSpace(v)
	case uuid.UUID:
		return v.String()
	}
	return ""
}

// GetUserIDFromToken returns the authenticated user's id.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	raw := localString(c, LocUserID)
	if raw == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - user_id not found in token")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - invalid user_id in token")
	}
	return id, nil
}

func GetRole(c *fiber.Ctx) string {
	return strings.ToLower(localString(c, LocRole))
}

func GetUserName(c *fiber.Ctx) string  { return localString(c, LocUserName) }
func GetUserEmail(c *fiber.Ctx) string { return localString(c, LocUserEmail) }

// GetApplicantRole maps the token role onto the ledger role it is counted
// under. Staff roles are refused.
func GetApplicantRole(c *fiber.Ctx) (ledger.Role, error) {
	switch GetRole(c) {
	case constants.RoleUndergraduate:
		return ledger.Undergraduate, nil
	case constants.RolePostgraduate:
		return ledger.Postgraduate, nil
	}
	return "", apperror.New(apperror.CodeNotAuthorized, constants.RoleErrorApplicant("this feature"))
}

func IsAdmin(c *fiber.Ctx) bool { return GetRole(c) == constants.RoleAdmin }
