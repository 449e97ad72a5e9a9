package constants

import "fmt"

// Auth roles carried in the token's "role" claim.
const (
	RoleUndergraduate = "undergraduate"
	RolePostgraduate  = "postgraduate"
	RoleLecturer      = "lecturer"
	RoleAdmin         = "admin"
)

// Template pesan error role
const (
	ErrOnlyApplicantsCanAccess = "❌ Only undergraduate or postgraduate applicants can access %s."
	ErrOnlyLecturersCanAccess  = "❌ Only lecturers can access %s."
	ErrOnlyAdminsCanAccess     = "❌ Only admins can access %s."
)

func RoleErrorApplicant(feature string) string {
	return fmt.Sprintf(ErrOnlyApplicantsCanAccess, feature)
}

func RoleErrorLecturer(feature string) string {
	return fmt.Sprintf(ErrOnlyLecturersCanAccess, feature)
}

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleUndergraduate,
		RolePostgraduate,
		RoleLecturer,
		RoleAdmin,
	}

	ApplicantRoles = []string{
		RoleUndergraduate,
		RolePostgraduate,
	}

	LecturerOnly = []string{
		RoleLecturer,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)
