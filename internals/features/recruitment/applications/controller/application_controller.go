package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/applications/dto"
	"taportal_backend/internals/features/recruitment/applications/service"
	"taportal_backend/internals/features/recruitment/notifications"
	helper "taportal_backend/internals/helpers"
	helperAuth "taportal_backend/internals/helpers/auth"
)

type ApplicationController struct {
	SM       *service.StateMachine
	Validate *validator.Validate
}

func NewApplicationController(db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) *ApplicationController {
	if v == nil {
		v = helper.NewValidator()
	}
	return &ApplicationController{SM: service.NewStateMachine(db, notifier), Validate: v}
}

/* =========================
   Applicant
========================= */

// POST /ta/apply
func (ctl *ApplicationController) Apply(c *fiber.Ctx) error {
	applicantID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	role, err := helperAuth.GetApplicantRole(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}

	var req dto.ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	app, err := ctl.SM.Apply(c.UserContext(), req.ToInput(applicantID, role, helperAuth.GetUserName(c), helperAuth.GetUserEmail(c)))
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonCreated(c, "Application submitted", dto.FromModel(app))
}

// GET /ta/applied-modules
func (ctl *ApplicationController) ListApplied(c *fiber.Ctx) error {
	applicantID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	views, err := ctl.SM.ListPendingForApplicant(c.UserContext(), applicantID)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromViews(views), nil)
}

// GET /ta/accepted-modules
func (ctl *ApplicationController) ListAccepted(c *fiber.Ctx) error {
	applicantID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	views, err := ctl.SM.ListAcceptedForApplicant(c.UserContext(), applicantID)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromViews(views), nil)
}

/* =========================
   Lecturer
========================= */

// GET /lecturer/handle-requests
func (ctl *ApplicationController) Inbox(c *fiber.Ctx) error {
	lecturerID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	groups, err := ctl.SM.Inbox(c.UserContext(), lecturerID)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromGroups(groups), nil)
}

// GET /lecturer/modules/with-ta-requests
func (ctl *ApplicationController) WithAccepted(c *fiber.Ctx) error {
	lecturerID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	groups, err := ctl.SM.ModulesWithAccepted(c.UserContext(), lecturerID)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromGroups(groups), nil)
}

// PATCH /lecturer/applications/:id/accept
func (ctl *ApplicationController) Accept(c *fiber.Ctx) error {
	actorID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}
	app, err := ctl.SM.Accept(c.UserContext(), id, actorID)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonUpdated(c, "Application accepted", dto.FromModel(app))
}

// PATCH /lecturer/applications/:id/reject
func (ctl *ApplicationController) Reject(c *fiber.Ctx) error {
	actorID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}

	// body is optional
	var req dto.RejectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if err := ctl.Validate.Struct(&req); err != nil {
			return helper.ValidationError(c, err)
		}
	}

	app, err := ctl.SM.Reject(c.UserContext(), id, actorID, req.Reason)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonUpdated(c, "Application rejected", dto.FromModel(app))
}

/* =========================
   Admin
========================= */

// GET /admin/applications/:id/history
func (ctl *ApplicationController) History(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}
	rows, err := ctl.SM.History(c.UserContext(), id)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromHistory(rows), nil)
}
