package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	appDTO "taportal_backend/internals/features/recruitment/applications/dto"
	"taportal_backend/internals/features/recruitment/documents/dto"
	"taportal_backend/internals/features/recruitment/documents/model"
	"taportal_backend/internals/features/recruitment/documents/service"
	"taportal_backend/internals/features/recruitment/notifications"
	helper "taportal_backend/internals/helpers"
	helperAuth "taportal_backend/internals/helpers/auth"
)

type DocumentController struct {
	Gate     *service.Gate
	Validate *validator.Validate
}

func NewDocumentController(db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) *DocumentController {
	if v == nil {
		v = helper.NewValidator()
	}
	return &DocumentController{Gate: service.NewGate(db, notifier), Validate: v}
}

// POST /ta/submit-documents
func (ctl *DocumentController) Submit(c *fiber.Ctx) error {
	applicantID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.SubmitDocumentsRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	res, err := ctl.Gate.SubmitDocuments(c.UserContext(), req.ToInput(applicantID))
	if err != nil {
		return helper.FromAppError(c, err)
	}
	if res.Created {
		return helper.JsonCreated(c, "Documents submitted", dto.FromResult(res))
	}
	return helper.JsonUpdated(c, "Documents updated", dto.FromResult(res))
}

// PATCH /admin/modules/:id/appoint/:applicantId
func (ctl *DocumentController) Appoint(c *fiber.Ctx) error {
	actorID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	moduleID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}
	applicantID, err := helper.ParseUUIDParam(c, "applicantId")
	if err != nil {
		return helper.FromAppError(c, err)
	}

	app, err := ctl.Gate.Appoint(c.UserContext(), moduleID, applicantID, actorID)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonUpdated(c, "Applicant appointed", appDTO.FromModel(app))
}

// PATCH /admin/documents/:id/review
func (ctl *DocumentController) Review(c *fiber.Ctx) error {
	reviewerID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}
	var req dto.ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	sub, err := ctl.Gate.ReviewDocuments(c.UserContext(), id, reviewerID, model.SubmissionStatus(req.Status), req.Note)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonUpdated(c, "Submission reviewed", dto.FromModel(sub))
}
