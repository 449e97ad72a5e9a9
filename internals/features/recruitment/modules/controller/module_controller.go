package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/modules/dto"
	"taportal_backend/internals/features/recruitment/modules/service"
	"taportal_backend/internals/features/recruitment/modules/status"
	"taportal_backend/internals/features/recruitment/notifications"
	helper "taportal_backend/internals/helpers"
	"taportal_backend/internals/helpers/apperror"
	helperAuth "taportal_backend/internals/helpers/auth"
)

type ModuleController struct {
	Svc      *service.ModuleService
	Validate *validator.Validate
}

func NewModuleController(db *gorm.DB, notifier notifications.Dispatcher, v *validator.Validate) *ModuleController {
	if v == nil {
		v = helper.NewValidator()
	}
	return &ModuleController{Svc: service.NewModuleService(db, notifier), Validate: v}
}

// POST /admin/modules
func (ctl *ModuleController) Create(c *fiber.Ctx) error {
	var req dto.CreateModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctl.Svc.Create(c.UserContext(), req.ToInput())
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonCreated(c, "Module recruitment created", dto.FromModel(m))
}

// GET /admin/modules
func (ctl *ModuleController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "updated_at", "desc", helper.AdminOpts)

	seriesID, err := helper.ParseUUIDQuery(c, "recSeriesId")
	if err != nil {
		return helper.FromAppError(c, err)
	}
	q := service.ListQuery{
		SeriesID: seriesID,
		Q:        c.Query("q"),
		OrderBy: p.OrderColumn(map[string]string{
			"updated_at": "module_recruitment_updated_at",
			"created_at": "module_recruitment_created_at",
			"code":       "module_recruitment_code",
			"status":     "module_recruitment_status",
		}, "updated_at"),
		Limit:  p.Limit(),
		Offset: p.Offset(),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		st := status.Stage(strings.ToLower(raw))
		if !st.Valid() {
			return helper.JsonValidationError(c, "unknown module status", map[string]string{"status": raw})
		}
		q.Stage = &st
	}

	rows, total, err := ctl.Svc.List(c.UserContext(), q)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	meta := helper.BuildMeta(total, p)
	return helper.JsonList(c, "ok", dto.FromModels(rows), &meta)
}

// GET /admin/modules/:id
func (ctl *ModuleController) GetByID(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}
	m, err := ctl.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(m))
}

// PATCH /admin/modules/:id/status {action}
func (ctl *ModuleController) UpdateStatus(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}
	var req dto.StatusActionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	action, ok := status.ParseAction(req.Action)
	if !ok {
		return helper.FromAppError(c, apperror.Validation("unknown action", map[string]string{"action": req.Action}))
	}

	m, err := ctl.Svc.ApplyAction(c.UserContext(), id, action)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonUpdated(c, "Module status updated", dto.FromModel(m))
}

// PATCH /lecturer/modules/:id/requirements
func (ctl *ModuleController) SubmitRequirements(c *fiber.Ctx) error {
	lecturerID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}
	var req dto.RequirementsRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctl.Svc.SubmitRequirements(c.UserContext(), id, lecturerID, req.ToInput())
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonUpdated(c, "Requirements submitted", dto.FromModel(m))
}

// GET /ta/requests
func (ctl *ModuleController) ListOpen(c *fiber.Ctx) error {
	role, err := helperAuth.GetApplicantRole(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	rows, err := ctl.Svc.ListOpenForRole(c.UserContext(), role)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromOpenPositions(rows), nil)
}

// GET /lecturer/modules
func (ctl *ModuleController) ListMine(c *fiber.Ctx) error {
	lecturerID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	rows, err := ctl.Svc.ListForCoordinator(c.UserContext(), lecturerID)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), nil)
}
