package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/ledger"
	"taportal_backend/internals/features/recruitment/modules/model"
	"taportal_backend/internals/features/recruitment/modules/status"
	"taportal_backend/internals/features/recruitment/notifications"
	"taportal_backend/internals/helpers/apperror"
)

type CoordinatorInput struct {
	LecturerID uuid.UUID
	Name       string
	Email      string
}

type CreateModuleInput struct {
	SeriesID              uuid.UUID
	Code                  string
	Name                  string
	Semester              string
	Year                  int
	RequiredHours         int
	OpenForUndergraduates bool
	OpenForPostgraduates  bool
	Coordinators          []CoordinatorInput
}

type RequirementsInput struct {
	Undergraduate   ledger.Requirement
	Postgraduate    ledger.Requirement
	RequiredHours   *int
	ExpectedVersion *int64 // optimistic stamp from the coordinator's last read
}

// OpenPosition is one advertised module as seen by an applicant of Role.
type OpenPosition struct {
	Module    model.ModuleRecruitmentModel
	Role      ledger.Role
	Remaining int
	OpenSlots int
}

type ModuleService struct {
	DB       *gorm.DB
	Ledger   LedgerStore
	Notifier notifications.Dispatcher
}

func NewModuleService(db *gorm.DB, notifier notifications.Dispatcher) *ModuleService {
	if notifier == nil {
		notifier = notifications.LogDispatcher{}
	}
	return &ModuleService{DB: db, Ledger: NewLedgerStore(), Notifier: notifier}
}

func (s *ModuleService) Create(ctx context.Context, in CreateModuleInput) (*model.ModuleRecruitmentModel, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	fields := map[string]string{}
	if in.SeriesID == uuid.Nil {
		fields["recSeriesId"] = "required"
	}
	if code == "" {
		fields["moduleCode"] = "required"
	}
	if name == "" {
		fields["moduleName"] = "required"
	}
	if in.RequiredHours < 0 {
		fields["requiredTAHours"] = "min 0"
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("invalid module recruitment", fields)
	}

	l, err := ledger.Ledger{}.SetRequirements(
		ledger.Requirement{Open: in.OpenForUndergraduates},
		ledger.Requirement{Open: in.OpenForPostgraduates},
	)
	if err != nil {
		return nil, err
	}

	m := &model.ModuleRecruitmentModel{
		ModuleRecruitmentSeriesID:      in.SeriesID,
		ModuleRecruitmentCode:          strings.ToUpper(code),
		ModuleRecruitmentName:          name,
		ModuleRecruitmentSemester:      strings.TrimSpace(in.Semester),
		ModuleRecruitmentYear:          in.Year,
		ModuleRecruitmentRequiredHours: in.RequiredHours,
		ModuleRecruitmentStatus:        status.Initialised,
	}
	m.SetLedger(l)

	seen := map[uuid.UUID]bool{}
	for _, c := range in.Coordinators {
		if c.LecturerID == uuid.Nil || seen[c.LecturerID] {
			continue
		}
		seen[c.LecturerID] = true
		co := model.ModuleCoordinatorModel{ModuleCoordinatorLecturerID: c.LecturerID}
		if v := strings.TrimSpace(c.Name); v != "" {
			co.ModuleCoordinatorName = &v
		}
		if v := strings.TrimSpace(c.Email); v != "" {
			co.ModuleCoordinatorEmail = &v
		}
		m.Coordinators = append(m.Coordinators, co)
	}

	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		log.Printf("[MODULE] ERROR create code=%s err=%v", m.ModuleRecruitmentCode, err)
		return nil, apperror.FromStorage(err, "failed to create module recruitment")
	}
	log.Printf("[MODULE] created id=%s code=%s", m.ModuleRecruitmentID, m.ModuleRecruitmentCode)
	return m, nil
}

func (s *ModuleService) Get(ctx context.Context, id uuid.UUID) (*model.ModuleRecruitmentModel, error) {
	return FindModule(s.DB.WithContext(ctx), id)
}

// transition moves the module from its current stage by action with a
// conditional write on the observed stage.
func (s *ModuleService) transition(tx *gorm.DB, m *model.ModuleRecruitmentModel, action status.Action) (status.Stage, error) {
	from := m.ModuleRecruitmentStatus
	to, err := status.Next(from, action)
	if err != nil {
		return from, err
	}
	res := tx.Model(&model.ModuleRecruitmentModel{}).
		Where(model.ColID+" = ? AND "+model.ColStatus+" = ?", m.ModuleRecruitmentID, string(from)).
		Updates(map[string]any{
			model.ColStatus:  string(to),
			model.ColVersion: gorm.Expr(model.ColVersion + " + 1"),
			model.ColUpdated: time.Now(),
		})
	if res.Error != nil {
		return from, apperror.FromStorage(res.Error, "failed to update module status")
	}
	if res.RowsAffected == 0 {
		fresh, err := FindModule(tx, m.ModuleRecruitmentID)
		if err != nil {
			return from, err
		}
		if _, err := status.Next(fresh.ModuleRecruitmentStatus, action); err != nil {
			return fresh.ModuleRecruitmentStatus, err
		}
		return fresh.ModuleRecruitmentStatus, apperror.New(apperror.CodeConcurrentModification,
			"module status changed concurrently, retry the request")
	}
	log.Printf("[MODULE] id=%s %s -> %s (%s)", m.ModuleRecruitmentID, from, to, action)
	m.ModuleRecruitmentStatus = to
	m.ModuleRecruitmentVersion++
	return to, nil
}

// ApplyAction runs a staff lifecycle action. Advertising also re-evaluates
// the full rule, so a module advertised with nothing required lands in full.
func (s *ModuleService) ApplyAction(ctx context.Context, id uuid.UUID, action status.Action) (*model.ModuleRecruitmentModel, error) {
	var (
		m      *model.ModuleRecruitmentModel
		events []notifications.Event
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if m, err = FindModule(tx, id); err != nil {
			return err
		}
		if _, err = s.transition(tx, m, action); err != nil {
			return err
		}
		switch action {
		case status.ActionAdvertise:
			for _, r := range ledger.Roles {
				if m.Ledger().IsOpen(r) {
					events = append(events, notifications.Event{
						Type:     notifications.ModuleAdvertised,
						ModuleID: id,
						Audience: notifications.AudienceFor(r.String()),
						Data:     map[string]string{"moduleCode": m.ModuleRecruitmentCode, "role": r.String()},
					})
				}
			}
			full, err := s.Ledger.ReevaluateFull(tx, id)
			if err != nil {
				return err
			}
			if full {
				events = append(events, notifications.Event{Type: notifications.ModuleFull, ModuleID: id})
			}
		case status.ActionStartDocuments:
			events = append(events, notifications.Event{Type: notifications.ModuleGettingDocuments, ModuleID: id})
		}
		m, err = FindModule(tx, id)
		return err
	})
	if err != nil {
		log.Printf("[MODULE] FAIL action=%s id=%s err=%v", action, id, err)
		return nil, err
	}
	notifications.DispatchAll(ctx, s.Notifier, events...)
	return m, nil
}

func (s *ModuleService) RequestChanges(ctx context.Context, id uuid.UUID) (*model.ModuleRecruitmentModel, error) {
	return s.ApplyAction(ctx, id, status.ActionRequestChanges)
}

func (s *ModuleService) Advertise(ctx context.Context, id uuid.UUID) (*model.ModuleRecruitmentModel, error) {
	return s.ApplyAction(ctx, id, status.ActionAdvertise)
}

func (s *ModuleService) StartDocuments(ctx context.Context, id uuid.UUID) (*model.ModuleRecruitmentModel, error) {
	return s.ApplyAction(ctx, id, status.ActionStartDocuments)
}

func (s *ModuleService) Close(ctx context.Context, id uuid.UUID) (*model.ModuleRecruitmentModel, error) {
	return s.ApplyAction(ctx, id, status.ActionClose)
}

func (s *ModuleService) Archive(ctx context.Context, id uuid.UUID) (*model.ModuleRecruitmentModel, error) {
	return s.ApplyAction(ctx, id, status.ActionArchive)
}

// SubmitRequirements is the coordinator's answer to a change request: per-role
// headcount, open flags and weekly hours. The module moves to changes-submitted.
func (s *ModuleService) SubmitRequirements(ctx context.Context, id, lecturerID uuid.UUID, in RequirementsInput) (*model.ModuleRecruitmentModel, error) {
	if in.RequiredHours != nil && *in.RequiredHours < 0 {
		return nil, apperror.Validation("invalid requirements", map[string]string{"requiredTAHours": "min 0"})
	}
	var m *model.ModuleRecruitmentModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if m, err = FindModule(tx, id); err != nil {
			return err
		}
		if !m.IsCoordinator(lecturerID) {
			return apperror.New(apperror.CodeNotAuthorized, "only a coordinator of this module can submit requirements")
		}
		if err := status.Guard(m.ModuleRecruitmentStatus, status.OpEditRequirements); err != nil {
			return err
		}
		version := m.ModuleRecruitmentVersion
		if in.ExpectedVersion != nil {
			version = *in.ExpectedVersion
		}
		next, err := m.Ledger().SetRequirements(in.Undergraduate, in.Postgraduate)
		if err != nil {
			return err
		}
		hours := m.ModuleRecruitmentRequiredHours
		if in.RequiredHours != nil {
			hours = *in.RequiredHours
		}
		if err := s.Ledger.UpdateRequirements(tx, id, version, next, hours); err != nil {
			return err
		}
		if m, err = FindModule(tx, id); err != nil {
			return err
		}
		if _, err := s.transition(tx, m, status.ActionSubmitChanges); err != nil {
			return err
		}
		m, err = FindModule(tx, id)
		return err
	})
	if err != nil {
		log.Printf("[MODULE] FAIL requirements id=%s lecturer=%s err=%v", id, lecturerID, err)
		return nil, err
	}
	return m, nil
}

// ListOpenForRole returns advertised modules open to role that still have an
// unclaimed slot.
func (s *ModuleService) ListOpenForRole(ctx context.Context, role ledger.Role) ([]OpenPosition, error) {
	if !role.Valid() {
		return nil, apperror.New(apperror.CodeRoleNotEligible, "only applicants can list open positions")
	}
	var rows []model.ModuleRecruitmentModel
	err := s.DB.WithContext(ctx).
		Where(model.ColStatus+" = ?", string(status.Advertised)).
		Where(model.OpenColumn(role)+" = ?", true).
		Where(openSlotsPredicate(role)).
		Order("module_recruitment_code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperror.FromStorage(err, "failed to list open positions")
	}
	out := make([]OpenPosition, 0, len(rows))
	for _, m := range rows {
		b := m.Ledger().Bucket(role)
		out = append(out, OpenPosition{Module: m, Role: role, Remaining: b.Remaining, OpenSlots: b.OpenSlots()})
	}
	return out, nil
}

// ListForCoordinator returns the modules a lecturer coordinates, optionally
// restricted to the given stages.
func (s *ModuleService) ListForCoordinator(ctx context.Context, lecturerID uuid.UUID, stages ...status.Stage) ([]model.ModuleRecruitmentModel, error) {
	q := s.DB.WithContext(ctx).
		Preload("Coordinators").
		Where(model.ColID+" IN (?)",
			s.DB.Model(&model.ModuleCoordinatorModel{}).
				Select("module_coordinator_module_id").
				Where("module_coordinator_lecturer_id = ?", lecturerID))
	if len(stages) > 0 {
		q = q.Where(model.ColStatus+" IN ?", stageIn(stages))
	}
	var rows []model.ModuleRecruitmentModel
	if err := q.Order("module_recruitment_code ASC").Find(&rows).Error; err != nil {
		return nil, apperror.FromStorage(err, "failed to list coordinator modules")
	}
	return rows, nil
}

// ListQuery filters the staff module listing.
type ListQuery struct {
	SeriesID *uuid.UUID
	Stage    *status.Stage
	Q        string // code or name prefix
	OrderBy  string // already whitelisted "column DIR"
	Limit    int
	Offset   int
}

// List is the paginated staff listing. It returns the page and the total.
func (s *ModuleService) List(ctx context.Context, q ListQuery) ([]model.ModuleRecruitmentModel, int64, error) {
	base := s.DB.WithContext(ctx).Model(&model.ModuleRecruitmentModel{})
	if q.SeriesID != nil {
		base = base.Where(model.ColSeries+" = ?", *q.SeriesID)
	}
	if q.Stage != nil {
		base = base.Where(model.ColStatus+" = ?", string(*q.Stage))
	}
	if term := strings.TrimSpace(q.Q); term != "" {
		like := strings.ToLower(term) + "%"
		base = base.Where("LOWER(module_recruitment_code) LIKE ? OR LOWER(module_recruitment_name) LIKE ?", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, apperror.FromStorage(err, "failed to count modules")
	}

	order := q.OrderBy
	if order == "" {
		order = model.ColUpdated + " DESC"
	}
	var rows []model.ModuleRecruitmentModel
	if err := base.Session(&gorm.Session{}).
		Preload("Coordinators").
		Order(order).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, apperror.FromStorage(err, "failed to list modules")
	}
	return rows, total, nil
}
