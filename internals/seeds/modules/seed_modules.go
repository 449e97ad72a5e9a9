package modules

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"taportal_backend/internals/features/recruitment/modules/model"
	"taportal_backend/internals/features/recruitment/modules/service"
)

type CoordinatorSeed struct {
	LecturerID uuid.UUID `json:"lecturer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
}

type ModuleSeed struct {
	RecSeriesID           uuid.UUID         `json:"rec_series_id"`
	ModuleCode            string            `json:"module_code"`
	ModuleName            string            `json:"module_name"`
	Semester              string            `json:"semester"`
	Year                  int               `json:"year"`
	RequiredTAHours       int               `json:"required_ta_hours"`
	OpenForUndergraduates bool              `json:"open_for_undergraduates"`
	OpenForPostgraduates  bool              `json:"open_for_postgraduates"`
	Coordinators          []CoordinatorSeed `json:"coordinators"`
}

// SeedModulesFromJSON creates every module in filePath that does not exist
// yet (same series and code). It returns how many were created.
func SeedModulesFromJSON(db *gorm.DB, filePath string) (int, error) {
	log.Println("📥 Membaca file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", filePath, err)
	}
	var seeds []ModuleSeed
	if err := sonic.Unmarshal(file, &seeds); err != nil {
		return 0, fmt.Errorf("decode %s: %w", filePath, err)
	}

	svc := service.NewModuleService(db, nil)
	created := 0
	for _, s := range seeds {
		var n int64
		if err := db.Model(&model.ModuleRecruitmentModel{}).
			Where(model.ColSeries+" = ? AND UPPER(module_recruitment_code) = UPPER(?)", s.RecSeriesID, s.ModuleCode).
			Count(&n).Error; err != nil {
			return created, err
		}
		if n > 0 {
			log.Printf("ℹ️ Module %s sudah ada, dilewati.", s.ModuleCode)
			continue
		}

		in := service.CreateModuleInput{
			SeriesID:              s.RecSeriesID,
			Code:                  s.ModuleCode,
			Name:                  s.ModuleName,
			Semester:              s.Semester,
			Year:                  s.Year,
			RequiredHours:         s.RequiredTAHours,
			OpenForUndergraduates: s.OpenForUndergraduates,
			OpenForPostgraduates:  s.OpenForPostgraduates,
		}
		for _, c := range s.Coordinators {
			in.Coordinators = append(in.Coordinators, service.CoordinatorInput{LecturerID: c.LecturerID, Name: c.Name, Email: c.Email})
		}
		if _, err := svc.Create(context.Background(), in); err != nil {
			return created, fmt.Errorf("seed %s: %w", s.ModuleCode, err)
		}
		created++
	}
	log.Printf("✅ %d module recruitments seeded", created)
	return created, nil
}
