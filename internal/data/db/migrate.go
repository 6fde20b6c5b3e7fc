package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/examiner-backend/internal/domain"
)

// AutoMigrateAll creates or updates every grading table and its unique indexes.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// Reference material
		&types.Question{},
		&types.KeyConcept{},
		&types.RubricCriterion{},

		// Submissions
		&types.StudentAnswer{},

		// Outcomes
		&types.GradingResult{},
		&types.ConceptEvaluation{},

		&types.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
