package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/data/repos/grading"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type QuestionRepo = grading.QuestionRepo
type RubricCriterionRepo = grading.RubricCriterionRepo
type KeyConceptRepo = grading.KeyConceptRepo
type StudentAnswerRepo = grading.StudentAnswerRepo
type AnswerListing = grading.AnswerListing
type AnswerStats = grading.AnswerStats
type GradingResultRepo = grading.GradingResultRepo
type ConceptEvaluationRepo = grading.ConceptEvaluationRepo
type AuditLogRepo = grading.AuditLogRepo

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return grading.NewQuestionRepo(db, baseLog)
}
func NewRubricCriterionRepo(db *gorm.DB, baseLog *logger.Logger) RubricCriterionRepo {
	return grading.NewRubricCriterionRepo(db, baseLog)
}
func NewKeyConceptRepo(db *gorm.DB, baseLog *logger.Logger) KeyConceptRepo {
	return grading.NewKeyConceptRepo(db, baseLog)
}
func NewStudentAnswerRepo(db *gorm.DB, baseLog *logger.Logger) StudentAnswerRepo {
	return grading.NewStudentAnswerRepo(db, baseLog)
}
func NewGradingResultRepo(db *gorm.DB, baseLog *logger.Logger) GradingResultRepo {
	return grading.NewGradingResultRepo(db, baseLog)
}
func NewConceptEvaluationRepo(db *gorm.DB, baseLog *logger.Logger) ConceptEvaluationRepo {
	return grading.NewConceptEvaluationRepo(db, baseLog)
}
func NewAuditLogRepo(db *gorm.DB, baseLog *logger.Logger) AuditLogRepo {
	return grading.NewAuditLogRepo(db, baseLog)
}
