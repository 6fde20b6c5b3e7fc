package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/data/repos"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type Repos struct {
	Question          repos.QuestionRepo
	RubricCriterion   repos.RubricCriterionRepo
	KeyConcept        repos.KeyConceptRepo
	StudentAnswer     repos.StudentAnswerRepo
	GradingResult     repos.GradingResultRepo
	ConceptEvaluation repos.ConceptEvaluationRepo
	AuditLog          repos.AuditLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Question:          repos.NewQuestionRepo(db, log),
		RubricCriterion:   repos.NewRubricCriterionRepo(db, log),
		KeyConcept:        repos.NewKeyConceptRepo(db, log),
		StudentAnswer:     repos.NewStudentAnswerRepo(db, log),
		GradingResult:     repos.NewGradingResultRepo(db, log),
		ConceptEvaluation: repos.NewConceptEvaluationRepo(db, log),
		AuditLog:          repos.NewAuditLogRepo(db, log),
	}
}
