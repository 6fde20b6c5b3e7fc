package domain

import "github.com/yungbote/examiner-backend/internal/domain/grading"

type Question = grading.Question
type RubricCriterion = grading.RubricCriterion
type KeyConcept = grading.KeyConcept
type StudentAnswer = grading.StudentAnswer
type GradingResult = grading.GradingResult
type ConceptEvaluation = grading.ConceptEvaluation
type AuditLog = grading.AuditLog

type Strategy = grading.Strategy

const (
	StrategyChainOfThought = grading.StrategyChainOfThought
	StrategyStepByStep     = grading.StrategyStepByStep
)

const DefaultPassingThreshold = grading.DefaultPassingThreshold

const (
	AuditConceptsExtracted = grading.AuditConceptsExtracted
	AuditAnswerGraded      = grading.AuditAnswerGraded
	AuditWorkflowFailed    = grading.AuditWorkflowFailed
	AuditQuestionCreated   = grading.AuditQuestionCreated
	AuditAnswerSubmitted   = grading.AuditAnswerSubmitted
)

const ExtractionMethodDerived = grading.ExtractionMethodDerived

func ParseStrategy(s string) (Strategy, bool) { return grading.ParseStrategy(s) }
