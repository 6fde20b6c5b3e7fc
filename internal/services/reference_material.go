package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/data/repos"
	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/dbctx"
	"github.com/yungbote/examiner-backend/internal/pkg/errors"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type ReferenceMaterialService interface {
	// GetQuestion looks a question up by its external key.
	GetQuestion(dbc dbctx.Context, questionKey string) (*types.Question, error)
	GetQuestionDetails(dbc dbctx.Context, questionKey string) (*QuestionDetails, error)
	ListQuestions(dbc dbctx.Context, page Page) ([]*types.Question, error)
	CreateQuestion(ctx context.Context, in CreateQuestionInput) (*types.Question, error)
	// UpdateMaxMarks is rejected with ErrConflict once key concepts exist.
	UpdateMaxMarks(ctx context.Context, questionKey string, maxMarks float64) (*types.Question, error)
	ListCriteria(dbc dbctx.Context, questionID uuid.UUID) ([]*types.RubricCriterion, error)
	ReplaceCriteria(ctx context.Context, questionKey string, in []CriterionInput) ([]*types.RubricCriterion, error)
}

type QuestionDetails struct {
	Question *types.Question          `json:"question"`
	Concepts []*types.KeyConcept      `json:"key_concepts"`
	Criteria []*types.RubricCriterion `json:"rubric_criteria"`
}

type CreateQuestionInput struct {
	QuestionKey      string
	Subject          string
	Topic            string
	QuestionText     string
	IdealAnswer      string
	MaxMarks         float64
	PassingThreshold float64
	DifficultyLevel  string
}

type CriterionInput struct {
	Name        string
	Description string
	MaxPoints   float64
	Weight      float64
}

type referenceMaterialService struct {
	db        *gorm.DB
	log       *logger.Logger
	questions repos.QuestionRepo
	concepts  repos.KeyConceptRepo
	criteria  repos.RubricCriterionRepo
	audit     *auditor
}

func NewReferenceMaterialService(
	db *gorm.DB,
	baseLog *logger.Logger,
	questions repos.QuestionRepo,
	concepts repos.KeyConceptRepo,
	criteria repos.RubricCriterionRepo,
	auditLogs repos.AuditLogRepo,
) ReferenceMaterialService {
	log := baseLog.With("service", "ReferenceMaterialService")
	return &referenceMaterialService{
		db:        db,
		log:       log,
		questions: questions,
		concepts:  concepts,
		criteria:  criteria,
		audit:     &auditor{repo: auditLogs, log: log},
	}
}

func (s *referenceMaterialService) GetQuestion(dbc dbctx.Context, questionKey string) (*types.Question, error) {
	questionKey = strings.TrimSpace(questionKey)
	if questionKey == "" {
		return nil, fmt.Errorf("%w: question id required", errors.ErrInvalidArgument)
	}
	q, err := s.questions.GetByKey(dbc.Ctx, dbc.Tx, questionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: load question: %v", errors.ErrPersistence, err)
	}
	if q == nil {
		return nil, fmt.Errorf("%w: question %q", errors.ErrNotFound, questionKey)
	}
	return q, nil
}

func (s *referenceMaterialService) ListQuestions(dbc dbctx.Context, page Page) ([]*types.Question, error) {
	page, err := page.normalize()
	if err != nil {
		return nil, err
	}
	rows, err := s.questions.List(dbc.Ctx, dbc.Tx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list questions: %v", errors.ErrPersistence, err)
	}
	return rows, nil
}

func (s *referenceMaterialService) GetQuestionDetails(dbc dbctx.Context, questionKey string) (*QuestionDetails, error) {
	q, err := s.GetQuestion(dbc, questionKey)
	if err != nil {
		return nil, err
	}
	concepts, err := s.concepts.ListByQuestion(dbc.Ctx, dbc.Tx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: load concepts: %v", errors.ErrPersistence, err)
	}
	criteria, err := s.criteria.ListByQuestion(dbc.Ctx, dbc.Tx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: load criteria: %v", errors.ErrPersistence, err)
	}
	return &QuestionDetails{Question: q, Concepts: concepts, Criteria: criteria}, nil
}

func (s *referenceMaterialService) CreateQuestion(ctx context.Context, in CreateQuestionInput) (*types.Question, error) {
	q := &types.Question{
		QuestionKey:      strings.TrimSpace(in.QuestionKey),
		Subject:          strings.TrimSpace(in.Subject),
		Topic:            strings.TrimSpace(in.Topic),
		QuestionText:     strings.TrimSpace(in.QuestionText),
		IdealAnswer:      strings.TrimSpace(in.IdealAnswer),
		MaxMarks:         in.MaxMarks,
		PassingThreshold: in.PassingThreshold,
		DifficultyLevel:  strings.TrimSpace(in.DifficultyLevel),
	}
	switch {
	case q.QuestionKey == "":
		return nil, fmt.Errorf("%w: question id required", errors.ErrInvalidArgument)
	case q.QuestionText == "" || q.IdealAnswer == "":
		return nil, fmt.Errorf("%w: question text and ideal answer required", errors.ErrInvalidArgument)
	case !(q.MaxMarks > 0) || math.IsInf(q.MaxMarks, 0):
		return nil, fmt.Errorf("%w: max_marks must be positive", errors.ErrInvalidArgument)
	case q.PassingThreshold < 0 || q.PassingThreshold > 100:
		return nil, fmt.Errorf("%w: passing_threshold must be within 0..100", errors.ErrInvalidArgument)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.questions.GetByKey(ctx, tx, q.QuestionKey)
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		if existing != nil {
			return fmt.Errorf("%w: question %q already exists", errors.ErrConflict, q.QuestionKey)
		}
		if err := s.questions.Create(ctx, tx, q); err != nil {
			return fmt.Errorf("%w: create question: %v", errors.ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Question created", "question_id", q.QuestionKey, "max_marks", q.MaxMarks)
	s.audit.record(ctx, auditEvent{
		Type:       types.AuditQuestionCreated,
		EntityType: "question",
		EntityID:   q.ID.String(),
		Data:       map[string]any{"question_id": q.QuestionKey, "max_marks": q.MaxMarks},
	})
	return q, nil
}

func (s *referenceMaterialService) UpdateMaxMarks(ctx context.Context, questionKey string, maxMarks float64) (*types.Question, error) {
	if !(maxMarks > 0) || math.IsInf(maxMarks, 0) {
		return nil, fmt.Errorf("%w: max_marks must be positive", errors.ErrInvalidArgument)
	}
	var out *types.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.GetQuestion(dbctx.Context{Ctx: ctx, Tx: tx}, questionKey)
		if err != nil {
			return err
		}
		// Same lock as concept extraction takes before inserting.
		q, err := s.questions.GetForUpdate(ctx, tx, found.ID)
		if err != nil {
			return fmt.Errorf("%w: lock question: %v", errors.ErrPersistence, err)
		}
		if q == nil {
			return fmt.Errorf("%w: question %q", errors.ErrNotFound, questionKey)
		}
		n, err := s.concepts.CountByQuestion(ctx, tx, q.ID)
		if err != nil {
			return fmt.Errorf("%w: count concepts: %v", errors.ErrPersistence, err)
		}
		if n > 0 {
			return fmt.Errorf("%w: question %q already has %d key concepts allocated against %s marks",
				errors.ErrConflict, q.QuestionKey, n, formatMarks(q.MaxMarks))
		}
		if err := s.questions.UpdateMaxMarks(ctx, tx, q.ID, maxMarks); err != nil {
			return fmt.Errorf("%w: update marks: %v", errors.ErrPersistence, err)
		}
		q.MaxMarks = maxMarks
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *referenceMaterialService) ListCriteria(dbc dbctx.Context, questionID uuid.UUID) ([]*types.RubricCriterion, error) {
	rows, err := s.criteria.ListByQuestion(dbc.Ctx, dbc.Tx, questionID)
	if err != nil {
		return nil, fmt.Errorf("%w: load criteria: %v", errors.ErrPersistence, err)
	}
	return rows, nil
}

// ReplaceCriteria swaps the question's instructor rubric. Criteria points may
// not exceed the question's marks.
func (s *referenceMaterialService) ReplaceCriteria(ctx context.Context, questionKey string, in []CriterionInput) ([]*types.RubricCriterion, error) {
	var out []*types.RubricCriterion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := s.GetQuestion(dbctx.Context{Ctx: ctx, Tx: tx}, questionKey)
		if err != nil {
			return err
		}
		rows := make([]*types.RubricCriterion, 0, len(in))
		sum := 0.0
		for i, c := range in {
			name := strings.TrimSpace(c.Name)
			if name == "" || !(c.MaxPoints > 0) {
				return fmt.Errorf("%w: criterion %d needs a name and positive max_points", errors.ErrInvalidArgument, i)
			}
			weight := c.Weight
			if weight <= 0 {
				weight = 1
			}
			sum += c.MaxPoints
			rows = append(rows, &types.RubricCriterion{
				QuestionID:  q.ID,
				Ordinal:     i,
				Name:        name,
				Description: strings.TrimSpace(c.Description),
				MaxPoints:   c.MaxPoints,
				Weight:      weight,
			})
		}
		if sum > q.MaxMarks+pointTolerance {
			return fmt.Errorf("%w: criteria total %.2f exceeds max_marks %s", errors.ErrInvalidArgument, sum, formatMarks(q.MaxMarks))
		}
		if err := s.criteria.DeleteByQuestion(ctx, tx, q.ID); err != nil {
			return fmt.Errorf("%w: clear criteria: %v", errors.ErrPersistence, err)
		}
		created, err := s.criteria.Create(ctx, tx, rows)
		if err != nil {
			return fmt.Errorf("%w: create criteria: %v", errors.ErrPersistence, err)
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
