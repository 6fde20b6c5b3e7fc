package grading

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type ConceptEvaluationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ConceptEvaluation) ([]*types.ConceptEvaluation, error)
	ListByResultIDs(ctx context.Context, tx *gorm.DB, resultIDs []uuid.UUID) ([]*types.ConceptEvaluation, error)
}

type conceptEvaluationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptEvaluationRepo(db *gorm.DB, baseLog *logger.Logger) ConceptEvaluationRepo {
	return &conceptEvaluationRepo{db: db, log: baseLog.With("repo", "ConceptEvaluationRepo")}
}

func (r *conceptEvaluationRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ConceptEvaluation) ([]*types.ConceptEvaluation, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.ConceptEvaluation{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByResultIDs orders rows by result then concept ordinal.
func (r *conceptEvaluationRepo) ListByResultIDs(ctx context.Context, tx *gorm.DB, resultIDs []uuid.UUID) ([]*types.ConceptEvaluation, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ConceptEvaluation
	if len(resultIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("grading_result_id IN ?", resultIDs).
		Order("grading_result_id ASC, ordinal ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
