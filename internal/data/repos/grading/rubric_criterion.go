package grading

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type RubricCriterionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.RubricCriterion) ([]*types.RubricCriterion, error)
	ListByQuestion(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) ([]*types.RubricCriterion, error)
	DeleteByQuestion(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) error
}

type rubricCriterionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRubricCriterionRepo(db *gorm.DB, baseLog *logger.Logger) RubricCriterionRepo {
	return &rubricCriterionRepo{db: db, log: baseLog.With("repo", "RubricCriterionRepo")}
}

func (r *rubricCriterionRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.RubricCriterion) ([]*types.RubricCriterion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.RubricCriterion{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *rubricCriterionRepo) ListByQuestion(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) ([]*types.RubricCriterion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.RubricCriterion
	if questionID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("ordinal ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rubricCriterionRepo) DeleteByQuestion(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Where("question_id = ?", questionID).
		Delete(&types.RubricCriterion{}).Error
}
