package grading

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type GradingResultRepo interface {
	// InsertIfAbsent reports false when a result for the same answer already exists.
	InsertIfAbsent(ctx context.Context, tx *gorm.DB, row *types.GradingResult) (bool, error)
	GetByAnswerID(ctx context.Context, tx *gorm.DB, answerID uuid.UUID) (*types.GradingResult, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*types.GradingResult, error)
}

type gradingResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGradingResultRepo(db *gorm.DB, baseLog *logger.Logger) GradingResultRepo {
	return &gradingResultRepo{db: db, log: baseLog.With("repo", "GradingResultRepo")}
}

func (r *gradingResultRepo) InsertIfAbsent(ctx context.Context, tx *gorm.DB, row *types.GradingResult) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return false, nil
	}
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GetByAnswerID returns nil, nil when the answer has not been graded.
func (r *gradingResultRepo) GetByAnswerID(ctx context.Context, tx *gorm.DB, answerID uuid.UUID) (*types.GradingResult, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if answerID == uuid.Nil {
		return nil, nil
	}
	var out types.GradingResult
	err := t.WithContext(ctx).Where("student_answer_id = ?", answerID).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *gradingResultRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*types.GradingResult, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.GradingResult
	if studentID == "" {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
