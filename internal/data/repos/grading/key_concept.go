package grading

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type KeyConceptRepo interface {
	// InsertIfAbsent inserts rows, skipping any (question_id, ordinal) that already
	// exists, and reports how many rows were written.
	InsertIfAbsent(ctx context.Context, tx *gorm.DB, rows []*types.KeyConcept) (int64, error)
	ListByQuestion(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) ([]*types.KeyConcept, error)
	CountByQuestion(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (int64, error)
}

type keyConceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKeyConceptRepo(db *gorm.DB, baseLog *logger.Logger) KeyConceptRepo {
	return &keyConceptRepo{db: db, log: baseLog.With("repo", "KeyConceptRepo")}
}

func (r *keyConceptRepo) InsertIfAbsent(ctx context.Context, tx *gorm.DB, rows []*types.KeyConcept) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return 0, nil
	}
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *keyConceptRepo) ListByQuestion(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) ([]*types.KeyConcept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.KeyConcept
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

func (r *keyConceptRepo) CountByQuestion(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).
		Model(&types.KeyConcept{}).
		Where("question_id = ?", questionID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
