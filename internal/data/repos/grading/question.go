package grading

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type QuestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Question) error
	GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.Question, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error)
	// GetForUpdate reads the row with SELECT ... FOR UPDATE; tx must be open.
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error)
	UpdateMaxMarks(ctx context.Context, tx *gorm.DB, id uuid.UUID, maxMarks float64) error
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Question, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Question) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Create(row).Error
}

// GetByKey returns nil, nil when no question carries key.
func (r *questionRepo) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.Question, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var out types.Question
	err := t.WithContext(ctx).Where("question_key = ?", key).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *questionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Question
	err := t.WithContext(ctx).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *questionRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error) {
	if tx == nil {
		return nil, errors.New("GetForUpdate requires a transaction")
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Question
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *questionRepo) UpdateMaxMarks(ctx context.Context, tx *gorm.DB, id uuid.UUID, maxMarks float64) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&types.Question{}).
		Where("id = ?", id).
		Update("max_marks", maxMarks).Error
}

func (r *questionRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Question, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Question
	q := t.WithContext(ctx).Order("created_at ASC").Order("question_key ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
