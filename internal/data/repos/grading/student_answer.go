package grading

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type StudentAnswerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.StudentAnswer) error
	GetByQuestionAndStudent(ctx context.Context, tx *gorm.DB, questionID uuid.UUID, studentID string) (*types.StudentAnswer, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*types.StudentAnswer, error)
	SetWordCount(ctx context.Context, tx *gorm.DB, id uuid.UUID, wordCount int) error
	// List returns submissions joined with their question, newest first.
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*AnswerListing, error)
	Stats(ctx context.Context, tx *gorm.DB) (*AnswerStats, error)
}

// AnswerListing is a submission with the external key and text of its question.
type AnswerListing struct {
	types.StudentAnswer
	QuestionKey  string `gorm:"column:question_key"`
	QuestionText string `gorm:"column:question_text"`
}

// AnswerStats aggregates all submissions. A missing word count counts as zero.
type AnswerStats struct {
	TotalAnswers     int64   `gorm:"column:total_answers"`
	UniqueStudents   int64   `gorm:"column:unique_students"`
	UniqueQuestions  int64   `gorm:"column:unique_questions"`
	AverageWordCount float64 `gorm:"column:average_word_count"`
}

type studentAnswerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentAnswerRepo(db *gorm.DB, baseLog *logger.Logger) StudentAnswerRepo {
	return &studentAnswerRepo{db: db, log: baseLog.With("repo", "StudentAnswerRepo")}
}

func (r *studentAnswerRepo) Create(ctx context.Context, tx *gorm.DB, row *types.StudentAnswer) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *studentAnswerRepo) GetByQuestionAndStudent(ctx context.Context, tx *gorm.DB, questionID uuid.UUID, studentID string) (*types.StudentAnswer, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if questionID == uuid.Nil || studentID == "" {
		return nil, nil
	}
	var out types.StudentAnswer
	err := t.WithContext(ctx).
		Where("question_id = ? AND student_id = ?", questionID, studentID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *studentAnswerRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*types.StudentAnswer, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.StudentAnswer
	if studentID == "" {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentAnswerRepo) SetWordCount(ctx context.Context, tx *gorm.DB, id uuid.UUID, wordCount int) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&types.StudentAnswer{}).
		Where("id = ?", id).
		Update("word_count", wordCount).Error
}

func (r *studentAnswerRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*AnswerListing, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*AnswerListing
	q := t.WithContext(ctx).
		Table("student_answer").
		Select("student_answer.*, question.question_key, question.question_text").
		Joins("JOIN question ON question.id = student_answer.question_id").
		Order("student_answer.submitted_at DESC").
		Order("student_answer.student_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentAnswerRepo) Stats(ctx context.Context, tx *gorm.DB) (*AnswerStats, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out AnswerStats
	err := t.WithContext(ctx).
		Table("student_answer").
		Select(`COUNT(*) AS total_answers,
			COUNT(DISTINCT student_id) AS unique_students,
			COUNT(DISTINCT question_id) AS unique_questions,
			COALESCE(AVG(COALESCE(word_count, 0)), 0) AS average_word_count`).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}
