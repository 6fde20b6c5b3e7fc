package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/data/repos"
	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/errors"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/pkg/pointers"
)

type AnswerLocatorService interface {
	// GetAnswer returns the student's submission, backfilling its word count
	// on first access.
	GetAnswer(ctx context.Context, studentID string, questionID uuid.UUID) (*types.StudentAnswer, error)
	CreateAnswer(ctx context.Context, in CreateAnswerInput) (*types.StudentAnswer, error)
	ListByStudent(ctx context.Context, studentID string) ([]*types.StudentAnswer, error)
	ListAnswers(ctx context.Context, page Page) ([]*AnswerSummary, error)
	AnswerStats(ctx context.Context) (*AnswerStats, error)
}

// AnswerSummary is one row of the submission listing. QuestionText is
// shortened to questionPreviewLen runes.
type AnswerSummary struct {
	ID           uuid.UUID `json:"id"`
	StudentID    string    `json:"student_id"`
	QuestionKey  string    `json:"question_id"`
	QuestionText string    `json:"question_text"`
	AnswerText   string    `json:"answer_text"`
	WordCount    *int      `json:"word_count"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Language     string    `json:"language"`
}

type AnswerStats struct {
	TotalAnswers     int64   `json:"total_answers"`
	UniqueStudents   int64   `json:"unique_students"`
	UniqueQuestions  int64   `json:"unique_questions"`
	AverageWordCount float64 `json:"average_word_count"`
}

const questionPreviewLen = 100

type CreateAnswerInput struct {
	QuestionKey string
	StudentID   string
	AnswerText  string
	Language    string
	SubmittedAt *time.Time
}

type answerLocatorService struct {
	db        *gorm.DB
	log       *logger.Logger
	questions repos.QuestionRepo
	answers   repos.StudentAnswerRepo
	audit     *auditor
}

func NewAnswerLocatorService(
	db *gorm.DB,
	baseLog *logger.Logger,
	questions repos.QuestionRepo,
	answers repos.StudentAnswerRepo,
	auditLogs repos.AuditLogRepo,
) AnswerLocatorService {
	log := baseLog.With("service", "AnswerLocatorService")
	return &answerLocatorService{
		db:        db,
		log:       log,
		questions: questions,
		answers:   answers,
		audit:     &auditor{repo: auditLogs, log: log},
	}
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func (s *answerLocatorService) GetAnswer(ctx context.Context, studentID string, questionID uuid.UUID) (*types.StudentAnswer, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id required", errors.ErrInvalidArgument)
	}
	a, err := s.answers.GetByQuestionAndStudent(ctx, nil, questionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: load answer: %v", errors.ErrPersistence, err)
	}
	if a == nil {
		return nil, fmt.Errorf("%w: no answer from student for question", errors.ErrNotFound)
	}
	if a.WordCount == nil || *a.WordCount == 0 {
		wc := wordCount(a.AnswerText)
		if err := s.answers.SetWordCount(ctx, nil, a.ID, wc); err != nil {
			return nil, fmt.Errorf("%w: backfill word count: %v", errors.ErrPersistence, err)
		}
		a.WordCount = pointers.Int(wc)
		s.log.Debug("Word count backfilled", "answer_id", a.ID, "word_count", wc)
	}
	return a, nil
}

func (s *answerLocatorService) CreateAnswer(ctx context.Context, in CreateAnswerInput) (*types.StudentAnswer, error) {
	key := strings.TrimSpace(in.QuestionKey)
	studentID := strings.TrimSpace(in.StudentID)
	text := strings.TrimSpace(in.AnswerText)
	if key == "" || studentID == "" || text == "" {
		return nil, fmt.Errorf("%w: question id, student id and answer text required", errors.ErrInvalidArgument)
	}

	wc := wordCount(text)
	a := &types.StudentAnswer{
		StudentID:  studentID,
		AnswerText: text,
		WordCount:  pointers.Int(wc),
		Language:   strings.TrimSpace(in.Language),
	}
	if in.SubmittedAt != nil {
		a.SubmittedAt = in.SubmittedAt.UTC()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := s.questions.GetByKey(ctx, tx, key)
		if err != nil {
			return fmt.Errorf("%w: load question: %v", errors.ErrPersistence, err)
		}
		if q == nil {
			return fmt.Errorf("%w: question %q", errors.ErrNotFound, key)
		}
		a.QuestionID = q.ID
		existing, err := s.answers.GetByQuestionAndStudent(ctx, tx, q.ID, studentID)
		if err != nil {
			return fmt.Errorf("%w: load answer: %v", errors.ErrPersistence, err)
		}
		if existing != nil {
			return fmt.Errorf("%w: student already answered question %q", errors.ErrConflict, key)
		}
		if err := s.answers.Create(ctx, tx, a); err != nil {
			return fmt.Errorf("%w: create answer: %v", errors.ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, auditEvent{
		Type:       types.AuditAnswerSubmitted,
		EntityType: "student_answer",
		EntityID:   a.ID.String(),
		Data:       map[string]any{"question_id": key, "word_count": wc},
	})
	return a, nil
}

func (s *answerLocatorService) ListByStudent(ctx context.Context, studentID string) ([]*types.StudentAnswer, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id required", errors.ErrInvalidArgument)
	}
	rows, err := s.answers.ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: list answers: %v", errors.ErrPersistence, err)
	}
	return rows, nil
}

func (s *answerLocatorService) ListAnswers(ctx context.Context, page Page) ([]*AnswerSummary, error) {
	page, err := page.normalize()
	if err != nil {
		return nil, err
	}
	rows, err := s.answers.List(ctx, nil, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list answers: %v", errors.ErrPersistence, err)
	}
	out := make([]*AnswerSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, &AnswerSummary{
			ID:           r.ID,
			StudentID:    r.StudentID,
			QuestionKey:  r.QuestionKey,
			QuestionText: preview(r.QuestionText, questionPreviewLen),
			AnswerText:   r.AnswerText,
			WordCount:    r.WordCount,
			SubmittedAt:  r.SubmittedAt,
			Language:     r.Language,
		})
	}
	return out, nil
}

func (s *answerLocatorService) AnswerStats(ctx context.Context) (*AnswerStats, error) {
	st, err := s.answers.Stats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: answer stats: %v", errors.ErrPersistence, err)
	}
	return &AnswerStats{
		TotalAnswers:     st.TotalAnswers,
		UniqueStudents:   st.UniqueStudents,
		UniqueQuestions:  st.UniqueQuestions,
		AverageWordCount: math.Round(st.AverageWordCount*100) / 100,
	}, nil
}

func preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
