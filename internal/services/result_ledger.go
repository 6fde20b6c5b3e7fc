package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/data/repos"
	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/observability"
	"github.com/yungbote/examiner-backend/internal/pkg/errors"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

// GradingResponse is the workflow wire contract. Field names are fixed.
type GradingResponse struct {
	Score              string    `json:"Score"`
	Percentage         string    `json:"Percentage"`
	Passed             bool      `json:"Passed"`
	Justification      string    `json:"Justification"`
	KeyConceptsCovered []string  `json:"Key_Concepts_Covered"`
	ProcessingTimeMs   int64     `json:"ProcessingTimeMs"`
	ConfidenceScore    float64   `json:"ConfidenceScore"`
	GradingResultID    uuid.UUID `json:"GradingResultId"`
}

type ResultLedgerService interface {
	// Find returns the formatted result for answer, or nil when it is ungraded.
	Find(ctx context.Context, answerID uuid.UUID) (*GradingResponse, error)
	// PersistOnce writes result unless the answer already has one, and always
	// returns the response built from the stored row.
	PersistOnce(ctx context.Context, answer *types.StudentAnswer, result *types.GradingResult) (*GradingResponse, error)
	ListByStudent(ctx context.Context, studentID string) ([]*types.GradingResult, error)
}

type resultLedgerService struct {
	db          *gorm.DB
	log         *logger.Logger
	results     repos.GradingResultRepo
	evaluations repos.ConceptEvaluationRepo
	audit       *auditor
}

func NewResultLedgerService(
	db *gorm.DB,
	baseLog *logger.Logger,
	results repos.GradingResultRepo,
	evaluations repos.ConceptEvaluationRepo,
	auditLogs repos.AuditLogRepo,
) ResultLedgerService {
	log := baseLog.With("service", "ResultLedgerService")
	return &resultLedgerService{
		db:          db,
		log:         log,
		results:     results,
		evaluations: evaluations,
		audit:       &auditor{repo: auditLogs, log: log},
	}
}

var errResultExists = fmt.Errorf("grading result already exists")

func (s *resultLedgerService) Find(ctx context.Context, answerID uuid.UUID) (*GradingResponse, error) {
	row, err := s.load(ctx, answerID)
	if err != nil {
		return nil, err
	}
	observability.Current().IncCacheLookup("results", row != nil)
	if row == nil {
		return nil, nil
	}
	return formatResponse(row), nil
}

func (s *resultLedgerService) load(ctx context.Context, answerID uuid.UUID) (*types.GradingResult, error) {
	row, err := s.results.GetByAnswerID(ctx, nil, answerID)
	if err != nil {
		return nil, fmt.Errorf("%w: load result: %v", errors.ErrPersistence, err)
	}
	if row == nil {
		return nil, nil
	}
	evals, err := s.evaluations.ListByResultIDs(ctx, nil, []uuid.UUID{row.ID})
	if err != nil {
		return nil, fmt.Errorf("%w: load evaluations: %v", errors.ErrPersistence, err)
	}
	row.Evaluations = evals
	return row, nil
}

func (s *resultLedgerService) PersistOnce(ctx context.Context, answer *types.StudentAnswer, result *types.GradingResult) (*GradingResponse, error) {
	if answer == nil || result == nil {
		return nil, fmt.Errorf("%w: answer and result required", errors.ErrInvalidArgument)
	}
	start := time.Now()
	result.StudentAnswerID = answer.ID
	result.QuestionID = answer.QuestionID
	result.StudentID = answer.StudentID
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.results.GetByAnswerID(ctx, tx, answer.ID)
		if err != nil {
			return fmt.Errorf("%w: check result: %v", errors.ErrPersistence, err)
		}
		if existing != nil {
			return errResultExists
		}
		inserted, err := s.results.InsertIfAbsent(ctx, tx, result)
		if err != nil {
			return fmt.Errorf("%w: insert result: %v", errors.ErrPersistence, err)
		}
		if !inserted {
			return errResultExists
		}
		now := time.Now().UTC()
		for _, ev := range result.Evaluations {
			ev.ID = uuid.Nil
			ev.GradingResultID = result.ID
			ev.EvaluatedAt = now
		}
		if _, err := s.evaluations.Create(ctx, tx, result.Evaluations); err != nil {
			return fmt.Errorf("%w: insert evaluations: %v", errors.ErrPersistence, err)
		}
		return nil
	})
	switch {
	case err == errResultExists:
		s.log.Info("Grading result already recorded, returning stored row", "answer_id", answer.ID)
	case err != nil:
		return nil, err
	default:
		s.audit.record(ctx, auditEvent{
			Type:       types.AuditAnswerGraded,
			EntityType: "grading_result",
			EntityID:   result.ID.String(),
			Data: map[string]any{
				"student_answer_id": answer.ID.String(),
				"total_score":       result.TotalScore,
				"percentage":        result.Percentage,
				"strategy":          result.Strategy,
			},
			Elapsed: time.Duration(result.ProcessingTimeMs) * time.Millisecond,
		})
		observability.Current().ObserveScore(result.Percentage)
	}
	observability.Current().ObserveStage("persist", time.Since(start))

	row, err := s.load(ctx, answer.ID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: result for answer %s vanished after write", errors.ErrPersistence, answer.ID)
	}
	return formatResponse(row), nil
}

func (s *resultLedgerService) ListByStudent(ctx context.Context, studentID string) ([]*types.GradingResult, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id required", errors.ErrInvalidArgument)
	}
	rows, err := s.results.ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: list results: %v", errors.ErrPersistence, err)
	}
	if len(rows) == 0 {
		return rows, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	byID := make(map[uuid.UUID]*types.GradingResult, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
		byID[r.ID] = r
	}
	evals, err := s.evaluations.ListByResultIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: list evaluations: %v", errors.ErrPersistence, err)
	}
	for _, ev := range evals {
		if r := byID[ev.GradingResultID]; r != nil {
			r.Evaluations = append(r.Evaluations, ev)
		}
	}
	return rows, nil
}

func formatResponse(row *types.GradingResult) *GradingResponse {
	covered := make([]string, 0, len(row.Evaluations))
	for _, ev := range row.Evaluations {
		covered = append(covered, FormatConceptLine(ev.ConceptName, ev.PointsAwarded, ev.PointsPossible, ev.Explanation))
	}
	return &GradingResponse{
		Score:              FormatScore(row.TotalScore, row.MaxPossibleScore),
		Percentage:         FormatPercentage(row.Percentage),
		Passed:             row.Passed,
		Justification:      row.DetailedFeedback,
		KeyConceptsCovered: covered,
		ProcessingTimeMs:   row.ProcessingTimeMs,
		ConfidenceScore:    row.ConfidenceScore,
		GradingResultID:    row.ID,
	}
}

// FormatScore renders "26.0/30": one decimal for the score, marks as written.
func FormatScore(total, maxMarks float64) string {
	return fmt.Sprintf("%.1f/%s", total, formatMarks(maxMarks))
}

func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func FormatConceptLine(name string, awarded, possible float64, explanation string) string {
	return fmt.Sprintf("%s (%.1f/%.1f points) - %s", name, awarded, possible, explanation)
}

func formatMarks(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
