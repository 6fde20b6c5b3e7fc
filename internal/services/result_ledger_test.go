package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/data/repos"
	"github.com/yungbote/examiner-backend/internal/data/repos/testutil"
	types "github.com/yungbote/examiner-backend/internal/domain"
)

func TestFormatting(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"score whole marks", FormatScore(26, 30), "26.0/30"},
		{"score fractional marks", FormatScore(7.3, 12.5), "7.3/12.5"},
		{"percentage", FormatPercentage(86.66), "86.7%"},
		{"concept line", FormatConceptLine("Inertia", 9, 10, "Clearly explained"), "Inertia (9.0/10.0 points) - Clearly explained"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("want=%q got=%q", tc.want, tc.got)
			}
		})
	}
}

func newUnsavedResult(q *types.Question, concepts []*types.KeyConcept, total float64, explanation string) *types.GradingResult {
	evals := make([]*types.ConceptEvaluation, 0, len(concepts))
	for _, c := range concepts {
		evals = append(evals, &types.ConceptEvaluation{
			KeyConceptID:   c.ID,
			Ordinal:        c.Ordinal,
			ConceptName:    c.Name,
			Present:        true,
			AccuracyScore:  0.9,
			PointsAwarded:  0.9 * c.MaxPoints,
			PointsPossible: c.MaxPoints,
			Explanation:    explanation,
		})
	}
	return &types.GradingResult{
		TotalScore:       total,
		MaxPossibleScore: q.MaxMarks,
		Percentage:       percentOf(total, q.MaxMarks),
		Passed:           percentOf(total, q.MaxMarks) >= q.PassingThreshold,
		DetailedFeedback: "Good work.",
		ConfidenceScore:  0.9,
		Strategy:         types.StrategyChainOfThought,
		Evaluations:      evals,
	}
}

func TestPersistOnceFormatsStoredRow(t *testing.T) {
	h := newHarness(t, WorkflowOptions{})
	ctx := context.Background()
	q, a := seedQA(t, h, "Q-LEDGER", 30, "s-1", "inertia keeps things moving")
	concepts := testutil.SeedConcepts(t, ctx, h.db, q, "Inertia", "Net force", "Frames")

	resp, err := h.ledger.PersistOnce(ctx, a, newUnsavedResult(q, concepts, 26, "Clearly explained"))
	if err != nil {
		t.Fatalf("PersistOnce: %v", err)
	}
	if resp.Score != "26.0/30" || resp.Percentage != "86.7%" || !resp.Passed {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.KeyConceptsCovered) != 3 || resp.KeyConceptsCovered[0] != "Inertia (9.0/10.0 points) - Clearly explained" {
		t.Fatalf("concept lines: %v", resp.KeyConceptsCovered)
	}
	if resp.GradingResultID == uuid.Nil || resp.Justification != "Good work." {
		t.Fatalf("result id or justification missing: %+v", resp)
	}

	found, err := h.ledger.Find(ctx, a.ID)
	if err != nil || found == nil {
		t.Fatalf("Find: %v %v", found, err)
	}
	if found.GradingResultID != resp.GradingResultID || found.Score != resp.Score {
		t.Fatalf("Find differs from PersistOnce: %+v vs %+v", found, resp)
	}
}

func TestPersistOnceKeepsFirstResult(t *testing.T) {
	h := newHarness(t, WorkflowOptions{})
	ctx := context.Background()
	q, a := seedQA(t, h, "Q-ONCE", 10, "s-1", "answer")
	concepts := testutil.SeedConcepts(t, ctx, h.db, q, "A", "B")

	first, err := h.ledger.PersistOnce(ctx, a, newUnsavedResult(q, concepts, 8, "first"))
	if err != nil {
		t.Fatalf("first PersistOnce: %v", err)
	}
	second, err := h.ledger.PersistOnce(ctx, a, newUnsavedResult(q, concepts, 2, "second"))
	if err != nil {
		t.Fatalf("second PersistOnce: %v", err)
	}
	if second.GradingResultID != first.GradingResultID || second.Score != "8.0/10" {
		t.Fatalf("second write replaced the first: first=%+v second=%+v", first, second)
	}
	if n := h.countRows(t, &types.GradingResult{}, "student_answer_id = ?", a.ID); n != 1 {
		t.Fatalf("grading results=%d want 1", n)
	}
	if n := h.countRows(t, &types.ConceptEvaluation{}, "grading_result_id = ?", first.GradingResultID); n != 2 {
		t.Fatalf("evaluations=%d want 2", n)
	}
}

// staleResults misses rows inside transactions, the way a reader that
// committed its snapshot before a concurrent insert would.
type staleResults struct {
	repos.GradingResultRepo
}

func (r staleResults) GetByAnswerID(ctx context.Context, tx *gorm.DB, answerID uuid.UUID) (*types.GradingResult, error) {
	if tx != nil {
		return nil, nil
	}
	return r.GradingResultRepo.GetByAnswerID(ctx, tx, answerID)
}

func TestPersistOnceLosesInsertRace(t *testing.T) {
	h := newHarness(t, WorkflowOptions{})
	ctx := context.Background()
	q, a := seedQA(t, h, "Q-CONFLICT", 10, "s-1", "answer")
	concepts := testutil.SeedConcepts(t, ctx, h.db, q, "A", "B")

	first, err := h.ledger.PersistOnce(ctx, a, newUnsavedResult(q, concepts, 8, "first"))
	if err != nil {
		t.Fatalf("first PersistOnce: %v", err)
	}

	log := testutil.Logger(t)
	late := NewResultLedgerService(h.db, log,
		staleResults{repos.NewGradingResultRepo(h.db, log)},
		repos.NewConceptEvaluationRepo(h.db, log),
		h.audits,
	)
	second, err := late.PersistOnce(ctx, a, newUnsavedResult(q, concepts, 2, "second"))
	if err != nil {
		t.Fatalf("late PersistOnce: %v", err)
	}
	if second.GradingResultID != first.GradingResultID || second.Score != "8.0/10" || len(second.KeyConceptsCovered) != 2 {
		t.Fatalf("late writer did not return the stored row: first=%+v second=%+v", first, second)
	}
	if n := h.countRows(t, &types.GradingResult{}, "student_answer_id = ?", a.ID); n != 1 {
		t.Fatalf("grading results=%d want 1", n)
	}
	if n := h.countRows(t, &types.ConceptEvaluation{}, "1 = 1"); n != 2 {
		t.Fatalf("evaluations=%d want 2", n)
	}
}

func TestFindUngraded(t *testing.T) {
	h := newHarness(t, WorkflowOptions{})
	resp, err := h.ledger.Find(context.Background(), uuid.New())
	if err != nil || resp != nil {
		t.Fatalf("Find on ungraded answer: resp=%v err=%v", resp, err)
	}
}

func TestListResultsByStudent(t *testing.T) {
	h := newHarness(t, WorkflowOptions{})
	ctx := context.Background()
	q, a := seedQA(t, h, "Q-LIST", 10, "s-list", "answer")
	concepts := testutil.SeedConcepts(t, ctx, h.db, q, "A", "B")
	if _, err := h.ledger.PersistOnce(ctx, a, newUnsavedResult(q, concepts, 6, "ok")); err != nil {
		t.Fatalf("PersistOnce: %v", err)
	}
	rows, err := h.ledger.ListByStudent(ctx, "s-list")
	if err != nil {
		t.Fatalf("ListByStudent: %v", err)
	}
	if len(rows) != 1 || len(rows[0].Evaluations) != 2 || rows[0].Evaluations[0].ConceptName != "A" {
		t.Fatalf("unexpected listing: %+v", rows)
	}
}
