package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/data/repos"
	"github.com/yungbote/examiner-backend/internal/data/repos/testutil"
	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/reasoning/reasoningtest"
)

type harness struct {
	db       *gorm.DB
	gw       *reasoningtest.Gateway
	refs     ReferenceMaterialService
	catalog  ConceptCatalogService
	answers  AnswerLocatorService
	engine   GradingEngine
	ledger   ResultLedgerService
	workflow GradingWorkflowService
	adhoc    AdHocGradingService
	audits   repos.AuditLogRepo
}

func newHarness(t *testing.T, opts WorkflowOptions) *harness {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	gw := reasoningtest.NewGateway()

	questions := repos.NewQuestionRepo(db, log)
	concepts := repos.NewKeyConceptRepo(db, log)
	criteria := repos.NewRubricCriterionRepo(db, log)
	answers := repos.NewStudentAnswerRepo(db, log)
	results := repos.NewGradingResultRepo(db, log)
	evals := repos.NewConceptEvaluationRepo(db, log)
	audits := repos.NewAuditLogRepo(db, log)

	h := &harness{db: db, gw: gw, audits: audits}
	h.refs = NewReferenceMaterialService(db, log, questions, concepts, criteria, audits)
	h.catalog = NewConceptCatalogService(db, log, gw, questions, concepts, audits)
	h.answers = NewAnswerLocatorService(db, log, questions, answers, audits)
	h.engine = NewGradingEngine(log, gw, criteria)
	h.ledger = NewResultLedgerService(db, log, results, evals, audits)
	h.workflow = NewGradingWorkflowService(log, h.refs, h.catalog, h.answers, h.engine, h.ledger, audits, opts)
	h.adhoc = NewAdHocGradingService(log, gw, NewGradingEngine(log, gw, nil), opts)
	return h
}

func (h *harness) countRows(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

type comparison struct {
	name    string
	present bool
	pct     float64
	eval    string
}

func cotReply(total float64, comps ...comparison) map[string]any {
	items := make([]map[string]any, 0, len(comps))
	for _, c := range comps {
		items = append(items, map[string]any{
			"concept":             c.name,
			"present":             c.present,
			"accuracy_percentage": c.pct,
			"evidence":            nil,
			"evaluation":          c.eval,
		})
	}
	return map[string]any{
		"comparative_analysis": map[string]any{
			"concept_comparison": items,
			"overall_coherence":  0.7,
		},
		"rubric_evaluation": map[string]any{},
		"final_summary_and_feedback": map[string]any{
			"total_score":           total,
			"strengths":             []string{"clear definitions"},
			"areas_for_improvement": []string{"examples"},
			"specific_suggestions":  []string{"add an example"},
			"overall_feedback":      "Solid answer.",
			"confidence_level":      0.9,
		},
	}
}

func extractionReply(names ...string) map[string]any {
	items := make([]map[string]any, 0, len(names))
	for _, n := range names {
		items = append(items, map[string]any{
			"concept":     n,
			"importance":  0.8,
			"keywords":    []string{n},
			"explanation": n + " matters",
		})
	}
	return map[string]any{"key_concepts": items}
}

func seedQA(t *testing.T, h *harness, key string, maxMarks float64, studentID, text string) (*types.Question, *types.StudentAnswer) {
	t.Helper()
	ctx := context.Background()
	q := testutil.SeedQuestion(t, ctx, h.db, key, maxMarks)
	a := testutil.SeedAnswer(t, ctx, h.db, q.ID, studentID, text)
	return q, a
}
