package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/examiner-backend/internal/data/repos"
	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/observability"
	"github.com/yungbote/examiner-backend/internal/pkg/errors"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/reasoning"
)

type GradingEngine interface {
	// Grade produces an unsaved result with its concept evaluations attached.
	Grade(ctx context.Context, q *types.Question, a *types.StudentAnswer, concepts []*types.KeyConcept, strategy types.Strategy) (*types.GradingResult, error)
}

type gradingEngine struct {
	log      *logger.Logger
	gateway  reasoning.Gateway
	criteria repos.RubricCriterionRepo
}

func NewGradingEngine(baseLog *logger.Logger, gateway reasoning.Gateway, criteria repos.RubricCriterionRepo) GradingEngine {
	return &gradingEngine{
		log:      baseLog.With("service", "GradingEngine"),
		gateway:  gateway,
		criteria: criteria,
	}
}

// scored is the strategy-independent outcome before it becomes a row.
type scored struct {
	evals        []*types.ConceptEvaluation
	total        float64
	similarity   float64
	coherence    float64
	completeness float64
	confidence   float64
	feedback     string
	strengths    []string
	weaknesses   []string
	suggestions  []string
	criteria     json.RawMessage
	raw          json.RawMessage
}

func (e *gradingEngine) Grade(ctx context.Context, q *types.Question, a *types.StudentAnswer, concepts []*types.KeyConcept, strategy types.Strategy) (*types.GradingResult, error) {
	if q == nil || a == nil {
		return nil, fmt.Errorf("%w: question and answer required", errors.ErrInvalidArgument)
	}
	if len(concepts) == 0 {
		return nil, fmt.Errorf("%w: question %q has no key concepts", errors.ErrExtraction, q.QuestionKey)
	}
	if strategy == "" {
		strategy = types.StrategyChainOfThought
	}

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "grading.grade", attribute.String("grading.strategy", string(strategy)))
	defer span.End()

	rubric, err := e.rubric(ctx, q, concepts)
	if err != nil {
		return nil, err
	}

	var s *scored
	switch strategy {
	case types.StrategyChainOfThought:
		s, err = e.chainOfThought(ctx, q, a, concepts, rubric)
	case types.StrategyStepByStep:
		s, err = e.stepByStep(ctx, q, a, concepts, rubric)
	default:
		return nil, fmt.Errorf("%w: unknown grading strategy %q", errors.ErrInvalidArgument, strategy)
	}
	if err != nil {
		return nil, err
	}

	result := &types.GradingResult{
		QuestionID:         q.ID,
		StudentAnswerID:    a.ID,
		StudentID:          a.StudentID,
		TotalScore:         clamp(s.total, 0, q.MaxMarks),
		MaxPossibleScore:   q.MaxMarks,
		SemanticSimilarity: clamp01(s.similarity),
		CoherenceScore:     clamp01(s.coherence),
		CompletenessScore:  clamp01(s.completeness),
		ConfidenceScore:    clamp01(s.confidence),
		DetailedFeedback:   strings.TrimSpace(s.feedback),
		Strengths:          jsonList(s.strengths),
		Weaknesses:         jsonList(s.weaknesses),
		Suggestions:        jsonList(s.suggestions),
		CriteriaScores:     jsonObject(s.criteria),
		Strategy:           strategy,
		GradingModel:       e.gateway.Info().Model,
		RawResponse:        jsonObject(s.raw),
		Evaluations:        s.evals,
	}
	result.Percentage = percentOf(result.TotalScore, result.MaxPossibleScore)
	result.Passed = result.Percentage >= q.PassingThreshold
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	// The model's total is kept as graded; concept points are only reported.
	if pts := awardedPoints(s.evals); math.Abs(pts-result.TotalScore) > pointTolerance {
		e.log.Warn("Model total disagrees with concept points",
			"question_id", q.QuestionKey,
			"strategy", strategy,
			"total_score", result.TotalScore,
			"concept_points", pts,
		)
	}

	observability.Current().ObserveStage("grade_"+string(strategy), time.Since(start))
	e.log.Info("Answer graded",
		"question_id", q.QuestionKey,
		"student_id", a.StudentID,
		"strategy", strategy,
		"total_score", result.TotalScore,
		"percentage", result.Percentage,
		"passed", result.Passed,
	)
	return result, nil
}

// rubric uses instructor criteria when the question has them, otherwise one
// criterion per key concept.
func (e *gradingEngine) rubric(ctx context.Context, q *types.Question, concepts []*types.KeyConcept) ([]reasoning.RubricItem, error) {
	var rows []*types.RubricCriterion
	if e.criteria != nil {
		var err error
		if rows, err = e.criteria.ListByQuestion(ctx, nil, q.ID); err != nil {
			return nil, fmt.Errorf("%w: load criteria: %v", errors.ErrPersistence, err)
		}
	}
	out := make([]reasoning.RubricItem, 0, len(concepts))
	if len(rows) > 0 {
		for _, r := range rows {
			out = append(out, reasoning.RubricItem{Criterion: r.Name, Description: r.Description, MaxPoints: r.MaxPoints, Weight: r.Weight})
		}
		return out, nil
	}
	for _, c := range concepts {
		out = append(out, reasoning.RubricItem{Criterion: c.Name, Description: c.Description, MaxPoints: c.MaxPoints, Weight: c.Importance})
	}
	return out, nil
}

func briefs(concepts []*types.KeyConcept) []reasoning.ConceptBrief {
	out := make([]reasoning.ConceptBrief, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, reasoning.ConceptBrief{
			Concept:     c.Name,
			Importance:  c.Importance,
			Keywords:    c.KeywordList(),
			Explanation: c.Description,
			MaxPoints:   c.MaxPoints,
		})
	}
	return out
}

func (e *gradingEngine) chainOfThought(ctx context.Context, q *types.Question, a *types.StudentAnswer, concepts []*types.KeyConcept, rubric []reasoning.RubricItem) (*scored, error) {
	out, raw, err := reasoning.GradeChainOfThought(ctx, e.gateway, reasoning.ChainOfThoughtInput{
		Subject:          q.Subject,
		IdealAnswer:      q.IdealAnswer,
		StudentAnswer:    a.AnswerText,
		Concepts:         briefs(concepts),
		Rubric:           rubric,
		MaxMarks:         q.MaxMarks,
		PassingThreshold: q.PassingThreshold,
	})
	if err != nil {
		return nil, err
	}
	evals := evaluate(concepts, out.Comparisons)
	similarity := defaultSimilarity
	if len(out.Comparisons) > 0 {
		similarity = meanAccuracy(evals)
	}
	criteria, _ := json.Marshal(out.CriteriaScores)
	return &scored{
		evals:        evals,
		total:        *out.TotalScore,
		similarity:   similarity,
		coherence:    orDefault(out.Coherence, defaultCoherence),
		completeness: completeness(evals),
		confidence:   orDefault(out.Confidence, defaultConfidence),
		feedback:     out.Feedback,
		strengths:    out.Strengths,
		weaknesses:   out.Weaknesses,
		suggestions:  out.Suggestions,
		criteria:     criteria,
		raw:          raw,
	}, nil
}

// stepByStep compares semantics first and feeds the normalized evaluations
// into the rubric call.
func (e *gradingEngine) stepByStep(ctx context.Context, q *types.Question, a *types.StudentAnswer, concepts []*types.KeyConcept, rubric []reasoning.RubricItem) (*scored, error) {
	cmp, err := reasoning.CompareSemantics(ctx, e.gateway, reasoning.SemanticComparisonInput{
		IdealAnswer:   q.IdealAnswer,
		StudentAnswer: a.AnswerText,
		Concepts:      briefs(concepts),
	})
	if err != nil {
		return nil, err
	}
	evals := evaluate(concepts, cmp.ConceptEvaluations)

	similarity := defaultSimilarity
	if len(cmp.ConceptEvaluations) > 0 {
		similarity = weightedAccuracy(concepts, evals)
	}
	similarity = orDefault(cmp.Similarity, similarity)
	coherence := orDefault(cmp.Coherence, defaultCoherence)
	complete := orDefault(cmp.Completeness, completeness(evals))

	scoring, rubricRaw, err := reasoning.ApplyRubric(ctx, e.gateway, reasoning.RubricScoringInput{
		IdealAnswer:      q.IdealAnswer,
		StudentAnswer:    a.AnswerText,
		Rubric:           rubric,
		Evaluations:      verdictsOf(evals),
		Similarity:       similarity,
		Coherence:        coherence,
		Completeness:     complete,
		MaxMarks:         q.MaxMarks,
		PassingThreshold: q.PassingThreshold,
	})
	if err != nil {
		return nil, err
	}

	cmpRaw, _ := json.Marshal(cmp)
	raw, _ := json.Marshal(map[string]json.RawMessage{
		string(reasoning.KindSemanticComparison): cmpRaw,
		string(reasoning.KindRubricScoring):      rubricRaw,
	})
	return &scored{
		evals:        evals,
		total:        *scoring.TotalScore,
		similarity:   similarity,
		coherence:    coherence,
		completeness: complete,
		confidence:   orDefault(scoring.ConfidenceScore, defaultConfidence),
		feedback:     scoring.DetailedFeedback,
		strengths:    scoring.Strengths,
		weaknesses:   scoring.Weaknesses,
		suggestions:  scoring.Suggestions,
		criteria:     scoring.CriteriaScores,
		raw:          raw,
	}, nil
}

func jsonList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return datatypes.JSON(b)
}

func jsonObject(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
