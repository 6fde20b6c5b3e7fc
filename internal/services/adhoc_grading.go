package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/observability"
	"github.com/yungbote/examiner-backend/internal/pkg/errors"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/reasoning"
)

// AdHocGradingService grades and analyzes answers supplied inline. Nothing
// it does reads or writes the database.
type AdHocGradingService interface {
	Grade(ctx context.Context, in AdHocGradeInput) (*AdHocGradeResponse, error)
	GradeBatch(ctx context.Context, items []AdHocGradeInput) (*AdHocBatchResponse, error)
	AnalyzeConcepts(ctx context.Context, ideal IdealAnswerInput) (*ConceptAnalysis, error)
	AnalyzeSimilarity(ctx context.Context, ideal IdealAnswerInput, answerText string) (*SimilarityAnalysis, error)
}

// IdealAnswerInput is reference material that exists only for one request.
// When KeyConcepts is empty the concepts are extracted from Content.
type IdealAnswerInput struct {
	Subject          string
	Topic            string
	QuestionText     string
	Content          string
	MaxMarks         float64
	PassingThreshold float64
	KeyConcepts      []reasoning.ExtractedConcept
}

type AdHocGradeInput struct {
	Ideal      IdealAnswerInput
	StudentID  string
	AnswerText string
	Strategy   types.Strategy
}

type AdHocGradeResponse struct {
	StudentID          string                     `json:"student_id,omitempty"`
	Score              string                     `json:"Score"`
	Percentage         string                     `json:"Percentage"`
	Passed             bool                       `json:"Passed"`
	Justification      string                     `json:"Justification"`
	KeyConceptsCovered []string                   `json:"Key_Concepts_Covered"`
	ConfidenceScore    float64                    `json:"ConfidenceScore"`
	SemanticSimilarity float64                    `json:"semantic_similarity"`
	CoherenceScore     float64                    `json:"coherence_score"`
	CompletenessScore  float64                    `json:"completeness_score"`
	Strengths          json.RawMessage            `json:"strengths"`
	Weaknesses         json.RawMessage            `json:"weaknesses"`
	Suggestions        json.RawMessage            `json:"suggestions"`
	KeyConcepts        []reasoning.ConceptBrief   `json:"key_concepts"`
	Evaluations        []*types.ConceptEvaluation `json:"concept_evaluations"`
	Strategy           types.Strategy             `json:"strategy"`
	GradingModel       string                     `json:"grading_model"`
	ProcessingTimeMs   int64                      `json:"ProcessingTimeMs"`
}

type AdHocBatchItemResult struct {
	Index     int                 `json:"index"`
	StudentID string              `json:"student_id,omitempty"`
	Result    *AdHocGradeResponse `json:"result,omitempty"`
	Error     *BatchError         `json:"error,omitempty"`
}

type AdHocBatchResponse struct {
	Results          []AdHocBatchItemResult `json:"results"`
	Total            int                    `json:"total"`
	Succeeded        int                    `json:"succeeded"`
	Failed           int                    `json:"failed"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
}

type ConceptAnalysis struct {
	KeyConcepts      []reasoning.ConceptBrief `json:"key_concepts"`
	ConceptCount     int                      `json:"concept_count"`
	ProcessingTimeMs int64                    `json:"processing_time_ms"`
}

type SimilarityAnalysis struct {
	Analysis         *reasoning.SemanticComparison `json:"analysis"`
	KeyConcepts      []reasoning.ConceptBrief      `json:"key_concepts"`
	ProcessingTimeMs int64                         `json:"processing_time_ms"`
}

type adHocGradingService struct {
	log             *logger.Logger
	gateway         reasoning.Gateway
	engine          GradingEngine
	defaultStrategy types.Strategy
	batchParallel   int
}

// NewAdHocGradingService expects an engine built without a criteria repo;
// rubrics come from the concepts alone.
func NewAdHocGradingService(baseLog *logger.Logger, gateway reasoning.Gateway, engine GradingEngine, opts WorkflowOptions) AdHocGradingService {
	if opts.DefaultStrategy == "" {
		opts.DefaultStrategy = types.StrategyChainOfThought
	}
	if opts.BatchMaxParallel <= 0 {
		opts.BatchMaxParallel = 4
	}
	return &adHocGradingService{
		log:             baseLog.With("service", "AdHocGradingService"),
		gateway:         gateway,
		engine:          engine,
		defaultStrategy: opts.DefaultStrategy,
		batchParallel:   opts.BatchMaxParallel,
	}
}

func (s *adHocGradingService) Grade(ctx context.Context, in AdHocGradeInput) (*AdHocGradeResponse, error) {
	start := time.Now()
	text := strings.TrimSpace(in.AnswerText)
	if text == "" {
		return nil, fmt.Errorf("%w: answer text required", errors.ErrInvalidArgument)
	}
	if in.Ideal.MaxMarks <= 0 {
		return nil, fmt.Errorf("%w: max marks must be positive", errors.ErrInvalidArgument)
	}
	strategy := in.Strategy
	if strategy == "" {
		strategy = s.defaultStrategy
	}
	parsed, ok := types.ParseStrategy(string(strategy))
	if !ok {
		return nil, fmt.Errorf("%w: unknown grading strategy %q", errors.ErrInvalidArgument, strategy)
	}

	q, err := transientQuestion(in.Ideal)
	if err != nil {
		return nil, err
	}
	concepts, err := s.concepts(ctx, q, in.Ideal.KeyConcepts)
	if err != nil {
		return nil, err
	}
	answer := &types.StudentAnswer{StudentID: strings.TrimSpace(in.StudentID), AnswerText: text}
	result, err := s.engine.Grade(ctx, q, answer, concepts, parsed)
	if err != nil {
		return nil, err
	}

	covered := make([]string, 0, len(result.Evaluations))
	for _, ev := range result.Evaluations {
		covered = append(covered, FormatConceptLine(ev.ConceptName, ev.PointsAwarded, ev.PointsPossible, ev.Explanation))
	}
	elapsed := time.Since(start)
	observability.Current().ObserveStage("adhoc_grade", elapsed)
	return &AdHocGradeResponse{
		StudentID:          answer.StudentID,
		Score:              FormatScore(result.TotalScore, result.MaxPossibleScore),
		Percentage:         FormatPercentage(result.Percentage),
		Passed:             result.Passed,
		Justification:      result.DetailedFeedback,
		KeyConceptsCovered: covered,
		ConfidenceScore:    result.ConfidenceScore,
		SemanticSimilarity: result.SemanticSimilarity,
		CoherenceScore:     result.CoherenceScore,
		CompletenessScore:  result.CompletenessScore,
		Strengths:          json.RawMessage(result.Strengths),
		Weaknesses:         json.RawMessage(result.Weaknesses),
		Suggestions:        json.RawMessage(result.Suggestions),
		KeyConcepts:        briefs(concepts),
		Evaluations:        result.Evaluations,
		Strategy:           result.Strategy,
		GradingModel:       result.GradingModel,
		ProcessingTimeMs:   elapsed.Milliseconds(),
	}, nil
}

func (s *adHocGradingService) GradeBatch(ctx context.Context, items []AdHocGradeInput) (*AdHocBatchResponse, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: batch is empty", errors.ErrInvalidArgument)
	}
	if len(items) > maxBatchItems {
		return nil, fmt.Errorf("%w: batch holds %d items, limit is %d", errors.ErrInvalidArgument, len(items), maxBatchItems)
	}
	start := time.Now()
	out := &AdHocBatchResponse{Results: make([]AdHocBatchItemResult, len(items)), Total: len(items)}

	var g errgroup.Group
	g.SetLimit(s.batchParallel)
	for i, item := range items {
		g.Go(func() error {
			res := AdHocBatchItemResult{Index: i, StudentID: item.StudentID}
			resp, err := s.Grade(ctx, item)
			if err != nil {
				res.Error = &BatchError{Code: errors.Code(err), Message: err.Error()}
			} else {
				res.Result = resp
			}
			out.Results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range out.Results {
		if r.Error != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}
	out.ProcessingTimeMs = time.Since(start).Milliseconds()
	s.log.Info("Ad hoc batch graded", "total", out.Total, "succeeded", out.Succeeded, "failed", out.Failed)
	return out, nil
}

func (s *adHocGradingService) AnalyzeConcepts(ctx context.Context, ideal IdealAnswerInput) (*ConceptAnalysis, error) {
	start := time.Now()
	q, err := transientQuestion(ideal)
	if err != nil {
		return nil, err
	}
	concepts, err := s.concepts(ctx, q, nil)
	if err != nil {
		return nil, err
	}
	return &ConceptAnalysis{
		KeyConcepts:      briefs(concepts),
		ConceptCount:     len(concepts),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func (s *adHocGradingService) AnalyzeSimilarity(ctx context.Context, ideal IdealAnswerInput, answerText string) (*SimilarityAnalysis, error) {
	start := time.Now()
	answerText = strings.TrimSpace(answerText)
	if answerText == "" {
		return nil, fmt.Errorf("%w: answer text required", errors.ErrInvalidArgument)
	}
	q, err := transientQuestion(ideal)
	if err != nil {
		return nil, err
	}
	concepts, err := s.concepts(ctx, q, ideal.KeyConcepts)
	if err != nil {
		return nil, err
	}
	cb := briefs(concepts)
	cmp, err := reasoning.CompareSemantics(ctx, s.gateway, reasoning.SemanticComparisonInput{
		IdealAnswer:   q.IdealAnswer,
		StudentAnswer: answerText,
		Concepts:      cb,
	})
	if err != nil {
		return nil, err
	}
	return &SimilarityAnalysis{
		Analysis:         cmp,
		KeyConcepts:      cb,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// concepts uses the supplied descriptors when there are any and extracts
// otherwise. Marks are split equally either way.
func (s *adHocGradingService) concepts(ctx context.Context, q *types.Question, supplied []reasoning.ExtractedConcept) ([]*types.KeyConcept, error) {
	if len(supplied) == 0 {
		out, err := reasoning.ExtractConcepts(ctx, s.gateway, reasoning.ConceptExtractionInput{
			Subject:     q.Subject,
			Topic:       q.Topic,
			IdealAnswer: q.IdealAnswer,
		})
		if err != nil {
			return nil, err
		}
		supplied = out.KeyConcepts
	}
	rows := buildConcepts(q, supplied)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no usable concepts in ideal answer", errors.ErrExtraction)
	}
	return rows, nil
}

func transientQuestion(in IdealAnswerInput) (*types.Question, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: ideal answer content required", errors.ErrInvalidArgument)
	}
	if in.MaxMarks < 0 {
		return nil, fmt.Errorf("%w: max marks must not be negative", errors.ErrInvalidArgument)
	}
	threshold := in.PassingThreshold
	if threshold <= 0 {
		threshold = types.DefaultPassingThreshold
	}
	if threshold > 100 {
		return nil, fmt.Errorf("%w: passing threshold must be within 0..100", errors.ErrInvalidArgument)
	}
	return &types.Question{
		QuestionKey:      "adhoc",
		Subject:          strings.TrimSpace(in.Subject),
		Topic:            strings.TrimSpace(in.Topic),
		QuestionText:     strings.TrimSpace(in.QuestionText),
		IdealAnswer:      content,
		MaxMarks:         in.MaxMarks,
		PassingThreshold: threshold,
	}, nil
}
