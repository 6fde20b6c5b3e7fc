package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/examiner-backend/internal/data/repos"
	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/observability"
	"github.com/yungbote/examiner-backend/internal/pkg/dbctx"
	"github.com/yungbote/examiner-backend/internal/pkg/errors"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

const (
	maxBatchItems        = 100
	defaultFlightTimeout = 5 * time.Minute
)

// InflightGuard marks a (question, student) pair as being graded across
// processes. A nil guard disables the check.
type InflightGuard interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
	Wait(ctx context.Context, key string) error
}

type GradingWorkflowService interface {
	CompleteGradingWorkflow(ctx context.Context, questionKey, studentID string, strategy types.Strategy) (*GradingResponse, error)
	// BatchGradingWorkflow grades every item independently; one failure does
	// not stop the others.
	BatchGradingWorkflow(ctx context.Context, items []BatchItem) (*BatchResponse, error)
}

type BatchItem struct {
	QuestionKey string         `json:"question_id"`
	StudentID   string         `json:"student_id"`
	Strategy    types.Strategy `json:"strategy,omitempty"`
}

type BatchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BatchItemResult struct {
	QuestionKey string           `json:"question_id"`
	StudentID   string           `json:"student_id"`
	Result      *GradingResponse `json:"result,omitempty"`
	Error       *BatchError      `json:"error,omitempty"`
}

type BatchResponse struct {
	Results          []BatchItemResult `json:"results"`
	Total            int               `json:"total"`
	Succeeded        int               `json:"succeeded"`
	Failed           int               `json:"failed"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
}

type WorkflowOptions struct {
	DefaultStrategy  types.Strategy
	BatchMaxParallel int
	Guard            InflightGuard
	// FlightTimeout bounds one shared grading run, independent of the
	// callers waiting on it.
	FlightTimeout time.Duration
}

type gradingWorkflowService struct {
	log             *logger.Logger
	refs            ReferenceMaterialService
	catalog         ConceptCatalogService
	answers         AnswerLocatorService
	engine          GradingEngine
	ledger          ResultLedgerService
	audit           *auditor
	guard           InflightGuard
	defaultStrategy types.Strategy
	batchParallel   int
	flightTimeout   time.Duration
	sf              singleflight.Group
}

func NewGradingWorkflowService(
	baseLog *logger.Logger,
	refs ReferenceMaterialService,
	catalog ConceptCatalogService,
	answers AnswerLocatorService,
	engine GradingEngine,
	ledger ResultLedgerService,
	auditLogs repos.AuditLogRepo,
	opts WorkflowOptions,
) GradingWorkflowService {
	log := baseLog.With("service", "GradingWorkflowService")
	if opts.DefaultStrategy == "" {
		opts.DefaultStrategy = types.StrategyChainOfThought
	}
	if opts.BatchMaxParallel <= 0 {
		opts.BatchMaxParallel = 4
	}
	if opts.FlightTimeout <= 0 {
		opts.FlightTimeout = defaultFlightTimeout
	}
	return &gradingWorkflowService{
		log:             log,
		refs:            refs,
		catalog:         catalog,
		answers:         answers,
		engine:          engine,
		ledger:          ledger,
		audit:           &auditor{repo: auditLogs, log: log},
		guard:           opts.Guard,
		defaultStrategy: opts.DefaultStrategy,
		batchParallel:   opts.BatchMaxParallel,
		flightTimeout:   opts.FlightTimeout,
	}
}

func (w *gradingWorkflowService) CompleteGradingWorkflow(ctx context.Context, questionKey, studentID string, strategy types.Strategy) (*GradingResponse, error) {
	questionKey = strings.TrimSpace(questionKey)
	studentID = strings.TrimSpace(studentID)
	if questionKey == "" || studentID == "" {
		return nil, fmt.Errorf("%w: question id and student id required", errors.ErrInvalidArgument)
	}
	if strategy == "" {
		strategy = w.defaultStrategy
	}
	parsed, ok := types.ParseStrategy(string(strategy))
	if !ok {
		return nil, fmt.Errorf("%w: unknown grading strategy %q", errors.ErrInvalidArgument, strategy)
	}
	strategy = parsed

	key := questionKey + "\x00" + studentID
	resp, shared, err := joinFlight(ctx, &w.sf, key, w.flightTimeout, func(ctx context.Context) (*GradingResponse, error) {
		return w.run(ctx, questionKey, studentID, strategy)
	})
	if shared {
		w.log.Debug("Joined in-flight grading", "question_id", questionKey, "student_id", studentID)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (w *gradingWorkflowService) run(ctx context.Context, questionKey, studentID string, strategy types.Strategy) (resp *GradingResponse, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "grading.workflow")
	defer span.End()

	outcome := "graded"
	defer func() {
		if err != nil {
			outcome = errors.Code(err)
			span.RecordError(err)
			w.log.Warn("Grading workflow failed",
				"question_id", questionKey,
				"student_id", studentID,
				"strategy", strategy,
				"code", outcome,
				"error", err,
			)
			w.audit.record(ctx, auditEvent{
				Type:       types.AuditWorkflowFailed,
				EntityType: "student_answer",
				EntityID:   questionKey + "/" + studentID,
				Data:       map[string]any{"question_id": questionKey, "strategy": strategy},
				Err:        err,
				Elapsed:    time.Since(start),
			})
		}
		observability.Current().IncWorkflow(string(strategy), outcome)
		observability.Current().ObserveStage("workflow", time.Since(start))
	}()

	q, err := w.refs.GetQuestion(dbctx.Context{Ctx: ctx}, questionKey)
	if err != nil {
		return nil, err
	}
	concepts, err := w.catalog.GetOrExtractConcepts(ctx, q)
	if err != nil {
		return nil, err
	}
	answer, err := w.answers.GetAnswer(ctx, studentID, q.ID)
	if err != nil {
		return nil, err
	}
	if existing, err := w.ledger.Find(ctx, answer.ID); err != nil || existing != nil {
		outcome = "cached"
		return existing, err
	}

	if w.guard != nil {
		guardKey := answer.ID.String()
		token, ok, gerr := w.guard.Acquire(ctx, guardKey)
		switch {
		case gerr != nil:
			w.log.Warn("In-flight guard unavailable, grading anyway", "answer_id", answer.ID, "error", gerr)
		case ok:
			defer func() {
				if rerr := w.guard.Release(context.WithoutCancel(ctx), guardKey, token); rerr != nil {
					w.log.Warn("In-flight guard release failed", "answer_id", answer.ID, "error", rerr)
				}
			}()
		default:
			w.log.Info("Answer is being graded elsewhere, waiting", "answer_id", answer.ID)
			if werr := w.guard.Wait(ctx, guardKey); werr != nil {
				return nil, fmt.Errorf("waiting for in-flight grading: %w", werr)
			}
			if existing, err := w.ledger.Find(ctx, answer.ID); err != nil || existing != nil {
				outcome = "cached"
				return existing, err
			}
		}
	}

	result, err := w.engine.Grade(ctx, q, answer, concepts, strategy)
	if err != nil {
		return nil, err
	}
	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	return w.ledger.PersistOnce(ctx, answer, result)
}

func (w *gradingWorkflowService) BatchGradingWorkflow(ctx context.Context, items []BatchItem) (*BatchResponse, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: batch is empty", errors.ErrInvalidArgument)
	}
	if len(items) > maxBatchItems {
		return nil, fmt.Errorf("%w: batch holds %d items, limit is %d", errors.ErrInvalidArgument, len(items), maxBatchItems)
	}
	start := time.Now()
	out := &BatchResponse{Results: make([]BatchItemResult, len(items)), Total: len(items)}

	var g errgroup.Group
	g.SetLimit(w.batchParallel)
	for i, item := range items {
		g.Go(func() error {
			res := BatchItemResult{QuestionKey: item.QuestionKey, StudentID: item.StudentID}
			resp, err := w.CompleteGradingWorkflow(ctx, item.QuestionKey, item.StudentID, item.Strategy)
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
	w.log.Info("Batch grading finished", "total", out.Total, "succeeded", out.Succeeded, "failed", out.Failed)
	return out, nil
}
