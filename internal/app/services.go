package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/reasoning"
	"github.com/yungbote/examiner-backend/internal/services"
)

type Services struct {
	Gateway  reasoning.Gateway
	Refs     services.ReferenceMaterialService
	Catalog  services.ConceptCatalogService
	Answers  services.AnswerLocatorService
	Engine   services.GradingEngine
	Ledger   services.ResultLedgerService
	Workflow services.GradingWorkflowService
	AdHoc    services.AdHocGradingService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	retry := reasoning.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.Reasoning.MaxAttempts
	retry.BaseDelay = cfg.Reasoning.RetryBase
	retry.MaxDelay = cfg.Reasoning.RetryMax

	gradingTemp := cfg.Reasoning.GradingTemperature
	gateway, err := reasoning.NewGateway(log, clients.Reasoning, reasoning.Options{
		Retry: retry,
		Pool:  reasoning.NewPool(cfg.Reasoning.MaxConcurrency, cfg.Reasoning.RatePerSecond),
		Temperatures: map[reasoning.PromptKind]float64{
			reasoning.KindConceptExtraction:  cfg.Reasoning.ExtractionTemperature,
			reasoning.KindSemanticComparison: gradingTemp,
			reasoning.KindRubricScoring:      gradingTemp,
			reasoning.KindChainOfThought:     gradingTemp,
		},
		MaxTokens: cfg.Reasoning.MaxTokens,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init reasoning gateway: %w", err)
	}

	refs := services.NewReferenceMaterialService(db, log, repos.Question, repos.KeyConcept, repos.RubricCriterion, repos.AuditLog)
	catalog := services.NewConceptCatalogService(db, log, gateway, repos.Question, repos.KeyConcept, repos.AuditLog)
	answers := services.NewAnswerLocatorService(db, log, repos.Question, repos.StudentAnswer, repos.AuditLog)
	engine := services.NewGradingEngine(log, gateway, repos.RubricCriterion)
	ledger := services.NewResultLedgerService(db, log, repos.GradingResult, repos.ConceptEvaluation, repos.AuditLog)

	opts := services.WorkflowOptions{
		DefaultStrategy:  cfg.DefaultStrategy,
		BatchMaxParallel: cfg.BatchParallel,
		FlightTimeout:    cfg.FlightTimeout,
	}
	if clients.Inflight != nil {
		opts.Guard = clients.Inflight
	}
	workflow := services.NewGradingWorkflowService(log, refs, catalog, answers, engine, ledger, repos.AuditLog, opts)
	adhoc := services.NewAdHocGradingService(log, gateway, services.NewGradingEngine(log, gateway, nil), opts)

	return Services{
		Gateway:  gateway,
		Refs:     refs,
		Catalog:  catalog,
		Answers:  answers,
		Engine:   engine,
		Ledger:   ledger,
		Workflow: workflow,
		AdHoc:    adhoc,
	}, nil
}
