package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/data/repos"
	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/observability"
	"github.com/yungbote/examiner-backend/internal/pkg/errors"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/reasoning"
)

const (
	minExpectedConcepts = 3
	maxExpectedConcepts = 7

	extractionFlightTimeout = 3 * time.Minute
)

type ConceptCatalogService interface {
	// GetOrExtractConcepts returns the question's concept set, extracting and
	// persisting it on first use. An existing set is never rebalanced.
	GetOrExtractConcepts(ctx context.Context, q *types.Question) ([]*types.KeyConcept, error)
}

type conceptCatalogService struct {
	db        *gorm.DB
	log       *logger.Logger
	gateway   reasoning.Gateway
	questions repos.QuestionRepo
	concepts  repos.KeyConceptRepo
	audit     *auditor
	sf        singleflight.Group
}

func NewConceptCatalogService(
	db *gorm.DB,
	baseLog *logger.Logger,
	gateway reasoning.Gateway,
	questions repos.QuestionRepo,
	concepts repos.KeyConceptRepo,
	auditLogs repos.AuditLogRepo,
) ConceptCatalogService {
	log := baseLog.With("service", "ConceptCatalogService")
	return &conceptCatalogService{
		db:        db,
		log:       log,
		gateway:   gateway,
		questions: questions,
		concepts:  concepts,
		audit:     &auditor{repo: auditLogs, log: log},
	}
}

var errConceptRace = fmt.Errorf("concept set written concurrently")

func (s *conceptCatalogService) GetOrExtractConcepts(ctx context.Context, q *types.Question) ([]*types.KeyConcept, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: question required", errors.ErrInvalidArgument)
	}
	existing, err := s.concepts.ListByQuestion(ctx, nil, q.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: load concepts: %v", errors.ErrPersistence, err)
	}
	observability.Current().IncCacheLookup("concepts", len(existing) > 0)
	if len(existing) > 0 {
		return existing, nil
	}

	rows, _, err := joinFlight(ctx, &s.sf, q.ID.String(), extractionFlightTimeout, func(ctx context.Context) ([]*types.KeyConcept, error) {
		// A flight that finished between the list above and here has already committed.
		if again, err := s.concepts.ListByQuestion(ctx, nil, q.ID); err == nil && len(again) > 0 {
			return again, nil
		}
		return s.extract(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *conceptCatalogService) extract(ctx context.Context, q *types.Question) ([]*types.KeyConcept, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "grading.extract_concepts")
	defer span.End()

	out, err := reasoning.ExtractConcepts(ctx, s.gateway, reasoning.ConceptExtractionInput{
		Subject:     q.Subject,
		Topic:       q.Topic,
		IdealAnswer: q.IdealAnswer,
	})
	if err != nil {
		s.recordFailure(ctx, q, err, start)
		return nil, err
	}

	rows := buildConcepts(q, out.KeyConcepts)
	if len(rows) == 0 {
		err := fmt.Errorf("%w: no usable concepts for question %q", errors.ErrExtraction, q.QuestionKey)
		s.recordFailure(ctx, q, err, start)
		return nil, err
	}
	if len(rows) < minExpectedConcepts || len(rows) > maxExpectedConcepts {
		s.log.Warn("Concept count outside expected range",
			"question_id", q.QuestionKey,
			"count", len(rows),
			"min", minExpectedConcepts,
			"max", maxExpectedConcepts,
		)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Marks may have been edited while the model was answering. The row
		// lock orders this insert against UpdateMaxMarks.
		locked, err := s.questions.GetForUpdate(ctx, tx, q.ID)
		if err != nil {
			return fmt.Errorf("%w: lock question: %v", errors.ErrPersistence, err)
		}
		if locked == nil {
			return fmt.Errorf("%w: question %q", errors.ErrNotFound, q.QuestionKey)
		}
		if locked.MaxMarks != q.MaxMarks {
			return fmt.Errorf("%w: max marks of question %q changed from %s to %s during extraction",
				errors.ErrConflict, q.QuestionKey, formatMarks(q.MaxMarks), formatMarks(locked.MaxMarks))
		}
		n, err := s.concepts.InsertIfAbsent(ctx, tx, rows)
		if err != nil {
			return fmt.Errorf("%w: insert concepts: %v", errors.ErrPersistence, err)
		}
		if n != int64(len(rows)) {
			return errConceptRace
		}
		return nil
	})
	switch {
	case err == errConceptRace:
		s.log.Info("Concept set already written by another worker", "question_id", q.QuestionKey)
		winner, rerr := s.concepts.ListByQuestion(ctx, nil, q.ID)
		if rerr != nil {
			return nil, fmt.Errorf("%w: reload concepts: %v", errors.ErrPersistence, rerr)
		}
		return winner, nil
	case err != nil:
		s.recordFailure(ctx, q, err, start)
		return nil, err
	}

	observability.Current().ObserveStage("extract_concepts", time.Since(start))
	s.log.Info("Key concepts extracted",
		"question_id", q.QuestionKey,
		"count", len(rows),
		"points_per_concept", rows[0].MaxPoints,
	)
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	s.audit.record(ctx, auditEvent{
		Type:       types.AuditConceptsExtracted,
		EntityType: "question",
		EntityID:   q.ID.String(),
		Data:       map[string]any{"question_id": q.QuestionKey, "concepts": names, "points_per_concept": rows[0].MaxPoints},
		Elapsed:    time.Since(start),
	})
	return rows, nil
}

func (s *conceptCatalogService) recordFailure(ctx context.Context, q *types.Question, err error, start time.Time) {
	s.audit.record(ctx, auditEvent{
		Type:       types.AuditConceptsExtracted,
		EntityType: "question",
		EntityID:   q.ID.String(),
		Err:        err,
		Elapsed:    time.Since(start),
	})
}

// buildConcepts divides the question's marks equally across the extracted
// concepts. Blank or repeated names are dropped first.
func buildConcepts(q *types.Question, extracted []reasoning.ExtractedConcept) []*types.KeyConcept {
	seen := map[string]bool{}
	kept := make([]reasoning.ExtractedConcept, 0, len(extracted))
	for _, c := range extracted {
		key := normalizeConceptName(c.Concept)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil
	}

	points := q.MaxMarks / float64(len(kept))
	rows := make([]*types.KeyConcept, 0, len(kept))
	for i, c := range kept {
		keywords := c.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		kw, _ := json.Marshal(keywords)
		rows = append(rows, &types.KeyConcept{
			QuestionID:       q.ID,
			Ordinal:          i,
			Name:             strings.TrimSpace(c.Concept),
			Description:      strings.TrimSpace(c.Explanation),
			Importance:       clamp01(c.Importance),
			Keywords:         kw,
			MaxPoints:        points,
			ExtractionMethod: types.ExtractionMethodDerived,
		})
	}
	return rows
}
