package grading

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Strategy string

const (
	StrategyChainOfThought Strategy = "chain_of_thought"
	StrategyStepByStep     Strategy = "step_by_step"
)

// ParseStrategy accepts the canonical names plus the short aliases "cot" and "step".
// An empty string yields chain-of-thought.
func ParseStrategy(s string) (Strategy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chain_of_thought", "chain-of-thought", "cot":
		return StrategyChainOfThought, true
	case "step_by_step", "step-by-step", "step":
		return StrategyStepByStep, true
	default:
		return "", false
	}
}

// GradingResult is the authoritative outcome for one StudentAnswer.
// It is written once and never updated.
type GradingResult struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StudentAnswerID    uuid.UUID      `gorm:"type:uuid;column:student_answer_id;not null;uniqueIndex:idx_grading_result_answer" json:"student_answer_id"`
	QuestionID         uuid.UUID      `gorm:"type:uuid;column:question_id;not null;index" json:"question_id"`
	StudentID          string         `gorm:"column:student_id;not null;index" json:"student_id"`
	TotalScore         float64        `gorm:"column:total_score;type:double precision;not null" json:"total_score"`
	MaxPossibleScore   float64        `gorm:"column:max_possible_score;type:double precision;not null" json:"max_possible_score"`
	Percentage         float64        `gorm:"column:percentage;type:double precision;not null" json:"percentage"`
	Passed             bool           `gorm:"column:passed;not null" json:"passed"`
	SemanticSimilarity float64        `gorm:"column:semantic_similarity;type:double precision" json:"semantic_similarity"`
	CoherenceScore     float64        `gorm:"column:coherence_score;type:double precision" json:"coherence_score"`
	CompletenessScore  float64        `gorm:"column:completeness_score;type:double precision" json:"completeness_score"`
	ConfidenceScore    float64        `gorm:"column:confidence_score;type:double precision" json:"confidence_score"`
	DetailedFeedback   string         `gorm:"column:detailed_feedback;type:text" json:"detailed_feedback"`
	Strengths          datatypes.JSON `gorm:"column:strengths;type:jsonb" json:"strengths"`     // []string
	Weaknesses         datatypes.JSON `gorm:"column:weaknesses;type:jsonb" json:"weaknesses"`   // []string
	Suggestions        datatypes.JSON `gorm:"column:suggestions;type:jsonb" json:"suggestions"` // []string
	CriteriaScores     datatypes.JSON `gorm:"column:criteria_scores;type:jsonb" json:"criteria_scores"`
	Strategy           Strategy       `gorm:"column:strategy;not null" json:"strategy"`
	GradingModel       string         `gorm:"column:grading_model" json:"grading_model"`
	GradedBy           string         `gorm:"column:graded_by;not null;default:'ai'" json:"graded_by"`
	ProcessingTimeMs   int64          `gorm:"column:processing_time_ms" json:"processing_time_ms"`
	RawResponse        datatypes.JSON `gorm:"column:raw_response;type:jsonb" json:"-"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`

	Evaluations []*ConceptEvaluation `gorm:"-" json:"concept_evaluations,omitempty"`
}

func (GradingResult) TableName() string { return "grading_result" }

func (r *GradingResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.GradedBy == "" {
		r.GradedBy = "ai"
	}
	return nil
}

// ConceptEvaluation is the per-concept verdict attached to a GradingResult.
type ConceptEvaluation struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GradingResultID uuid.UUID `gorm:"type:uuid;column:grading_result_id;not null;index" json:"grading_result_id"`
	KeyConceptID    uuid.UUID `gorm:"type:uuid;column:key_concept_id;not null;index" json:"key_concept_id"`
	// Copied from the concept so formatting needs no join.
	Ordinal        int       `gorm:"column:ordinal;not null" json:"ordinal"`
	ConceptName    string    `gorm:"column:concept_name;not null" json:"concept_name"`
	Present        bool      `gorm:"column:present;not null" json:"present"`
	AccuracyScore  float64   `gorm:"column:accuracy_score;type:double precision;not null" json:"accuracy_score"`
	PointsAwarded  float64   `gorm:"column:points_awarded;type:double precision;not null" json:"points_awarded"`
	PointsPossible float64   `gorm:"column:points_possible;type:double precision;not null" json:"points_possible"`
	Explanation    string    `gorm:"column:explanation;type:text" json:"explanation"`
	Evidence       *string   `gorm:"column:evidence;type:text" json:"evidence,omitempty"`
	Reasoning      string    `gorm:"column:reasoning;type:text" json:"reasoning,omitempty"`
	EvaluatedAt    time.Time `gorm:"column:evaluated_at;not null" json:"evaluated_at"`
}

func (ConceptEvaluation) TableName() string { return "concept_evaluation" }

func (e *ConceptEvaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EvaluatedAt.IsZero() {
		e.EvaluatedAt = time.Now().UTC()
	}
	return nil
}
