package reasoning

import "encoding/json"

type PromptKind string

const (
	KindConceptExtraction  PromptKind = "concept_extraction"
	KindSemanticComparison PromptKind = "semantic_comparison"
	KindRubricScoring      PromptKind = "rubric_scoring"
	KindChainOfThought     PromptKind = "chain_of_thought"
)

// ConceptBrief is how a stored key concept is presented to the model.
type ConceptBrief struct {
	Concept     string   `json:"concept"`
	Importance  float64  `json:"importance"`
	Keywords    []string `json:"keywords,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	MaxPoints   float64  `json:"max_points"`
}

// RubricItem is one scoring criterion presented to the model.
type RubricItem struct {
	Criterion   string  `json:"criterion"`
	Description string  `json:"description,omitempty"`
	MaxPoints   float64 `json:"max_points"`
	Weight      float64 `json:"weight"`
}

type ConceptExtractionInput struct {
	Subject     string
	Topic       string
	IdealAnswer string
}

type SemanticComparisonInput struct {
	IdealAnswer   string
	StudentAnswer string
	Concepts      []ConceptBrief
}

type RubricScoringInput struct {
	IdealAnswer      string
	StudentAnswer    string
	Rubric           []RubricItem
	Evaluations      []ConceptVerdict
	Similarity       float64
	Coherence        float64
	Completeness     float64
	MaxMarks         float64
	PassingThreshold float64
}

type ChainOfThoughtInput struct {
	Subject          string
	IdealAnswer      string
	StudentAnswer    string
	Concepts         []ConceptBrief
	Rubric           []RubricItem
	MaxMarks         float64
	PassingThreshold float64
}

// ExtractedConcept is one concept descriptor returned by extraction.
type ExtractedConcept struct {
	Concept     string   `json:"concept" validate:"required"`
	Importance  float64  `json:"importance"`
	Keywords    []string `json:"keywords"`
	Explanation string   `json:"explanation"`
}

type ConceptExtraction struct {
	KeyConcepts []ExtractedConcept `json:"key_concepts" validate:"required,dive"`
}

// ConceptVerdict is the model's per-concept judgement. AccuracyScore is on a 0..1 scale.
type ConceptVerdict struct {
	Concept       string  `json:"concept" validate:"required"`
	Present       bool    `json:"present"`
	AccuracyScore float64 `json:"accuracy_score"`
	Explanation   string  `json:"explanation"`
	Evidence      *string `json:"evidence"`
}

type SemanticComparison struct {
	ConceptEvaluations []ConceptVerdict `json:"concept_evaluations" validate:"required,dive"`
	Similarity         *float64         `json:"overall_semantic_similarity"`
	Coherence          *float64         `json:"coherence_score"`
	Completeness       *float64         `json:"completeness_score"`
}

type RubricScoring struct {
	CriteriaScores   json.RawMessage `json:"criteria_scores"`
	TotalScore       *float64        `json:"total_score" validate:"required"`
	MaxPossibleScore float64         `json:"max_possible_score"`
	Strengths        []string        `json:"strengths"`
	Weaknesses       []string        `json:"weaknesses"`
	Suggestions      []string        `json:"suggestions"`
	DetailedFeedback string          `json:"detailed_feedback"`
	ConfidenceScore  *float64        `json:"confidence_score"`
}

// ChainOfThoughtGrade is the normalized single-call grading output.
type ChainOfThoughtGrade struct {
	Comparisons      []ConceptVerdict `validate:"dive"`
	Coherence        *float64
	CriteriaScores   map[string]float64
	TotalScore       *float64 `validate:"required"`
	MaxPossibleScore float64
	Strengths        []string
	Weaknesses       []string
	Suggestions      []string
	Feedback         string
	Confidence       *float64
}
