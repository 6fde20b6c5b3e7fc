package reasoning

import (
	"context"
	"fmt"
)

func ExtractConcepts(ctx context.Context, g Gateway, in ConceptExtractionInput) (*ConceptExtraction, error) {
	raw, err := g.Respond(ctx, KindConceptExtraction, in)
	if err != nil {
		return nil, err
	}
	var out ConceptExtraction
	if err := decodeInto(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", KindConceptExtraction, err)
	}
	return &out, nil
}

func CompareSemantics(ctx context.Context, g Gateway, in SemanticComparisonInput) (*SemanticComparison, error) {
	raw, err := g.Respond(ctx, KindSemanticComparison, in)
	if err != nil {
		return nil, err
	}
	var out SemanticComparison
	if err := decodeInto(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", KindSemanticComparison, err)
	}
	return &out, nil
}

func ApplyRubric(ctx context.Context, g Gateway, in RubricScoringInput) (*RubricScoring, []byte, error) {
	raw, err := g.Respond(ctx, KindRubricScoring, in)
	if err != nil {
		return nil, nil, err
	}
	var out RubricScoring
	if err := decodeInto(raw, &out); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", KindRubricScoring, err)
	}
	return &out, raw, nil
}

// GradeChainOfThought also returns the raw model JSON for auditing.
func GradeChainOfThought(ctx context.Context, g Gateway, in ChainOfThoughtInput) (*ChainOfThoughtGrade, []byte, error) {
	raw, err := g.Respond(ctx, KindChainOfThought, in)
	if err != nil {
		return nil, nil, err
	}
	out, err := parseChainOfThought(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", KindChainOfThought, err)
	}
	return out, raw, nil
}
