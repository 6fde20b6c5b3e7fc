package services

import (
	"math"
	"strings"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/reasoning"
)

const (
	defaultSimilarity   = 0.8
	defaultCompleteness = 0.7
	defaultCoherence    = 0.8
	defaultConfidence   = 0.85

	pointTolerance = 1e-6

	notAddressed = "concept not addressed"
)

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return clamp01(*v)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// percentOf returns total/max as a percentage rounded to one decimal.
func percentOf(total, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return round1(total / max * 100)
}

func awardedPoints(evals []*types.ConceptEvaluation) float64 {
	sum := 0.0
	for _, ev := range evals {
		sum += ev.PointsAwarded
	}
	return sum
}

func normalizeConceptName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// matchVerdicts pairs each concept with at most one model verdict: exact
// normalized name first, then containment in either direction. Concepts with
// no verdict get nil.
func matchVerdicts(concepts []*types.KeyConcept, verdicts []reasoning.ConceptVerdict) []*reasoning.ConceptVerdict {
	out := make([]*reasoning.ConceptVerdict, len(concepts))
	used := make([]bool, len(verdicts))
	names := make([]string, len(verdicts))
	for i := range verdicts {
		names[i] = normalizeConceptName(verdicts[i].Concept)
	}

	for ci, c := range concepts {
		want := normalizeConceptName(c.Name)
		for vi := range verdicts {
			if !used[vi] && names[vi] == want {
				used[vi] = true
				out[ci] = &verdicts[vi]
				break
			}
		}
	}
	for ci, c := range concepts {
		if out[ci] != nil {
			continue
		}
		want := normalizeConceptName(c.Name)
		for vi := range verdicts {
			if used[vi] || names[vi] == "" || want == "" {
				continue
			}
			if strings.Contains(names[vi], want) || strings.Contains(want, names[vi]) {
				used[vi] = true
				out[ci] = &verdicts[vi]
				break
			}
		}
	}
	return out
}

// evaluate turns model verdicts into concept evaluations, one per concept in
// ordinal order. Points never exceed the concept's budget.
func evaluate(concepts []*types.KeyConcept, verdicts []reasoning.ConceptVerdict) []*types.ConceptEvaluation {
	matched := matchVerdicts(concepts, verdicts)
	out := make([]*types.ConceptEvaluation, 0, len(concepts))
	for i, c := range concepts {
		ev := &types.ConceptEvaluation{
			KeyConceptID:   c.ID,
			Ordinal:        c.Ordinal,
			ConceptName:    c.Name,
			PointsPossible: c.MaxPoints,
		}
		v := matched[i]
		if v == nil {
			ev.Explanation = notAddressed
			out = append(out, ev)
			continue
		}
		ev.Present = v.Present
		ev.AccuracyScore = clamp01(v.AccuracyScore)
		ev.PointsAwarded = ev.AccuracyScore * c.MaxPoints
		ev.Explanation = strings.TrimSpace(v.Explanation)
		if ev.Explanation == "" {
			ev.Explanation = "no explanation given"
		}
		if v.Evidence != nil {
			if e := strings.TrimSpace(*v.Evidence); e != "" {
				ev.Evidence = &e
			}
		}
		if normalizeConceptName(v.Concept) != normalizeConceptName(c.Name) {
			ev.Reasoning = "matched model concept " + v.Concept
		}
		out = append(out, ev)
	}
	return out
}

func meanAccuracy(evals []*types.ConceptEvaluation) float64 {
	if len(evals) == 0 {
		return defaultSimilarity
	}
	sum := 0.0
	for _, e := range evals {
		sum += e.AccuracyScore
	}
	return sum / float64(len(evals))
}

// weightedAccuracy weights each evaluation by its concept's importance.
func weightedAccuracy(concepts []*types.KeyConcept, evals []*types.ConceptEvaluation) float64 {
	if len(evals) == 0 {
		return defaultSimilarity
	}
	var num, den float64
	for i, e := range evals {
		w := 1.0
		if i < len(concepts) && concepts[i].Importance > 0 {
			w = concepts[i].Importance
		}
		num += w * e.AccuracyScore
		den += w
	}
	if den == 0 {
		return defaultSimilarity
	}
	return num / den
}

func completeness(evals []*types.ConceptEvaluation) float64 {
	if len(evals) == 0 {
		return defaultCompleteness
	}
	present := 0
	for _, e := range evals {
		if e.Present {
			present++
		}
	}
	return float64(present) / float64(len(evals))
}

func verdictsOf(evals []*types.ConceptEvaluation) []reasoning.ConceptVerdict {
	out := make([]reasoning.ConceptVerdict, 0, len(evals))
	for _, e := range evals {
		out = append(out, reasoning.ConceptVerdict{
			Concept:       e.ConceptName,
			Present:       e.Present,
			AccuracyScore: e.AccuracyScore,
			Explanation:   e.Explanation,
			Evidence:      e.Evidence,
		})
	}
	return out
}
