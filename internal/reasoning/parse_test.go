package reasoning

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/yungbote/examiner-backend/internal/pkg/errors"
)

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"{\"a\": 1}":                     `{"a": 1}`,
		"```json\n{\"a\": 1}\n```":       `{"a": 1}`,
		"```\n{\"a\": 1}\n```":           `{"a": 1}`,
		"  ```JSON\n{\"a\": 1}```  ":     `{"a": 1}`,
		"```json{\"a\": 1}```":           `{"a": 1}`,
		"\n\n```json\n\n{\"a\": 1}\n\n```": `{"a": 1}`,
	}
	for in, want := range cases {
		if got := StripFences(in); got != want {
			t.Fatalf("StripFences(%q)=%q want %q", in, got, want)
		}
	}
}

func TestCleanJSONRejectsNonObjects(t *testing.T) {
	for _, in := range []string{"", "[1,2]", "{\"a\": }", "grade: 7"} {
		if _, err := cleanJSON(in); !stderrors.Is(err, errors.ErrResponseParsing) {
			t.Fatalf("cleanJSON(%q) err=%v want ErrResponseParsing", in, err)
		}
	}
}

func TestParseChainOfThoughtNestedLayout(t *testing.T) {
	raw := []byte(`{
	  "comparative_analysis": {
	    "concept_comparison": [
	      {"concept": "Inertia", "present": true, "accuracy_percentage": 90, "evidence": "stays at rest", "evaluation": "Clearly explained"},
	      {"concept": "Net force", "present": false, "accuracy_percentage": 0, "evidence": null, "evaluation": "Missing"}
	    ],
	    "overall_coherence": 0.75
	  },
	  "rubric_evaluation": {"Inertia": {"points_awarded": 9, "max_points": 10}},
	  "final_summary_and_feedback": {
	    "total_score": 9,
	    "max_possible_score": 20,
	    "strengths": ["Inertia"],
	    "areas_for_improvement": ["Net force"],
	    "specific_suggestions": ["Define net force"],
	    "overall_feedback": "Half there.",
	    "confidence_level": 0.9
	  }
	}`)
	got, err := parseChainOfThought(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Comparisons) != 2 || got.Comparisons[0].AccuracyScore != 0.9 || got.Comparisons[1].Evidence != nil {
		t.Fatalf("comparisons=%+v", got.Comparisons)
	}
	if got.Comparisons[0].Evidence == nil || *got.Comparisons[0].Evidence != "stays at rest" {
		t.Fatalf("evidence not carried")
	}
	if got.Coherence == nil || *got.Coherence != 0.75 {
		t.Fatalf("coherence=%v", got.Coherence)
	}
	if *got.TotalScore != 9 || got.CriteriaScores["Inertia"] != 9 {
		t.Fatalf("scores: total=%v criteria=%v", *got.TotalScore, got.CriteriaScores)
	}
	if got.Weaknesses[0] != "Net force" || got.Suggestions[0] != "Define net force" || *got.Confidence != 0.9 {
		t.Fatalf("feedback fields not mapped: %+v", got)
	}
}

func TestParseChainOfThoughtFlatLayout(t *testing.T) {
	raw := []byte(`{
	  "step2_student_analysis": {"overall_coherence": 0.6},
	  "step3_concept_comparison": [{"concept": "Inertia", "present": true, "accuracy_percentage": 50}],
	  "step4_rubric_scores": {"Content": 5},
	  "step5_final_result": {"total_score": 5, "weaknesses": "Too short", "detailed_feedback": "ok"}
	}`)
	got, err := parseChainOfThought(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Comparisons[0].AccuracyScore != 0.5 || *got.Coherence != 0.6 || got.CriteriaScores["Content"] != 5 {
		t.Fatalf("flat layout not mapped: %+v", got)
	}
	if len(got.Weaknesses) != 1 || got.Feedback != "ok" || got.Confidence != nil {
		t.Fatalf("final section not mapped: %+v", got)
	}
}

func TestParseChainOfThoughtRequiresFinalScore(t *testing.T) {
	for _, raw := range []string{
		`{"comparative_analysis": {"concept_comparison": []}}`,
		`{"final_summary_and_feedback": {"strengths": []}}`,
		`{"final_summary_and_feedback": {"total_score": 3}, "comparative_analysis": {"concept_comparison": {}}}`,
	} {
		if _, err := parseChainOfThought([]byte(raw)); !stderrors.Is(err, errors.ErrResponseParsing) {
			t.Fatalf("parse(%s) err=%v want ErrResponseParsing", raw, err)
		}
	}
}

func TestDefaultCatalogRendersEveryKind(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	concepts := []ConceptBrief{{Concept: "Inertia", Importance: 1, MaxPoints: 10}}
	rubric := []RubricItem{{Criterion: "Inertia", MaxPoints: 10, Weight: 1}}
	inputs := map[PromptKind]any{
		KindConceptExtraction:  ConceptExtractionInput{Subject: "Physics", Topic: "Motion", IdealAnswer: "IDEAL"},
		KindSemanticComparison: SemanticComparisonInput{IdealAnswer: "IDEAL", StudentAnswer: "STUDENT", Concepts: concepts},
		KindRubricScoring:      RubricScoringInput{IdealAnswer: "IDEAL", StudentAnswer: "STUDENT", Rubric: rubric, MaxMarks: 10, PassingThreshold: 60},
		KindChainOfThought:     ChainOfThoughtInput{Subject: "Physics", IdealAnswer: "IDEAL", StudentAnswer: "STUDENT", Concepts: concepts, Rubric: rubric, MaxMarks: 10, PassingThreshold: 60},
	}
	for kind, in := range inputs {
		r, err := c.Render(kind, in)
		if err != nil {
			t.Fatalf("Render(%s): %v", kind, err)
		}
		if !strings.Contains(r.User, "IDEAL") || r.System == "" || r.Temperature == nil {
			t.Fatalf("Render(%s) incomplete: %+v", kind, r)
		}
	}
	r, _ := c.Render(KindChainOfThought, inputs[KindChainOfThought])
	if !strings.Contains(r.System, "Physics") || !strings.Contains(r.User, `"concept": "Inertia"`) {
		t.Fatalf("chain of thought prompt missing inputs:\n%s\n%s", r.System, r.User)
	}
	if _, err := c.Render(PromptKind("nope"), nil); err == nil {
		t.Fatalf("unknown kind rendered")
	}
}
