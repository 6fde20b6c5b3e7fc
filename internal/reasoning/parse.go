package reasoning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/yungbote/examiner-backend/internal/pkg/errors"
	"github.com/yungbote/examiner-backend/internal/pkg/pointers"
)

var validate = validator.New()

// StripFences removes a surrounding markdown code fence, with or without a
// language tag, and any whitespace around the payload.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(s[:nl]); tag == "" || isFenceTag(tag) {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceTag(tag string) bool {
	for _, r := range tag {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

// cleanJSON strips fences and rejects anything that is not a single JSON object.
func cleanJSON(text string) (json.RawMessage, error) {
	s := StripFences(text)
	if s == "" {
		return nil, fmt.Errorf("%w: empty response", errors.ErrResponseParsing)
	}
	if !gjson.Valid(s) {
		return nil, fmt.Errorf("%w: response is not valid JSON: %s", errors.ErrResponseParsing, snippet(s))
	}
	if !gjson.Parse(s).IsObject() {
		return nil, fmt.Errorf("%w: response is not a JSON object", errors.ErrResponseParsing)
	}
	return json.RawMessage(s), nil
}

func decodeInto(raw json.RawMessage, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrResponseParsing, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrResponseParsing, err)
	}
	return nil
}

// parseChainOfThought accepts both the nested section layout the prompt asks
// for and the flat step-numbered layout some models produce.
func parseChainOfThought(raw json.RawMessage) (*ChainOfThoughtGrade, error) {
	doc := gjson.ParseBytes(raw)

	final := firstOf(doc, "final_summary_and_feedback", "step5_final_result", "final_result")
	if !final.Exists() || !final.IsObject() {
		return nil, fmt.Errorf("%w: missing final summary section", errors.ErrResponseParsing)
	}

	out := &ChainOfThoughtGrade{CriteriaScores: map[string]float64{}}

	comparisons := firstOf(doc, "comparative_analysis.concept_comparison", "step3_concept_comparison", "concept_comparison")
	if comparisons.Exists() && !comparisons.IsArray() {
		return nil, fmt.Errorf("%w: concept comparison is not a list", errors.ErrResponseParsing)
	}
	for _, item := range comparisons.Array() {
		v := ConceptVerdict{
			Concept:     strings.TrimSpace(firstOf(item, "concept", "concept_name", "name").String()),
			Present:     item.Get("present").Bool(),
			Explanation: firstOf(item, "evaluation", "explanation").String(),
		}
		if pct := item.Get("accuracy_percentage"); pct.Exists() {
			v.AccuracyScore = pct.Float() / 100
		} else {
			v.AccuracyScore = item.Get("accuracy_score").Float()
		}
		if ev := item.Get("evidence"); ev.Exists() && ev.Type == gjson.String {
			v.Evidence = pointers.String(ev.String())
		}
		out.Comparisons = append(out.Comparisons, v)
	}

	if c := firstOf(doc, "comparative_analysis.overall_coherence", "step2_student_analysis.overall_coherence", "overall_coherence"); c.Exists() {
		out.Coherence = pointers.Float64(c.Float())
	}

	firstOf(doc, "rubric_evaluation", "step4_rubric_scores", "rubric_scores").ForEach(func(k, v gjson.Result) bool {
		if v.IsObject() {
			out.CriteriaScores[k.String()] = v.Get("points_awarded").Float()
		} else {
			out.CriteriaScores[k.String()] = v.Float()
		}
		return true
	})

	if ts := final.Get("total_score"); ts.Exists() {
		out.TotalScore = pointers.Float64(ts.Float())
	}
	out.MaxPossibleScore = final.Get("max_possible_score").Float()
	out.Strengths = stringList(final.Get("strengths"))
	out.Weaknesses = stringList(firstOf(final, "areas_for_improvement", "weaknesses"))
	out.Suggestions = stringList(firstOf(final, "specific_suggestions", "suggestions"))
	out.Feedback = firstOf(final, "overall_feedback", "detailed_feedback").String()
	if c := firstOf(final, "confidence_level", "confidence_score"); c.Exists() {
		out.Confidence = pointers.Float64(c.Float())
	}

	if err := validate.Struct(out); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrResponseParsing, err)
	}
	return out, nil
}

func firstOf(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func stringList(r gjson.Result) []string {
	if !r.IsArray() {
		if s := strings.TrimSpace(r.String()); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, v := range r.Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func snippet(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
