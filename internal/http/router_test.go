package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examiner-backend/internal/data/repos"
	"github.com/yungbote/examiner-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/examiner-backend/internal/http/handlers"
	"github.com/yungbote/examiner-backend/internal/reasoning"
	"github.com/yungbote/examiner-backend/internal/reasoning/reasoningtest"
	"github.com/yungbote/examiner-backend/internal/services"
)

type testServer struct {
	engine *gin.Engine
	gw     *reasoningtest.Gateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	gw := reasoningtest.NewGateway()

	questions := repos.NewQuestionRepo(db, log)
	concepts := repos.NewKeyConceptRepo(db, log)
	criteria := repos.NewRubricCriterionRepo(db, log)
	answers := repos.NewStudentAnswerRepo(db, log)
	audits := repos.NewAuditLogRepo(db, log)

	refs := services.NewReferenceMaterialService(db, log, questions, concepts, criteria, audits)
	catalog := services.NewConceptCatalogService(db, log, gw, questions, concepts, audits)
	locator := services.NewAnswerLocatorService(db, log, questions, answers, audits)
	engine := services.NewGradingEngine(log, gw, criteria)
	ledger := services.NewResultLedgerService(db, log, repos.NewGradingResultRepo(db, log), repos.NewConceptEvaluationRepo(db, log), audits)
	workflow := services.NewGradingWorkflowService(log, refs, catalog, locator, engine, ledger, audits, services.WorkflowOptions{})
	adhoc := services.NewAdHocGradingService(log, gw, services.NewGradingEngine(log, gw, nil), services.WorkflowOptions{})

	r := NewRouter(RouterConfig{
		Log:              log,
		HealthHandler:    httpH.NewHealthHandler(db),
		GradingHandler:   httpH.NewGradingHandler(log, workflow),
		QuestionHandler:  httpH.NewQuestionHandler(log, refs, catalog),
		AnswerHandler:    httpH.NewAnswerHandler(log, refs, locator, ledger),
		ReasoningHandler: httpH.NewReasoningHandler(gw),
		AdHocHandler:     httpH.NewAdHocHandler(log, adhoc),
	})
	return &testServer{engine: r, gw: gw}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	decode(t, rec, &env)
	if env.Error.Message == "" {
		t.Fatalf("error envelope without message: %s", rec.Body.String())
	}
	return env.Error.Code
}

func seedOverHTTP(t *testing.T, s *testServer) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/questions", map[string]any{
		"question_id":   "PHY-101-Q3",
		"subject":       "Physics",
		"topic":         "Newton's laws",
		"question_text": "State Newton's first law.",
		"ideal_answer":  "Objects keep their state of motion unless a net force acts.",
		"max_marks":     30,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create question: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodPost, "/api/answers", map[string]any{
		"question_id": "PHY-101-Q3",
		"student_id":  "student-7",
		"answer_text": "A body stays at rest unless pushed.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create answer: %d %s", rec.Code, rec.Body.String())
	}

	items := []map[string]any{}
	for _, name := range []string{"Inertia", "Net force", "Reference frames"} {
		items = append(items, map[string]any{"concept": name, "importance": 0.8, "keywords": []string{name}})
	}
	s.gw.OnJSON(reasoning.KindConceptExtraction, map[string]any{"key_concepts": items})
	s.gw.OnJSON(reasoning.KindChainOfThought, map[string]any{
		"comparative_analysis": map[string]any{
			"concept_comparison": []map[string]any{
				{"concept": "Inertia", "present": true, "accuracy_percentage": 90, "evaluation": "Clearly explained"},
				{"concept": "Net force", "present": true, "accuracy_percentage": 80, "evaluation": "Mostly right"},
			},
		},
		"final_summary_and_feedback": map[string]any{
			"total_score":      26,
			"overall_feedback": "Solid answer.",
			"confidence_level": 0.9,
		},
	})
}

func TestHealthcheck(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthcheck", "/readyz"} {
		rec := s.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Fatalf("%s: %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestGradeWorkflowEndpoint(t *testing.T) {
	s := newTestServer(t)
	seedOverHTTP(t, s)

	rec := s.do(t, http.MethodPost, "/api/grade/workflow", map[string]any{"question_id": "PHY-101-Q3", "student_id": "student-7"})
	if rec.Code != http.StatusOK {
		t.Fatalf("grade: %d %s", rec.Code, rec.Body.String())
	}
	var first map[string]any
	decode(t, rec, &first)
	if first["Score"] != "26.0/30" || first["Percentage"] != "86.7%" || first["Passed"] != true {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	for _, k := range []string{"Justification", "Key_Concepts_Covered", "ProcessingTimeMs", "ConfidenceScore", "GradingResultId"} {
		if _, ok := first[k]; !ok {
			t.Fatalf("response missing %q: %s", k, rec.Body.String())
		}
	}

	again := s.do(t, http.MethodPost, "/api/grade/workflow", map[string]any{"question_id": "PHY-101-Q3", "student_id": "student-7"})
	if again.Body.String() != rec.Body.String() {
		t.Fatalf("repeat call differs:\n%s\n%s", rec.Body.String(), again.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/students/student-7/results", nil)
	var listed struct {
		Results []map[string]any `json:"results"`
	}
	decode(t, rec, &listed)
	if rec.Code != http.StatusOK || len(listed.Results) != 1 {
		t.Fatalf("results: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPatch, "/api/questions/PHY-101-Q3/marks", map[string]any{"max_marks": 40})
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "conflict" {
		t.Fatalf("marks edit after extraction: %d %s", rec.Code, rec.Body.String())
	}
}

func TestGradeWorkflowErrors(t *testing.T) {
	s := newTestServer(t)
	seedOverHTTP(t, s)

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing student", map[string]any{"question_id": "PHY-101-Q3"}, http.StatusBadRequest, "invalid_argument"},
		{"unknown question", map[string]any{"question_id": "NOPE", "student_id": "student-7"}, http.StatusNotFound, "not_found"},
		{"unknown student", map[string]any{"question_id": "PHY-101-Q3", "student_id": "ghost"}, http.StatusNotFound, "not_found"},
		{"bad strategy", map[string]any{"question_id": "PHY-101-Q3", "student_id": "student-7", "strategy": "vibes"}, http.StatusBadRequest, "invalid_argument"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/grade/workflow", tc.body)
			if rec.Code != tc.status || errorCode(t, rec) != tc.code {
				t.Fatalf("got %d %s want %d/%s", rec.Code, rec.Body.String(), tc.status, tc.code)
			}
		})
	}
}

func TestGradeBatchEndpoint(t *testing.T) {
	s := newTestServer(t)
	seedOverHTTP(t, s)

	rec := s.do(t, http.MethodPost, "/api/grade/batch/workflow", []map[string]any{
		{"question_id": "PHY-101-Q3", "student_id": "student-7"},
		{"question_id": "PHY-101-Q3", "student_id": "ghost"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("batch: %d %s", rec.Code, rec.Body.String())
	}
	var out services.BatchResponse
	decode(t, rec, &out)
	if out.Total != 2 || out.Succeeded != 1 || out.Failed != 1 || out.Results[1].Error.Code != "not_found" {
		t.Fatalf("batch body: %s", rec.Body.String())
	}
}

func TestQuestionAndAnswerEndpoints(t *testing.T) {
	s := newTestServer(t)
	seedOverHTTP(t, s)

	rec := s.do(t, http.MethodPost, "/api/questions/PHY-101-Q3/extract-concepts", nil)
	var extracted struct {
		Concepts []map[string]any `json:"key_concepts"`
	}
	decode(t, rec, &extracted)
	if rec.Code != http.StatusOK || len(extracted.Concepts) != 3 {
		t.Fatalf("extract: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/questions/PHY-101-Q3/criteria", map[string]any{
		"criteria": []map[string]any{{"criterion_name": "Content", "max_points": 20}, {"criterion_name": "Clarity", "max_points": 10}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("criteria: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/questions/PHY-101-Q3", nil)
	var details struct {
		Question map[string]any   `json:"question"`
		Concepts []map[string]any `json:"key_concepts"`
		Criteria []map[string]any `json:"rubric_criteria"`
	}
	decode(t, rec, &details)
	if rec.Code != http.StatusOK || details.Question["question_id"] != "PHY-101-Q3" || len(details.Concepts) != 3 || len(details.Criteria) != 2 {
		t.Fatalf("details: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/students/student-7/answers/PHY-101-Q3", nil)
	var got struct {
		Answer map[string]any `json:"answer"`
	}
	decode(t, rec, &got)
	if rec.Code != http.StatusOK || got.Answer["word_count"] != float64(7) {
		t.Fatalf("answer: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/answers", map[string]any{
		"question_id": "PHY-101-Q3", "student_id": "student-7", "answer_text": "again",
	})
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "conflict" {
		t.Fatalf("duplicate answer: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/questions", map[string]any{"question_id": "Q-BAD", "question_text": "x", "ideal_answer": "y", "max_marks": -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid question accepted: %d %s", rec.Code, rec.Body.String())
	}
}

func TestReasoningEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/reasoning/info", nil)
	var info map[string]any
	decode(t, rec, &info)
	if rec.Code != http.StatusOK || info["provider"] != "scripted" || info["model"] != "scripted-model" {
		t.Fatalf("info: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/reasoning/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestListingEndpoints(t *testing.T) {
	s := newTestServer(t)
	seedOverHTTP(t, s)

	rec := s.do(t, http.MethodGet, "/api/questions", nil)
	var questions struct {
		Questions  []map[string]any `json:"questions"`
		TotalCount int              `json:"total_count"`
	}
	decode(t, rec, &questions)
	if rec.Code != http.StatusOK || questions.TotalCount != 1 || questions.Questions[0]["question_id"] != "PHY-101-Q3" {
		t.Fatalf("questions: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/answers?limit=10", nil)
	var answers struct {
		Answers    []map[string]any `json:"student_answers"`
		TotalCount int              `json:"total_count"`
	}
	decode(t, rec, &answers)
	if rec.Code != http.StatusOK || answers.TotalCount != 1 || answers.Answers[0]["question_id"] != "PHY-101-Q3" || answers.Answers[0]["student_id"] != "student-7" {
		t.Fatalf("answers: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/answers/stats", nil)
	var stats services.AnswerStats
	decode(t, rec, &stats)
	want := services.AnswerStats{TotalAnswers: 1, UniqueStudents: 1, UniqueQuestions: 1, AverageWordCount: 7}
	if rec.Code != http.StatusOK || stats != want {
		t.Fatalf("stats: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/answers?offset=-1", nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_argument" {
		t.Fatalf("negative offset: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdHocEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.gw.OnJSON(reasoning.KindConceptExtraction, map[string]any{"key_concepts": []map[string]any{
		{"concept": "Inertia", "importance": 0.9, "keywords": []string{"rest"}},
		{"concept": "Net force", "importance": 0.7, "keywords": []string{"force"}},
	}})
	s.gw.OnJSON(reasoning.KindChainOfThought, map[string]any{
		"comparative_analysis": map[string]any{
			"concept_comparison": []map[string]any{
				{"concept": "Inertia", "present": true, "accuracy_percentage": 90, "evaluation": "Good"},
				{"concept": "Net force", "present": true, "accuracy_percentage": 50, "evaluation": "Partial"},
			},
		},
		"final_summary_and_feedback": map[string]any{"total_score": 7, "overall_feedback": "Fine."},
	})
	ideal := map[string]any{
		"subject":   "Physics",
		"topic":     "Newton's laws",
		"content":   "Objects keep their state of motion unless a net force acts.",
		"max_marks": 10,
	}
	student := map[string]any{"student_id": "walk-in", "content": "A body stays at rest unless pushed."}

	rec := s.do(t, http.MethodPost, "/api/grade", map[string]any{"ideal_answer": ideal, "student_answer": student})
	var graded services.AdHocGradeResponse
	decode(t, rec, &graded)
	if rec.Code != http.StatusOK || graded.Score != "7.0/10" || graded.Percentage != "70.0%" || len(graded.KeyConceptsCovered) != 2 {
		t.Fatalf("grade: %d %s", rec.Code, rec.Body.String())
	}

	unmarked := map[string]any{"content": "Objects keep moving."}
	rec = s.do(t, http.MethodPost, "/api/grade/batch", map[string]any{"requests": []map[string]any{
		{"ideal_answer": ideal, "student_answer": student},
		{"ideal_answer": unmarked, "student_answer": student},
	}})
	var batch services.AdHocBatchResponse
	decode(t, rec, &batch)
	if rec.Code != http.StatusOK || batch.Succeeded != 1 || batch.Failed != 1 || batch.Results[1].Error.Code != "invalid_argument" {
		t.Fatalf("batch: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/analyze/concepts", ideal)
	var concepts services.ConceptAnalysis
	decode(t, rec, &concepts)
	if rec.Code != http.StatusOK || concepts.ConceptCount != 2 || concepts.KeyConcepts[0].Concept != "Inertia" {
		t.Fatalf("analyze concepts: %d %s", rec.Code, rec.Body.String())
	}

	s.gw.OnJSON(reasoning.KindSemanticComparison, map[string]any{
		"concept_evaluations": []map[string]any{
			{"concept": "Inertia", "present": true, "accuracy_score": 0.9, "explanation": "Good"},
		},
		"overall_semantic_similarity": 0.6,
	})
	rec = s.do(t, http.MethodPost, "/api/analyze/similarity", map[string]any{"ideal_answer": ideal, "student_answer": student})
	var similarity services.SimilarityAnalysis
	decode(t, rec, &similarity)
	if rec.Code != http.StatusOK || similarity.Analysis == nil || len(similarity.Analysis.ConceptEvaluations) != 1 || len(similarity.KeyConcepts) != 2 {
		t.Fatalf("analyze similarity: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/grade", map[string]any{"ideal_answer": map[string]any{"max_marks": 10}, "student_answer": student})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_argument" {
		t.Fatalf("missing ideal content: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/questions", nil)
	var questions struct {
		TotalCount int `json:"total_count"`
	}
	decode(t, rec, &questions)
	if questions.TotalCount != 0 {
		t.Fatalf("inline grading stored questions: %s", rec.Body.String())
	}
}
