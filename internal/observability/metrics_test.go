package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsExposition(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncWorkflow("chain_of_thought", "ok")
	m.IncCacheLookup("concepts", true)
	m.ObserveReasoningCall("rubric_scoring", "ok", 300*time.Millisecond)
	m.ObserveAPI("POST", "/api/grade/workflow", "200", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`examiner_grading_workflow_total{outcome="ok",strategy="chain_of_thought"} 1`,
		`examiner_cache_lookups_total{cache="concepts",result="hit"} 1`,
		`examiner_reasoning_calls_total{kind="rubric_scoring",outcome="ok"} 1`,
		`examiner_api_requests_total{method="POST",route="/api/grade/workflow",status="200"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("missing %q in exposition", want)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.IncWorkflow("x", "y")
	m.ObserveStage("s", time.Second)
	m.ApiInflightInc()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("nil metrics handler code=%d", rec.Code)
	}
}
