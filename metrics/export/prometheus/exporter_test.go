package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	authguard "github.com/threatplane/authguard"
	"github.com/threatplane/authguard/metrics/export/internaldefs"
)

type fakeSource struct {
	snapshot authguard.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() authguard.MetricsSnapshot {
	return f.snapshot
}

func (f *fakeSource) AuditDropped() uint64 {
	return f.dropped
}

func testSource() *fakeSource {
	return &fakeSource{
		snapshot: authguard.MetricsSnapshot{
			Counters: map[authguard.MetricID]uint64{
				authguard.MetricLoginSuccess:     12,
				authguard.MetricLoginRateLimited: 4,
			},
		},
		dropped: 2,
	}
}

func TestRenderTextExposition(t *testing.T) {
	exporter := NewExporterFromSource(testSource())

	out := exporter.Render()

	if !strings.Contains(out, "# TYPE authguard_login_success_total counter\n") {
		t.Fatalf("missing TYPE line:\n%s", out)
	}
	if !strings.Contains(out, "authguard_login_success_total 12\n") {
		t.Fatalf("missing success counter:\n%s", out)
	}
	if !strings.Contains(out, "authguard_login_rate_limited_total 4\n") {
		t.Fatalf("missing rate limited counter:\n%s", out)
	}
	if !strings.Contains(out, internaldefs.AuditDroppedName+" 2\n") {
		t.Fatalf("missing audit dropped counter:\n%s", out)
	}

	// Untouched counters render as explicit zeros.
	if !strings.Contains(out, "authguard_mfa_failure_total 0\n") {
		t.Fatalf("missing zero counter:\n%s", out)
	}
}

func TestRenderEverySeriesHasHelpAndType(t *testing.T) {
	out := NewExporterFromSource(testSource()).Render()

	for _, def := range internaldefs.CounterDefs {
		if !strings.Contains(out, "# HELP "+def.Name+" ") {
			t.Fatalf("missing HELP for %s", def.Name)
		}
		if !strings.Contains(out, "# TYPE "+def.Name+" counter") {
			t.Fatalf("missing TYPE for %s", def.Name)
		}
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	exporter := NewExporterFromSource(testSource())

	recorder := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	if recorder.Code != 200 {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(recorder.Body.String(), "authguard_login_success_total 12") {
		t.Fatalf("body missing counters:\n%s", recorder.Body.String())
	}
}

func TestRenderNilSafe(t *testing.T) {
	var exporter *Exporter
	if out := exporter.Render(); out != "" {
		t.Fatalf("nil exporter must render nothing, got %q", out)
	}

	// A nil engine still renders: every engine accessor tolerates the nil
	// receiver and reports zeros.
	out := NewExporter(nil).Render()
	if !strings.Contains(out, "authguard_login_success_total 0\n") {
		t.Fatalf("expected zero counters from nil engine:\n%s", out)
	}
}
