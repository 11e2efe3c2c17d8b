// SPDX-License-Identifier: AGPL-3.0-or-later
package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, reg *Registry) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rr, req)
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", ct)
	}
	return rr.Body.String()
}

func TestInvocationMetricsOutput(t *testing.T) {
	reg := NewRegistry()
	reg.RecordInvocation("verifyPgpSignature", OutcomeOK, 40*time.Millisecond)
	reg.RecordInvocation("verifyPgpSignature", OutcomeRejected, 30*time.Millisecond)
	reg.RecordInvocation("verifyPgpSignature", OutcomeRejected, 2*time.Second)
	reg.RecordInvocation("doesNotExist", OutcomeUnknown, time.Millisecond)

	body := scrape(t, reg)
	for _, want := range []string{
		`sigdesk_invocations_total{command="verifyPgpSignature",outcome="ok"} 1`,
		`sigdesk_invocations_total{command="verifyPgpSignature",outcome="rejected"} 2`,
		`sigdesk_invocations_total{command="unknown",outcome="unknown_command"} 1`,
		`sigdesk_invocation_duration_seconds_bucket{command="verifyPgpSignature",le="0.05"} 2`,
		`sigdesk_invocation_duration_seconds_bucket{command="verifyPgpSignature",le="+Inf"} 3`,
		`sigdesk_invocation_duration_seconds_count{command="verifyPgpSignature"} 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body:\n%s", want, body)
		}
	}
	if strings.Contains(body, "doesNotExist") {
		t.Fatalf("unknown command names must not become labels:\n%s", body)
	}
	if got := reg.InvocationTotal("verifyPgpSignature", "REJECTED"); got != 2 {
		t.Fatalf("InvocationTotal = %d, want 2", got)
	}
}

func TestHTTPAndBuildInfoOutput(t *testing.T) {
	reg := NewRegistry()
	reg.SetBuildInfo(map[string]string{"version": "1.4.0"})
	reg.RecordHTTP("/invoke/{command}", http.MethodPost, http.StatusOK, 20*time.Millisecond)
	reg.RecordHTTP("", http.MethodPost, http.StatusOK, time.Millisecond)

	body := scrape(t, reg)
	if !strings.Contains(body, `http_requests_total{method="POST",route="/invoke/{command}",code="200"} 1`) {
		t.Fatalf("expected http counter, got body:\n%s", body)
	}
	if !strings.Contains(body, `http_request_duration_seconds_bucket{code="200",le="0.025",method="POST",route="/invoke/{command}"} 1`) {
		t.Fatalf("expected http latency bucket, got body:\n%s", body)
	}
	if !strings.Contains(body, `sigdesk_build_info{version="1.4.0"} 1`) {
		t.Fatalf("expected build info, got body:\n%s", body)
	}
}
