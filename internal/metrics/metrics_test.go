package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestCollector_RecordsLoanMetrics は貸出関連メトリクスの記録を検証する。
func TestCollector_RecordsLoanMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoanIssued()
	c.RecordLoanIssued()
	c.RecordLoanReturned()
	c.RecordIssueConflict()
	c.SetOverdueLoans(3)
	c.RecordHTTPStatus(409)
	c.RecordRequestLatency(150 * time.Millisecond)

	body := scrape(t, reg)

	checks := []string{
		"toshokan_loans_issued_total 2",
		"toshokan_loans_returned_total 1",
		"toshokan_issue_conflicts_total 1",
		"toshokan_overdue_loans 3",
		`toshokan_http_status_total{status_code="409"} 1`,
	}
	for _, want := range checks {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output should contain %q", want)
		}
	}
}

// TestCollector_OverdueGaugeOverwrites は延滞ゲージが毎回上書きされることを検証する。
func TestCollector_OverdueGaugeOverwrites(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetOverdueLoans(5)
	c.SetOverdueLoans(2)

	body := scrape(t, reg)
	if !strings.Contains(body, "toshokan_overdue_loans 2") {
		t.Error("overdue gauge should hold the last set value")
	}
}

// TestSetupMetricsRoute_ServesMetrics は/metricsパスでメトリクスが返ることを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordLoanIssued()

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "toshokan_loans_issued_total") {
		t.Error("response should contain toshokan_loans_issued_total metric")
	}
}

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)
	body, err := io.ReadAll(w.Result().Body)
	if err != nil {
		t.Fatalf("failed to read metrics body: %v", err)
	}
	return string(body)
}
