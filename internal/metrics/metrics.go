// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層・ミドルウェア・ワーカーから利用する。
type MetricsCollector interface {
	RecordLoanIssued()
	RecordLoanReturned()
	RecordIssueConflict()
	SetOverdueLoans(count int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loansIssued    prometheus.Counter
	loansReturned  prometheus.Counter
	issueConflicts prometheus.Counter
	overdueLoans   prometheus.Gauge
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loansIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "toshokan_loans_issued_total",
			Help: "成立した貸出の合計数",
		}),
		loansReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "toshokan_loans_returned_total",
			Help: "成立した返却の合計数",
		}),
		issueConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "toshokan_issue_conflicts_total",
			Help: "二重貸出として拒否されたリクエストの合計数",
		}),
		overdueLoans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "toshokan_overdue_loans",
			Help: "現在延滞中の貸出数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toshokan_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "toshokan_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.loansIssued,
		c.loansReturned,
		c.issueConflicts,
		c.overdueLoans,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordLoanIssued は貸出成立を記録する。
func (c *Collector) RecordLoanIssued() {
	c.loansIssued.Inc()
}

// RecordLoanReturned は返却成立を記録する。
func (c *Collector) RecordLoanReturned() {
	c.loansReturned.Inc()
}

// RecordIssueConflict は二重貸出の拒否を記録する。
func (c *Collector) RecordIssueConflict() {
	c.issueConflicts.Inc()
}

// SetOverdueLoans は現在の延滞貸出数を設定する。
// 延滞スキャンワーカーが定期的に更新する。
func (c *Collector) SetOverdueLoans(count int) {
	c.overdueLoans.Set(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
