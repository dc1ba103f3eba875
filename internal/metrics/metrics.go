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
// リクエストパイプラインとHTTPハンドラー層から利用する。
type MetricsCollector interface {
	RecordUpstreamStatus(statusCode int)
	RecordUpstreamFailure(reason string)
	RecordUpstreamLatency(duration time.Duration)
	RecordOperation(mode, operation, outcome string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	upstreamStatus  *prometheus.CounterVec
	upstreamFail    *prometheus.CounterVec
	upstreamLatency prometheus.Histogram
	operations      *prometheus.CounterVec
	opLatency       *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eduqa_upstream_http_status_total",
			Help: "リモートAPIのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		upstreamFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eduqa_upstream_fail_total",
			Help: "リモートAPI呼び出し失敗の合計数",
		}, []string{"reason"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eduqa_upstream_latency_seconds",
			Help:    "リモートAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eduqa_gateway_operations_total",
			Help: "ゲートウェイ操作の実行回数",
		}, []string{"mode", "operation", "outcome"}),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eduqa_gateway_operation_latency_seconds",
			Help:    "ゲートウェイ操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
	}

	reg.MustRegister(
		c.upstreamStatus,
		c.upstreamFail,
		c.upstreamLatency,
		c.operations,
		c.opLatency,
	)

	return c
}

// RecordUpstreamStatus はリモートAPIのHTTPステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(statusCode int) {
	c.upstreamStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamFailure はリモートAPI呼び出しの失敗を記録する。
// reasonには transport, rejected などの分類を指定する。
func (c *Collector) RecordUpstreamFailure(reason string) {
	c.upstreamFail.WithLabelValues(reason).Inc()
}

// RecordUpstreamLatency はリモートAPI呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(duration time.Duration) {
	c.upstreamLatency.Observe(duration.Seconds())
}

// RecordOperation はゲートウェイ操作1回分の結果とレイテンシを記録する。
// outcomeは成功時 "ok"、失敗時はエラー種別を指定する。
func (c *Collector) RecordOperation(mode, operation, outcome string, duration time.Duration) {
	c.operations.WithLabelValues(mode, operation, outcome).Inc()
	c.opLatency.WithLabelValues(mode).Observe(duration.Seconds())
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordUpstreamStatus(int)                                {}
func (Nop) RecordUpstreamFailure(string)                            {}
func (Nop) RecordUpstreamLatency(time.Duration)                     {}
func (Nop) RecordOperation(string, string, string, time.Duration) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
